package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GetUserID reads the authenticated user id set by the auth middleware.
// Returns 0 when the handler runs without it, which matches no row.
func GetUserID(c *fiber.Ctx) int64 {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0
	}
	userID, _ := strconv.Atoi(raw)
	return int64(userID)
}
