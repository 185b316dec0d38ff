package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	job "github.com/marketloom/autopost/internal/jobs"
	"github.com/marketloom/autopost/internal/queue"
	"github.com/marketloom/autopost/internal/repository"
)

type PublishHandler struct {
	pj     *job.PublishJob
	pr     repository.ScheduledPostRepository
	client *asynq.Client
}

func NewPublishHandler(pj *job.PublishJob, pr repository.ScheduledPostRepository, client *asynq.Client) *PublishHandler {
	return &PublishHandler{pj: pj, pr: pr, client: client}
}

type publishRequest struct {
	PostID       int64 `json:"post_id"`
	DelaySeconds int64 `json:"delay_seconds"`
}

// EnqueuePublish schedules a single-post publish through the task queue,
// optionally delayed for exact-time publishing.
func (h *PublishHandler) EnqueuePublish(c *fiber.Ctx) error {
	var req publishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	post, err := h.pr.GetByID(c.Context(), req.PostID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if post == nil || post.UserID != GetUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}

	payload := queue.PublishPostPayload{PostID: req.PostID}
	if err := queue.EnqueuePost(h.client, payload, time.Duration(req.DelaySeconds)*time.Second); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"queued": true})
}

// PublishNow runs the single-post trigger synchronously.
func (h *PublishHandler) PublishNow(c *fiber.Ctx) error {
	var req publishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	post, err := h.pr.GetByID(c.Context(), req.PostID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if post == nil || post.UserID != GetUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}

	result := h.pj.PublishPostByID(c.Context(), req.PostID)
	return c.JSON(result)
}

// PostStatus returns the queue row's lifecycle fields for the dashboard.
func (h *PublishHandler) PostStatus(c *fiber.Ctx) error {
	postID := c.QueryInt("post_id")
	if postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "post_id is required"})
	}

	post, err := h.pr.GetByID(c.Context(), int64(postID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if post == nil || post.UserID != GetUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	}

	return c.JSON(fiber.Map{
		"post_id":           post.ID,
		"status":            post.Status,
		"publish_attempts":  post.PublishAttempts,
		"error_message":     post.ErrorMessage.String,
		"platform_media_id": post.PlatformMediaID.String,
	})
}
