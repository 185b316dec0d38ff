package models

import (
	"database/sql"
	"time"
)

type SocialAccount struct {
	ID             int64         `db:"id" json:"id"`
	UserID         int64         `db:"user_id" json:"user_id"`
	OrganizationID sql.NullInt64 `db:"organization_id" json:"organization_id"`
	IGUserID       string        `db:"ig_user_id" json:"ig_user_id"`
	AccessToken    string        `db:"access_token" json:"access_token"`
	IsActive       bool          `db:"is_active" json:"is_active"`
	ConnectedAt    time.Time     `db:"connected_at" json:"connected_at"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}
