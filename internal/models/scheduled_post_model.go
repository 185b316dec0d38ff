package models

import (
	"database/sql"
	"time"
)

type ScheduledPost struct {
	ID                 int64          `db:"id" json:"id"`
	UserID             int64          `db:"user_id" json:"user_id"`
	OrganizationID     sql.NullInt64  `db:"organization_id" json:"organization_id"`
	Platform           string         `db:"platform" json:"platform"`
	ContentType        string         `db:"content_type" json:"content_type"`
	Caption            string         `db:"caption" json:"caption"`
	Hashtags           []string       `db:"hashtags" json:"hashtags"`
	MediaURL           string         `db:"media_url" json:"media_url"`
	CarouselMediaURLs  []string       `db:"carousel_media_urls" json:"carousel_media_urls"`
	ScheduledTimestamp int64          `db:"scheduled_timestamp" json:"scheduled_timestamp"` // epoch milliseconds
	AccountID          sql.NullInt64  `db:"account_id" json:"account_id"`
	Status             string         `db:"status" json:"status"`
	PublishAttempts    int            `db:"publish_attempts" json:"publish_attempts"`
	LastPublishAttempt sql.NullTime   `db:"last_publish_attempt" json:"last_publish_attempt"`
	ErrorMessage       sql.NullString `db:"error_message" json:"error_message"`
	PublishedAt        sql.NullTime   `db:"published_at" json:"published_at"`
	PlatformMediaID    sql.NullString `db:"platform_media_id" json:"platform_media_id"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
	PostStatusCancelled  = "cancelled"
)

const (
	ContentTypePhoto    = "photo"
	ContentTypeStory    = "story"
	ContentTypeReel     = "reel"
	ContentTypeCarousel = "carousel"
)
