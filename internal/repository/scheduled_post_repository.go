package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/marketloom/autopost/internal/models"
)

type ScheduledPostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ClaimDue(ctx context.Context, dueBefore, notBefore int64, limit int) ([]*models.ScheduledPost, error)
	ClaimOne(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ExpireStale(ctx context.Context, olderThan int64, reason string) (int64, error)
	ReclaimStuck(ctx context.Context, claimedBefore time.Time) (int64, error)
	MarkPublished(ctx context.Context, id int64, platformMediaID string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	Reschedule(ctx context.Context, id int64, errorMessage string) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const postColumns = `id, user_id, organization_id, platform, content_type, caption, hashtags,
	media_url, carousel_media_urls, scheduled_timestamp, account_id, status, publish_attempts,
	last_publish_attempt, error_message, published_at, platform_media_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheduledPost(row rowScanner) (*models.ScheduledPost, error) {
	var p models.ScheduledPost
	err := row.Scan(&p.ID, &p.UserID, &p.OrganizationID, &p.Platform, &p.ContentType,
		&p.Caption, pq.Array(&p.Hashtags), &p.MediaURL, pq.Array(&p.CarouselMediaURLs),
		&p.ScheduledTimestamp, &p.AccountID, &p.Status, &p.PublishAttempts,
		&p.LastPublishAttempt, &p.ErrorMessage, &p.PublishedAt, &p.PlatformMediaID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`
	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// ClaimDue atomically transitions due scheduled posts to publishing, incrementing
// publish_attempts in the same statement. Two overlapping invocations can never
// both claim the same row: the subselect takes row locks and skips rows another
// claim already holds, and the outer WHERE re-checks status.
func (r *scheduledPostRepository) ClaimDue(ctx context.Context, dueBefore, notBefore int64, limit int) ([]*models.ScheduledPost, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			publish_attempts = publish_attempts + 1,
			last_publish_attempt = NOW(),
			updated_at = NOW()
		WHERE id IN (
			SELECT id FROM scheduled_posts
			WHERE status = $2
			  AND scheduled_timestamp <= $3
			  AND scheduled_timestamp > $4
			ORDER BY scheduled_timestamp ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		AND status = $2
		RETURNING ` + postColumns

	rows, err := r.db.QueryContext(ctx, query,
		models.PostStatusPublishing, models.PostStatusScheduled, dueBefore, notBefore, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// ClaimOne claims a single post by id regardless of its due time. Returns nil
// when the post is not in scheduled state (claimed elsewhere or terminal).
func (r *scheduledPostRepository) ClaimOne(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			publish_attempts = publish_attempts + 1,
			last_publish_attempt = NOW(),
			updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + postColumns

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query,
		models.PostStatusPublishing, id, models.PostStatusScheduled))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// ExpireStale fails scheduled posts at or before the staleness cutoff. The
// inclusive bound pairs with ClaimDue's strict lower bound so the two
// predicates partition the timeline.
func (r *scheduledPostRepository) ExpireStale(ctx context.Context, olderThan int64, reason string) (int64, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			updated_at = NOW()
		WHERE status = $3 AND scheduled_timestamp <= $4
	`
	result, err := r.db.ExecContext(ctx, query,
		models.PostStatusFailed, reason, models.PostStatusScheduled, olderThan)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

// ReclaimStuck folds publishing rows abandoned by a crashed process back into
// scheduled, keeping publish_attempts so the retry ceiling still applies.
func (r *scheduledPostRepository) ReclaimStuck(ctx context.Context, claimedBefore time.Time) (int64, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = NOW()
		WHERE status = $2 AND last_publish_attempt < $3
	`
	result, err := r.db.ExecContext(ctx, query,
		models.PostStatusScheduled, models.PostStatusPublishing, claimedBefore)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

func (r *scheduledPostRepository) MarkPublished(ctx context.Context, id int64, platformMediaID string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			platform_media_id = $2,
			published_at = NOW(),
			error_message = NULL,
			updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	_, err := r.db.ExecContext(ctx, query,
		models.PostStatusPublished, platformMediaID, id, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	_, err := r.db.ExecContext(ctx, query,
		models.PostStatusFailed, errorMessage, id, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Reschedule returns a failed claim to the queue without resetting the attempt
// counter; error_message keeps the latest failure reason visible to operators.
func (r *scheduledPostRepository) Reschedule(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	_, err := r.db.ExecContext(ctx, query,
		models.PostStatusScheduled, errorMessage, id, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
