package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	config "github.com/marketloom/autopost/configs"
	"github.com/marketloom/autopost/internal/models"
	"github.com/marketloom/autopost/internal/repository"
	"github.com/marketloom/autopost/internal/service"
	"github.com/marketloom/autopost/internal/transfer"
)

const expiredReason = "missed scheduling window"

// PublishJob is the scheduler loop: invoked on a fixed cadence, it expires
// stale posts, atomically claims due ones and feeds them to the publish
// service one at a time. The job owns every queue state transition; the
// publish service is a pure request/response collaborator.
type PublishJob struct {
	cfg config.Config
	pr  repository.ScheduledPostRepository
	ps  service.PublishService

	now   func() time.Time
	sleep func(time.Duration)
}

func NewPublishJob(cfg config.Config, pr repository.ScheduledPostRepository, ps service.PublishService) *PublishJob {
	return &PublishJob{
		cfg:   cfg,
		pr:    pr,
		ps:    ps,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Run is the cron entry point.
func (j *PublishJob) Run() {
	summary, err := j.PublishDuePosts(context.Background())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if summary.OutsideHours {
		return
	}
	slog.Info(fmt.Sprintf("publish sweep done: published=%d failed=%d expired=%d",
		summary.Published, summary.Failed, summary.Expired))
}

// PublishDuePosts runs one sweep: time gate, stale expiry, stuck-claim
// reclaim, atomic batch claim, then sequential publishing with pacing.
func (j *PublishJob) PublishDuePosts(ctx context.Context) (transfer.PublishSummary, error) {
	var summary transfer.PublishSummary

	// A misconfigured pipeline must no-op, not drain the queue: expiring or
	// claiming here would burn attempts on work that cannot succeed.
	if j.pr == nil || j.ps == nil {
		slog.Info("publish pipeline is not configured, skipping sweep")
		return summary, nil
	}
	if j.cfg.GatewayBaseURL == "" {
		slog.Info("publishing gateway is not configured, skipping sweep")
		return summary, nil
	}

	now := j.now()
	if !j.withinWindow(now) {
		summary.OutsideHours = true
		return summary, nil
	}

	// Reclaim rows abandoned mid-publishing by a crashed process before the
	// expiry pass so they are judged by the same staleness rule.
	claimTimeout := time.Duration(j.cfg.Publishing.ClaimTimeoutMinutes) * time.Minute
	if reclaimed, err := j.pr.ReclaimStuck(ctx, now.Add(-claimTimeout)); err != nil {
		slog.Info(err.Error())
	} else if reclaimed > 0 {
		slog.Info(fmt.Sprintf("reclaimed %d stuck publishing posts", reclaimed))
	}

	staleBefore := now.Add(-time.Duration(j.cfg.Publishing.StaleAfterHours) * time.Hour).UnixMilli()
	expired, err := j.pr.ExpireStale(ctx, staleBefore, expiredReason)
	if err != nil {
		slog.Info(err.Error())
	}
	summary.Expired = int(expired)

	claimed, err := j.pr.ClaimDue(ctx, now.UnixMilli(), staleBefore, j.cfg.Publishing.BatchSize)
	if err != nil {
		return summary, fmt.Errorf("failed to claim due posts: %w", err)
	}

	pacing := time.Duration(j.cfg.Publishing.PacingSeconds) * time.Second
	for i, post := range claimed {
		if j.processClaimed(ctx, post) {
			summary.Published++
		} else if post.PublishAttempts >= j.cfg.Publishing.MaxAttempts {
			summary.Failed++
		}

		if i < len(claimed)-1 {
			j.sleep(pacing)
		}
	}

	return summary, nil
}

// PublishPostByID is the single-post trigger for "publish now" and exact-time
// callers. It honors the same time gate and terminal short-circuits.
func (j *PublishJob) PublishPostByID(ctx context.Context, postID int64) transfer.PublishResult {
	if j.cfg.GatewayBaseURL == "" {
		slog.Info("publishing gateway is not configured, skipping publish")
		return transfer.PublishResult{RetryLater: true, Error: "publishing gateway is not configured"}
	}
	if !j.withinWindow(j.now()) {
		return transfer.PublishResult{RetryLater: true, Error: "outside the publishing window"}
	}

	post, err := j.pr.GetByID(ctx, postID)
	if err != nil {
		return transfer.PublishResult{RetryLater: true, Error: err.Error()}
	}
	if post == nil {
		return transfer.PublishResult{Error: fmt.Sprintf("post %d not found", postID)}
	}

	switch post.Status {
	case models.PostStatusPublished:
		return transfer.PublishResult{
			Success:          true,
			AlreadyPublished: true,
			MediaID:          post.PlatformMediaID.String,
		}
	case models.PostStatusCancelled:
		return transfer.PublishResult{Error: fmt.Sprintf("post %d is cancelled", postID)}
	case models.PostStatusFailed:
		return transfer.PublishResult{Error: fmt.Sprintf("post %d has permanently failed", postID)}
	}

	claimed, err := j.pr.ClaimOne(ctx, postID)
	if err != nil {
		return transfer.PublishResult{RetryLater: true, Error: err.Error()}
	}
	if claimed == nil {
		return transfer.PublishResult{RetryLater: true, Error: fmt.Sprintf("post %d is already being published", postID)}
	}

	if j.processClaimed(ctx, claimed) {
		return transfer.PublishResult{Success: true, MediaID: claimed.PlatformMediaID.String}
	}
	if claimed.PublishAttempts >= j.cfg.Publishing.MaxAttempts {
		return transfer.PublishResult{Error: claimed.ErrorMessage.String}
	}
	return transfer.PublishResult{RetryLater: true, Error: claimed.ErrorMessage.String}
}

// processClaimed runs the publish service for a claimed post and records the
// outcome. Every failure class reduces to the same decision: retry while
// attempts remain, otherwise fail.
func (j *PublishJob) processClaimed(ctx context.Context, post *models.ScheduledPost) bool {
	mediaID, err := j.ps.PublishPost(ctx, post)
	if err == nil {
		if err := j.pr.MarkPublished(ctx, post.ID, mediaID); err != nil {
			slog.Info(err.Error())
		}
		post.PlatformMediaID.String = mediaID
		post.PlatformMediaID.Valid = true
		return true
	}

	slog.Info(fmt.Sprintf("publishing post %d failed (attempt %d): %v", post.ID, post.PublishAttempts, err))
	post.ErrorMessage.String = err.Error()
	post.ErrorMessage.Valid = true

	if post.PublishAttempts >= j.cfg.Publishing.MaxAttempts {
		if err := j.pr.MarkFailed(ctx, post.ID, post.ErrorMessage.String); err != nil {
			slog.Info(err.Error())
		}
		return false
	}

	if err := j.pr.Reschedule(ctx, post.ID, post.ErrorMessage.String); err != nil {
		slog.Info(err.Error())
	}
	return false
}

// withinWindow applies the business policy of not posting in the middle of
// the night, evaluated in the service's operating timezone.
func (j *PublishJob) withinWindow(t time.Time) bool {
	loc, err := time.LoadLocation(j.cfg.Publishing.Timezone)
	if err != nil {
		slog.Info(err.Error())
		loc = time.UTC
	}
	hour := t.In(loc).Hour()
	return hour >= j.cfg.Publishing.WindowStartHour && hour <= j.cfg.Publishing.WindowEndHour
}
