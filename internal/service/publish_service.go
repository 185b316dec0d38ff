package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	config "github.com/marketloom/autopost/configs"
	"github.com/marketloom/autopost/internal/models"
	"github.com/marketloom/autopost/internal/transfer"
)

// PublishService drives the remote publish protocol for one post: resolve
// credentials, normalize media, create the container, poll it to readiness and
// issue the final publish call. It owns no queue state; the scheduler job does
// all status transitions.
type PublishService interface {
	PublishPost(ctx context.Context, post *models.ScheduledPost) (string, error)
}

type publishService struct {
	cfg   config.Config
	creds CredentialService
	media MediaService
	gw    GatewayService
}

func NewPublishService(cfg config.Config, creds CredentialService, media MediaService, gw GatewayService) PublishService {
	return &publishService{cfg: cfg, creds: creds, media: media, gw: gw}
}

func (s *publishService) PublishPost(ctx context.Context, post *models.ScheduledPost) (string, error) {
	credentials, err := s.creds.Resolve(ctx, post)
	if err != nil {
		return "", err
	}

	containerID, err := s.createContainer(ctx, post, credentials)
	if err != nil {
		return "", err
	}

	budget := s.cfg.Publishing.PollBudgetSingle
	if post.ContentType == models.ContentTypeCarousel {
		budget = s.cfg.Publishing.PollBudgetCarousel
	}
	if err := s.pollContainer(ctx, containerID, credentials, budget); err != nil {
		return "", err
	}

	return s.publishContainer(ctx, post.ContentType, containerID, credentials)
}

// createContainer builds the shape-specific container request and returns the
// platform container id.
func (s *publishService) createContainer(ctx context.Context, post *models.ScheduledPost, credentials *transfer.Credentials) (string, error) {
	caption := composeCaption(post.Caption, post.Hashtags)

	toolName := ToolCreateContainer
	args := map[string]interface{}{
		"igUserId": credentials.IGUserID,
	}

	switch post.ContentType {
	case models.ContentTypePhoto:
		media, err := s.media.Normalize(ctx, post.MediaURL)
		if err != nil {
			return "", err
		}
		args["imageUrl"] = media.URL
		args["caption"] = caption

	case models.ContentTypeStory:
		// Stories carry no caption field on the platform.
		media, err := s.media.Normalize(ctx, post.MediaURL)
		if err != nil {
			return "", err
		}
		args["imageUrl"] = media.URL
		args["mediaType"] = "STORIES"

	case models.ContentTypeReel:
		media, err := s.media.Normalize(ctx, post.MediaURL)
		if err != nil {
			return "", err
		}
		args["videoUrl"] = media.URL
		args["caption"] = caption
		args["mediaType"] = "REELS"

	case models.ContentTypeCarousel:
		imageURLs, videoURLs, err := s.media.NormalizeAll(ctx, post.CarouselMediaURLs)
		if err != nil {
			return "", err
		}
		if len(imageURLs)+len(videoURLs) < 2 {
			return "", fmt.Errorf("%w: carousel requires at least 2 items", ErrPreconditionFailed)
		}
		toolName = ToolCreateCarouselContainer
		args["caption"] = caption
		args["childImageUrls"] = imageURLs
		args["childVideoUrls"] = videoURLs

	default:
		return "", fmt.Errorf("%w: unknown content type %q", ErrPreconditionFailed, post.ContentType)
	}

	data, err := s.gw.Call(ctx, toolName, credentials.AccessToken, args)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	var result transfer.ContainerResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("error parsing container response: %w", err)
	}
	if result.ContainerID == "" {
		return "", fmt.Errorf("no container id returned from gateway: %s", string(data))
	}

	return result.ContainerID, nil
}

// pollContainer waits for the container to finish processing, one status query
// per tick up to the attempt budget. A transient query failure is logged and
// retried on the next tick but still consumes budget, bounding total wait.
func (s *publishService) pollContainer(ctx context.Context, containerID string, credentials *transfer.Credentials, budget int) error {
	interval := time.Duration(s.cfg.Publishing.PollIntervalSeconds) * time.Second

	for attempt := 0; attempt < budget; attempt++ {
		time.Sleep(interval)

		data, err := s.gw.Call(ctx, ToolContainerStatus, credentials.AccessToken, map[string]interface{}{
			"containerId": containerID,
		})
		if err != nil {
			slog.Info(fmt.Sprintf("container status query failed for %s: %v", containerID, err))
			continue
		}

		var result transfer.ContainerStatusResult
		if err := json.Unmarshal(data, &result); err != nil {
			slog.Info(err.Error())
			continue
		}

		switch result.Status {
		case transfer.ContainerStatusReady:
			return nil
		case transfer.ContainerStatusError:
			return fmt.Errorf("%w: container %s", ErrPlatformRejected, containerID)
		}
	}

	return fmt.Errorf("%w: container %s after %d attempts", ErrPollTimeout, containerID, budget)
}

// publishContainer issues the final go-live call for a ready container.
func (s *publishService) publishContainer(ctx context.Context, contentType, containerID string, credentials *transfer.Credentials) (string, error) {
	toolName := ToolPublish
	if contentType == models.ContentTypeCarousel {
		toolName = ToolPublishCarousel
	}

	data, err := s.gw.Call(ctx, toolName, credentials.AccessToken, map[string]interface{}{
		"igUserId":    credentials.IGUserID,
		"containerId": containerID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish container: %w", err)
	}

	var result transfer.PublishToolResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("error parsing publish response: %w", err)
	}
	if result.MediaID == "" {
		return "", fmt.Errorf("no media id returned from gateway: %s", string(data))
	}

	return result.MediaID, nil
}

func composeCaption(caption string, hashtags []string) string {
	if len(hashtags) == 0 {
		return caption
	}
	tags := strings.Join(hashtags, " ")
	if caption == "" {
		return tags
	}
	return caption + "\n\n" + tags
}
