package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	config "github.com/marketloom/autopost/configs"
	"github.com/marketloom/autopost/internal/models"
	"github.com/marketloom/autopost/internal/transfer"
)

type fakeCreds struct {
	creds *transfer.Credentials
	err   error
}

func (f *fakeCreds) Resolve(ctx context.Context, post *models.ScheduledPost) (*transfer.Credentials, error) {
	return f.creds, f.err
}

type gwCall struct {
	tool  string
	token string
	args  map[string]interface{}
}

type fakeGateway struct {
	calls   []gwCall
	handler func(tool string, args map[string]interface{}) (json.RawMessage, error)
}

func (f *fakeGateway) Call(ctx context.Context, toolName, accessToken string, args map[string]interface{}) (json.RawMessage, error) {
	f.calls = append(f.calls, gwCall{tool: toolName, token: accessToken, args: args})
	return f.handler(toolName, args)
}

func publishConfig() config.Config {
	cfg := mediaConfig()
	cfg.Publishing.PollIntervalSeconds = 0
	cfg.Publishing.PollBudgetSingle = 3
	cfg.Publishing.PollBudgetCarousel = 5
	return cfg
}

func newPublishFixture(gw *fakeGateway) PublishService {
	cfg := publishConfig()
	creds := &fakeCreds{creds: &transfer.Credentials{AccessToken: "token-1", IGUserID: "ig-1"}}
	media := NewMediaService(cfg, &fakeStorage{})
	return NewPublishService(cfg, creds, media, gw)
}

func happyGateway(status string) *fakeGateway {
	return &fakeGateway{handler: func(tool string, args map[string]interface{}) (json.RawMessage, error) {
		switch tool {
		case ToolCreateContainer, ToolCreateCarouselContainer:
			return json.RawMessage(`{"containerId":"cid123"}`), nil
		case ToolContainerStatus:
			return json.RawMessage(`{"status":"` + status + `"}`), nil
		default:
			return json.RawMessage(`{"mediaId":"mediaId456"}`), nil
		}
	}}
}

func TestPublishPhotoHappyPath(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusReady)
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ID:          1,
		ContentType: models.ContentTypePhoto,
		Caption:     "hello",
		Hashtags:    []string{"#go", "#testing"},
		MediaURL:    "https://example.com/a.jpg",
	}
	mediaID, err := svc.PublishPost(context.Background(), post)
	require.NoError(t, err)
	require.Equal(t, "mediaId456", mediaID)

	require.Len(t, gw.calls, 3)
	create := gw.calls[0]
	require.Equal(t, ToolCreateContainer, create.tool)
	require.Equal(t, "token-1", create.token)
	require.Equal(t, "https://example.com/a.jpg", create.args["imageUrl"])
	require.Equal(t, "hello\n\n#go #testing", create.args["caption"])

	require.Equal(t, ToolContainerStatus, gw.calls[1].tool)
	require.Equal(t, "cid123", gw.calls[1].args["containerId"])

	publish := gw.calls[2]
	require.Equal(t, ToolPublish, publish.tool)
	require.Equal(t, "cid123", publish.args["containerId"])
	require.Equal(t, "ig-1", publish.args["igUserId"])
}

func TestPublishStoryOmitsCaption(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusReady)
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypeStory,
		Caption:     "never sent",
		MediaURL:    "https://example.com/a.jpg",
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.NoError(t, err)

	create := gw.calls[0]
	require.NotContains(t, create.args, "caption")
	require.Equal(t, "STORIES", create.args["mediaType"])
}

func TestPublishReelUsesVideoURL(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusReady)
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypeReel,
		Caption:     "clip",
		MediaURL:    "https://example.com/clip.mp4",
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.NoError(t, err)

	create := gw.calls[0]
	require.Equal(t, "https://example.com/clip.mp4", create.args["videoUrl"])
	require.Equal(t, "REELS", create.args["mediaType"])
	require.NotContains(t, create.args, "imageUrl")
}

func TestPublishCarousel(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusReady)
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypeCarousel,
		Caption:     "mixed",
		CarouselMediaURLs: []string{
			"https://example.com/1.jpg",
			"https://example.com/2.mp4",
		},
	}
	mediaID, err := svc.PublishPost(context.Background(), post)
	require.NoError(t, err)
	require.Equal(t, "mediaId456", mediaID)

	create := gw.calls[0]
	require.Equal(t, ToolCreateCarouselContainer, create.tool)
	require.Equal(t, []string{"https://example.com/1.jpg"}, create.args["childImageUrls"])
	require.Equal(t, []string{"https://example.com/2.mp4"}, create.args["childVideoUrls"])
	require.Equal(t, ToolPublishCarousel, gw.calls[len(gw.calls)-1].tool)
}

func TestPublishCarouselRequiresTwoItems(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusReady)
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType:       models.ContentTypeCarousel,
		CarouselMediaURLs: []string{"https://example.com/only.jpg"},
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.ErrorIs(t, err, ErrPreconditionFailed)
	require.Contains(t, err.Error(), "carousel requires at least 2 items")
	require.Empty(t, gw.calls)
}

func TestPublishContainerRejected(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusError)
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypePhoto,
		MediaURL:    "https://example.com/a.jpg",
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.ErrorIs(t, err, ErrPlatformRejected)
}

func TestPublishPollBudgetExhausted(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusInProgress)
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypePhoto,
		MediaURL:    "https://example.com/a.jpg",
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.ErrorIs(t, err, ErrPollTimeout)
	// One create call plus exactly the single-media budget of status queries.
	require.Len(t, gw.calls, 1+publishConfig().Publishing.PollBudgetSingle)
}

func TestPublishTransientStatusErrorsConsumeBudget(t *testing.T) {
	gw := &fakeGateway{handler: func(tool string, args map[string]interface{}) (json.RawMessage, error) {
		if tool == ToolContainerStatus {
			return nil, errors.New("connection reset")
		}
		return json.RawMessage(`{"containerId":"cid123"}`), nil
	}}
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypePhoto,
		MediaURL:    "https://example.com/a.jpg",
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.ErrorIs(t, err, ErrPollTimeout)
}

func TestPublishMissingContainerID(t *testing.T) {
	gw := &fakeGateway{handler: func(tool string, args map[string]interface{}) (json.RawMessage, error) {
		return json.RawMessage(`{"unexpected":"shape"}`), nil
	}}
	svc := newPublishFixture(gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypePhoto,
		MediaURL:    "https://example.com/a.jpg",
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no container id returned")
	require.Contains(t, err.Error(), `"unexpected":"shape"`)
}

func TestPublishNoCredentialsMakesNoGatewayCalls(t *testing.T) {
	gw := happyGateway(transfer.ContainerStatusReady)
	cfg := publishConfig()
	creds := &fakeCreds{err: ErrNoCredentials}
	svc := NewPublishService(cfg, creds, NewMediaService(cfg, &fakeStorage{}), gw)

	post := &models.ScheduledPost{
		ContentType: models.ContentTypePhoto,
		MediaURL:    "https://example.com/a.jpg",
	}
	_, err := svc.PublishPost(context.Background(), post)
	require.ErrorIs(t, err, ErrNoCredentials)
	require.Empty(t, gw.calls)
}
