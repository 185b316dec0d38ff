package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	config "github.com/marketloom/autopost/configs"
	"github.com/marketloom/autopost/internal/transfer"
)

const (
	ToolCreateContainer         = "instagram_create_container"
	ToolCreateCarouselContainer = "instagram_create_carousel_container"
	ToolContainerStatus         = "instagram_container_status"
	ToolPublish                 = "instagram_publish"
	ToolPublishCarousel         = "instagram_publish_carousel"
)

// GatewayService speaks the remote tool-execution protocol: one logical
// operation per POST, bearer-authenticated with the resolved account token.
type GatewayService interface {
	Call(ctx context.Context, toolName, accessToken string, args map[string]interface{}) (json.RawMessage, error)
}

type gatewayService struct {
	cfg    config.Config
	client *http.Client
}

func NewGatewayService(cfg config.Config) GatewayService {
	return &gatewayService{cfg: cfg, client: http.DefaultClient}
}

func (g *gatewayService) Call(ctx context.Context, toolName, accessToken string, args map[string]interface{}) (json.RawMessage, error) {
	if g.cfg.GatewayBaseURL == "" {
		return nil, fmt.Errorf("%w: gateway base URL is empty", ErrConfiguration)
	}

	reqBody := transfer.ToolCallRequest{
		ToolName:  toolName,
		Arguments: args,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling tool call: %w", err)
	}

	url := g.cfg.GatewayBaseURL + "/tools/call"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, toolName)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, toolName)
	default:
		return nil, fmt.Errorf("unexpected status code from gateway: %d (%s)", resp.StatusCode, toolName)
	}

	var result transfer.ToolCallResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing gateway response: %w", err)
	}
	if !result.Success {
		if result.Error == "" {
			result.Error = string(respBody)
		}
		return nil, fmt.Errorf("gateway error on %s: %s", toolName, result.Error)
	}

	return result.Data, nil
}
