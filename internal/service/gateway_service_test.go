package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	config "github.com/marketloom/autopost/configs"
	"github.com/marketloom/autopost/internal/transfer"
)

func TestGatewayCallSuccess(t *testing.T) {
	var gotReq transfer.ToolCallRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(transfer.ToolCallResponse{
			Success: true,
			Data:    json.RawMessage(`{"containerId":"cid123"}`),
		})
	}))
	defer srv.Close()

	svc := NewGatewayService(config.Config{GatewayBaseURL: srv.URL})
	data, err := svc.Call(context.Background(), ToolCreateContainer, "token-1", map[string]interface{}{
		"igUserId": "ig-1",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"containerId":"cid123"}`, string(data))
	require.Equal(t, "Bearer token-1", gotAuth)
	require.Equal(t, ToolCreateContainer, gotReq.ToolName)
	require.Equal(t, "ig-1", gotReq.Arguments["igUserId"])
}

func TestGatewayCallErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transfer.ToolCallResponse{Success: false, Error: "media not found"})
	}))
	defer srv.Close()

	svc := NewGatewayService(config.Config{GatewayBaseURL: srv.URL})
	_, err := svc.Call(context.Background(), ToolPublish, "token-1", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "media not found")
}

func TestGatewayCallUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewGatewayService(config.Config{GatewayBaseURL: srv.URL})
	_, err := svc.Call(context.Background(), ToolPublish, "stale-token", nil)
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestGatewayCallRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewGatewayService(config.Config{GatewayBaseURL: srv.URL})
	_, err := svc.Call(context.Background(), ToolContainerStatus, "token-1", nil)
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestGatewayCallUnconfigured(t *testing.T) {
	svc := NewGatewayService(config.Config{})
	_, err := svc.Call(context.Background(), ToolPublish, "token-1", nil)
	require.ErrorIs(t, err, ErrConfiguration)
}
