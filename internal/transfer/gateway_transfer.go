package transfer

import "encoding/json"

// ToolCallRequest is the envelope for one logical gateway operation.
type ToolCallRequest struct {
	ToolName  string                 `json:"toolName"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolCallResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type ContainerResult struct {
	ContainerID string `json:"containerId"`
}

type ContainerStatusResult struct {
	Status string `json:"status"`
}

type PublishToolResult struct {
	MediaID string `json:"mediaId"`
}

const (
	ContainerStatusReady      = "READY"
	ContainerStatusError      = "ERROR"
	ContainerStatusInProgress = "IN_PROGRESS"
)

// Credentials is the resolved publishing identity for one post.
type Credentials struct {
	AccessToken string
	IGUserID    string
}

type PublishSummary struct {
	Published    int  `json:"published"`
	Failed       int  `json:"failed"`
	Expired      int  `json:"expired"`
	OutsideHours bool `json:"outside_hours,omitempty"`
}

type PublishResult struct {
	Success          bool   `json:"success"`
	MediaID          string `json:"media_id,omitempty"`
	AlreadyPublished bool   `json:"already_published,omitempty"`
	RetryLater       bool   `json:"retry_later,omitempty"`
	Error            string `json:"error,omitempty"`
}
