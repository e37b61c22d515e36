package model

// ToolInvocationResult is the terminal outcome of one tool's retry sequence.
// Intermediate attempts are never persisted; Retries counts the attempts
// beyond the first.
type ToolInvocationResult struct {
	Success        bool           `json:"success"`
	Payload        map[string]any `json:"payload,omitempty"`
	Error          string         `json:"error,omitempty"`
	RetryPermitted bool           `json:"retry_permitted"`
	Retries        int            `json:"retries"`
}
