package models

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	Topic      string `json:"topic"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	StepName   string `json:"step_name"`
}

type CompletedEvent struct {
	Topic     string `json:"topic"`
	SubjectID int64  `json:"subject_id"`
}

type ErrorEvent struct {
	Topic        string `json:"topic"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type AskRequest struct {
	Prompt      string   `json:"prompt" validate:"required"`
	System      string   `json:"system"`
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   string            `json:"details,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
