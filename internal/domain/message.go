package domain

// SendResult is the outcome of one outbound message. Failures are data, not errors.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkSummary aggregates a fan-out send. Errors holds each distinct failure message once.
type BulkSummary struct {
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

type NotifyRequest struct {
	PostID       string `json:"postId" validate:"required"`
	Title        string `json:"title" validate:"required"`
	URL          string `json:"url" validate:"omitempty,url"`
	UseTemplate  *bool  `json:"useTemplate"`
	TemplateName string `json:"templateName"`
}

type NotifyResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
}
