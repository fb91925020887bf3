// internal/workers/leasing/notify-underwriting/models.go
package notifyunderwriting

import "lease-risk-workers/internal/models"

type Input struct {
	models.Decision
	Priority string `json:"priority"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"notificationStatus"`
	Channels       []string `json:"notificationChannels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

const (
	StatusSent    = "SENT"
	StatusSkipped = "SKIPPED"
	StatusFailed  = "FAILED"

	ChannelEmail = "email"
	ChannelSNS   = "sns"

	PriorityHigh   = "high"
	PriorityNormal = "normal"
)
