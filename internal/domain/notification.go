package domain

// NotificationPayload is the event handed off to the external Notification
// collaborator on every decision. This subsystem only guarantees the hand-off,
// not delivery.
type NotificationPayload struct {
	UserID   string            `json:"userId"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NotificationTypeVerification tags every payload emitted by this subsystem.
const NotificationTypeVerification = "verification"
