package service

import "context"

// NotificationService defines the interface for push notification delivery.
// Used as a fallback channel when a user has no live realtime connection.
type NotificationService interface {
	// SendSingleNotification sends a push notification to a single device token.
	SendSingleNotification(ctx context.Context, token, title, body string, data map[string]string) error

	// SendTopicNotification sends a push notification to every device
	// subscribed to the topic. Used with per-user topics when the user has
	// no live realtime connection.
	SendTopicNotification(ctx context.Context, topic, title, body string, data map[string]string) error
}
