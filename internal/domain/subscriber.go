package domain

import "time"

// Subscriber is a person who registered a phone number for new-post notifications.
// Phone is the unique identity.
type Subscriber struct {
	ID           string             `json:"id" dynamodbav:"id"`
	Phone        string             `json:"phone" dynamodbav:"phone"`
	Name         string             `json:"name" dynamodbav:"name"`
	SubscribedAt time.Time          `json:"subscribedAt" dynamodbav:"subscribed_at"`
	Metadata     SubscriberMetadata `json:"metadata" dynamodbav:"metadata"`
}

// SubscriberMetadata is optional context captured by the subscribe form.
type SubscriberMetadata struct {
	UserAgent string `json:"userAgent,omitempty" dynamodbav:"user_agent,omitempty" validate:"omitempty,max=512"`
	Locale    string `json:"locale,omitempty" dynamodbav:"locale,omitempty" validate:"omitempty,max=64"`
	Referrer  string `json:"referrer,omitempty" dynamodbav:"referrer,omitempty" validate:"omitempty,max=2048"`
	Source    string `json:"source,omitempty" dynamodbav:"source,omitempty" validate:"omitempty,max=2048"` // page URL where they subscribed
}

type SubscribeRequest struct {
	Phone    string              `json:"phone" validate:"required,min=7"`
	Name     string              `json:"name" validate:"required,min=1,max=100"`
	Metadata *SubscriberMetadata `json:"metadata"`
}
