package models

import "time"

// MetaWebhookPayload is the Cloud API notification envelope. Only the
// delivery statuses are read; inbound messages are ignored.
type MetaWebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Value struct {
				MessagingProduct string `json:"messaging_product"`
				Metadata         struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
					PhoneNumberID      string `json:"phone_number_id"`
				} `json:"metadata"`
				Statuses []MetaStatus `json:"statuses,omitempty"`
			} `json:"value"`
			Field string `json:"field"`
		} `json:"changes"`
	} `json:"entry"`
}

type MetaStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientId string `json:"recipient_id"`
}

// StatusUpdate is one normalized delivery status extracted from a webhook.
type StatusUpdate struct {
	Provider  string `json:"provider"`
	MessageID string `json:"message_id"`
	RawStatus string `json:"raw_status"`
	Status    string `json:"status"`
}

// WebhookResponse is always returned with HTTP 200.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Updated int64  `json:"updated"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusEvent is pushed to connected dashboards when a log row changes.
type StatusEvent struct {
	Type      string    `json:"type"`
	MessageID string    `json:"message_id"`
	Status    string    `json:"status"`
	Provider  string    `json:"provider,omitempty"`
	Updated   int64     `json:"updated"`
	At        time.Time `json:"at"`
}
