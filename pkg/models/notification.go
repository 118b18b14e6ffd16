package models

// PackageArrivalRequest is the body of notify-package-arrival.
type PackageArrivalRequest struct {
	PackageID   string `json:"package_id"`
	ApartmentID string `json:"apartment_id"`
	PickupCode  string `json:"pickup_code"`
}

// ResidentDecisionRequest is the body of notify-resident-decision.
type ResidentDecisionRequest struct {
	OccurrenceID  string   `json:"occurrence_id"`
	Decision      string   `json:"decision"`
	Justification string   `json:"justification,omitempty"`
	FineAmount    *float64 `json:"fine_amount,omitempty"`
}

// SindicoDefenseRequest is the body of notify-sindico-defense.
type SindicoDefenseRequest struct {
	OccurrenceID string `json:"occurrence_id"`
	DefenseID    string `json:"defense_id,omitempty"`
}

// PartyHallRequest is the body of send-party-hall-notification.
type PartyHallRequest struct {
	BookingID        string `json:"booking_id"`
	NotificationType string `json:"notification_type"` // confirmation, reminder, cancellation
}

// OccurrenceNotificationRequest is the body of send-whatsapp-notification.
type OccurrenceNotificationRequest struct {
	OccurrenceID string `json:"occurrence_id"`
}

// TestConnectionRequest is the body of test-whatsapp-connection.
type TestConnectionRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message,omitempty"`
}

// NotificationSummary is the aggregate answer of every dispatch endpoint.
type NotificationSummary struct {
	Success             bool                `json:"success"`
	NotificationsSent   int                 `json:"notifications_sent"`
	NotificationsFailed int                 `json:"notifications_failed"`
	Excluded            []ExcludedRecipient `json:"excluded"`
	Details             []RecipientResult   `json:"details"`
	Message             string              `json:"message,omitempty"`
}

// RecipientResult is the final outcome for one recipient.
type RecipientResult struct {
	ResidentID string `json:"resident_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone"`
	Success    bool   `json:"success"`
	MessageID  string `json:"message_id,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// ExcludedRecipient is someone who could not be messaged at all.
type ExcludedRecipient struct {
	ResidentID string `json:"resident_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Reason     string `json:"reason"`
}

// TestConnectionResult reports the raw vendor outcome of a test send.
type TestConnectionResult struct {
	Success    bool   `json:"success"`
	Provider   string `json:"provider"`
	Phone      string `json:"phone"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// LogQuery filters the delivery log listing.
type LogQuery struct {
	CondominiumID string `form:"condominium_id"`
	Status        string `form:"status"`
	Limit         int    `form:"limit"`
}
