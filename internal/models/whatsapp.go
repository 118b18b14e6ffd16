package models

import (
	"time"

	"gorm.io/datatypes"
)

// Provider names accepted in whatsapp_config.provider.
const (
	ProviderZPro       = "zpro"
	ProviderZAPI       = "z-api"
	ProviderEvolution  = "evolution"
	ProviderWPPConnect = "wppconnect"
	ProviderMeta       = "meta"
)

// WhatsAppConfig selects the gateway used for outbound messages. Only the
// active row is read, fresh on every dispatch.
type WhatsAppConfig struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Provider         string    `gorm:"type:varchar(30);not null" json:"provider"`
	APIURL           string    `gorm:"column:api_url;type:text" json:"api_url"`
	APIKey           string    `gorm:"column:api_key;type:text" json:"-"`
	InstanceID       string    `gorm:"type:varchar(255)" json:"instance_id"`
	UseOfficialAPI   bool      `gorm:"default:false" json:"use_official_api"`
	UseWabaTemplates bool      `gorm:"default:false" json:"use_waba_templates"`
	IsActive         bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WhatsAppConfig) TableName() string {
	return "whatsapp_config"
}

// WhatsAppTemplate is a message skeleton. A nil CondominiumID marks the
// global definition; WABA fields are only honoured on the global row.
type WhatsAppTemplate struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	Slug             string                      `gorm:"type:varchar(100);index;not null" json:"slug"`
	CondominiumID    *string                     `gorm:"type:varchar(36);index" json:"condominium_id"`
	Name             string                      `gorm:"type:varchar(255)" json:"name"`
	Content          string                      `gorm:"type:text" json:"content"`
	WabaTemplateName string                      `gorm:"type:varchar(255)" json:"waba_template_name"`
	WabaLanguage     string                      `gorm:"type:varchar(20);default:'pt_BR'" json:"waba_language"`
	WabaNamedParams  bool                        `gorm:"default:false" json:"waba_named_params"`
	ParamsOrder      datatypes.JSONSlice[string] `json:"params_order"`
	ButtonConfig     datatypes.JSON              `json:"button_config"`
	IsActive         bool                        `gorm:"default:true" json:"is_active"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WhatsAppTemplate) TableName() string {
	return "whatsapp_templates"
}

// Delivery statuses shared by every notification log table.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
	StatusPending   = "pending"
	StatusUnknown   = "unknown"
)

// WhatsAppNotificationLog is the audit row of a package or generic send.
type WhatsAppNotificationLog struct {
	ID              string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CondominiumID   string         `gorm:"type:varchar(36);index" json:"condominium_id"`
	PackageID       *string        `gorm:"type:varchar(36);index" json:"package_id"`
	ResidentID      *string        `gorm:"type:varchar(36)" json:"resident_id"`
	Phone           string         `gorm:"type:varchar(30)" json:"phone"`
	TemplateSlug    string         `gorm:"type:varchar(100)" json:"template_slug"`
	TemplateName    string         `gorm:"type:varchar(255)" json:"template_name"`
	Provider        string         `gorm:"type:varchar(30)" json:"provider"`
	Strategy        string         `gorm:"type:varchar(30)" json:"strategy"`
	RequestPayload  datatypes.JSON `json:"request_payload"`
	ResponsePayload datatypes.JSON `json:"response_payload"`
	Success         bool           `json:"success"`
	MessageID       string         `gorm:"type:varchar(255);index" json:"message_id"`
	ErrorMessage    string         `gorm:"type:text" json:"error_message"`
	ErrorCode       string         `gorm:"type:varchar(50)" json:"error_code"`
	Status          string         `gorm:"type:varchar(20)" json:"status"`
	DeliveredAt     *time.Time     `json:"delivered_at"`
	ReadAt          *time.Time     `json:"read_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WhatsAppNotificationLog) TableName() string {
	return "whatsapp_notification_logs"
}

// NotificationSent records occurrence related messages (new occurrence,
// decision, defense). SecureLinkToken backs the public occurrence link.
type NotificationSent struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	OccurrenceID    string     `gorm:"type:varchar(36);index" json:"occurrence_id"`
	ResidentID      *string    `gorm:"type:varchar(36)" json:"resident_id"`
	Kind            string     `gorm:"type:varchar(30)" json:"kind"`
	Phone           string     `gorm:"type:varchar(30)" json:"phone"`
	MessageContent  string     `gorm:"type:text" json:"message_content"`
	SecureLinkToken string     `gorm:"type:varchar(64);index" json:"secure_link_token"`
	Strategy        string     `gorm:"type:varchar(30)" json:"strategy"`
	Success         bool       `json:"success"`
	MessageID       string     `gorm:"type:varchar(255);index" json:"message_id"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message"`
	Status          string     `gorm:"type:varchar(20)" json:"status"`
	SentAt          time.Time  `json:"sent_at"`
	DeliveredAt     *time.Time `json:"delivered_at"`
	ReadAt          *time.Time `json:"read_at"`
}

func (NotificationSent) TableName() string {
	return "notifications_sent"
}

type PartyHallNotification struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID        string     `gorm:"type:varchar(36);index" json:"booking_id"`
	ResidentID       string     `gorm:"type:varchar(36)" json:"resident_id"`
	NotificationType string     `gorm:"type:varchar(30)" json:"notification_type"`
	Phone            string     `gorm:"type:varchar(30)" json:"phone"`
	MessageContent   string     `gorm:"type:text" json:"message_content"`
	Strategy         string     `gorm:"type:varchar(30)" json:"strategy"`
	Success          bool       `json:"success"`
	MessageID        string     `gorm:"type:varchar(255);index" json:"message_id"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message"`
	Status           string     `gorm:"type:varchar(20)" json:"status"`
	SentAt           time.Time  `json:"sent_at"`
	DeliveredAt      *time.Time `json:"delivered_at"`
	ReadAt           *time.Time `json:"read_at"`
}

func (PartyHallNotification) TableName() string {
	return "party_hall_notifications"
}

// All lists every model for AutoMigrate and the maintenance tools.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&UserRole{},
		&Condominium{},
		&CondominiumPorter{},
		&Block{},
		&Apartment{},
		&Resident{},
		&PackageType{},
		&Package{},
		&Subscription{},
		&Occurrence{},
		&OccurrenceDefense{},
		&PartyHallBooking{},
		&WhatsAppConfig{},
		&WhatsAppTemplate{},
		&WhatsAppNotificationLog{},
		&NotificationSent{},
		&PartyHallNotification{},
	}
}
