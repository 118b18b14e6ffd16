package models

import (
	"time"
)

// Role names stored in user_roles.
const (
	RoleSuperAdmin = "super_admin"
	RoleSindico    = "sindico"
	RolePorteiro   = "porteiro"
	RoleMorador    = "morador"
)

// Profile is the application-side row of an authenticated user
type Profile struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FullName  string    `gorm:"type:varchar(255)" json:"full_name"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

type UserRole struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Role   string `gorm:"type:varchar(30);not null" json:"role"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// Condominium is the tenant. SindicoID points at the managing profile.
type Condominium struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	SindicoID string    `gorm:"type:varchar(36);index" json:"sindico_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Condominium) TableName() string {
	return "condominiums"
}

// CondominiumPorter links a doorman profile to a condominium
type CondominiumPorter struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	CondominiumID string `gorm:"type:varchar(36);index;not null" json:"condominium_id"`
}

func (CondominiumPorter) TableName() string {
	return "porter_condominiums"
}

type Block struct {
	ID            string `gorm:"type:varchar(36);primaryKey" json:"id"`
	CondominiumID string `gorm:"type:varchar(36);index;not null" json:"condominium_id"`
	Name          string `gorm:"type:varchar(100)" json:"name"`
}

func (Block) TableName() string {
	return "blocks"
}

type Apartment struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	BlockID string `gorm:"type:varchar(36);index;not null" json:"block_id"`
	Number  string `gorm:"type:varchar(20)" json:"number"`
}

func (Apartment) TableName() string {
	return "apartments"
}

type Resident struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ApartmentID   string    `gorm:"type:varchar(36);index;not null" json:"apartment_id"`
	UserID        *string   `gorm:"type:varchar(36);index" json:"user_id"`
	FullName      string    `gorm:"type:varchar(255)" json:"full_name"`
	Phone         string    `gorm:"type:varchar(30)" json:"phone"`
	Email         string    `gorm:"type:varchar(255)" json:"email"`
	IsOwner       bool      `json:"is_owner"`
	IsResponsible bool      `json:"is_responsible"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Resident) TableName() string {
	return "residents"
}

type PackageType struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100)" json:"name"`
}

func (PackageType) TableName() string {
	return "package_types"
}

// Package is a parcel registered by the doorman for an apartment
type Package struct {
	ID                 string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CondominiumID      string     `gorm:"type:varchar(36);index" json:"condominium_id"`
	ApartmentID        string     `gorm:"type:varchar(36);index;not null" json:"apartment_id"`
	PackageTypeID      *string    `gorm:"type:varchar(36)" json:"package_type_id"`
	TrackingCode       string     `gorm:"type:varchar(100)" json:"tracking_code"`
	PickupCode         string     `gorm:"type:varchar(20)" json:"pickup_code"`
	PhotoURL           string     `gorm:"type:text" json:"photo_url"`
	ReceivedBy         *string    `gorm:"type:varchar(36)" json:"received_by"`
	ReceivedAt         time.Time  `json:"received_at"`
	Status             string     `gorm:"type:varchar(20);default:'pendente'" json:"status"`
	NotificationSent   bool       `gorm:"default:false" json:"notification_sent"`
	NotificationSentAt *time.Time `json:"notification_sent_at"`
	NotificationCount  int        `gorm:"default:0" json:"notification_count"`
}

func (Package) TableName() string {
	return "packages"
}

// Subscription carries the plan usage counters of a condominium.
type Subscription struct {
	ID                        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CondominiumID             string    `gorm:"type:varchar(36);index;not null" json:"condominium_id"`
	Status                    string    `gorm:"type:varchar(20);default:'active'" json:"status"`
	PackageNotificationsLimit int       `gorm:"default:0" json:"package_notifications_limit"`
	PackageNotificationsUsed  int       `gorm:"default:0" json:"package_notifications_used"`
	PackageNotificationsExtra int       `gorm:"default:0" json:"package_notifications_extra"`
	UpdatedAt                 time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Occurrence is an incident (warning or fine) registered against an apartment
type Occurrence struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CondominiumID string     `gorm:"type:varchar(36);index;not null" json:"condominium_id"`
	ApartmentID   string     `gorm:"type:varchar(36);index;not null" json:"apartment_id"`
	Title         string     `gorm:"type:varchar(255)" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Type          string     `gorm:"type:varchar(30)" json:"type"`
	Status        string     `gorm:"type:varchar(30)" json:"status"`
	FineAmount    *float64   `json:"fine_amount"`
	OccurredAt    *time.Time `json:"occurred_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Occurrence) TableName() string {
	return "occurrences"
}

type OccurrenceDefense struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OccurrenceID string    `gorm:"type:varchar(36);index;not null" json:"occurrence_id"`
	ResidentID   string    `gorm:"type:varchar(36);index" json:"resident_id"`
	Content      string    `gorm:"type:text" json:"content"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (OccurrenceDefense) TableName() string {
	return "defenses"
}

type PartyHallBooking struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CondominiumID string    `gorm:"type:varchar(36);index;not null" json:"condominium_id"`
	ResidentID    string    `gorm:"type:varchar(36);index;not null" json:"resident_id"`
	BookingDate   time.Time `gorm:"index" json:"booking_date"`
	StartTime     string    `gorm:"type:varchar(5)" json:"start_time"`
	EndTime       string    `gorm:"type:varchar(5)" json:"end_time"`
	Status        string    `gorm:"type:varchar(20)" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PartyHallBooking) TableName() string {
	return "party_hall_bookings"
}
