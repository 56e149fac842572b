package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleReseller = "reseller"
)

// Money is a decimal currency amount that serializes as a string with
// exactly two fraction digits ("150.00", never "150"). Decoding
// accepts whatever decimal accepts.
type Money struct {
	decimal.Decimal
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Balance      Money     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Plan struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Cost         Money  `json:"cost"`
	DurationDays int    `json:"duration_days"`
	DownloadLink string `json:"download_link"`
}

// PlanListing is a plan joined with its product's name, as shown on
// the admin and reseller panels.
type PlanListing struct {
	Plan
	ProductName string `json:"product_name"`
}

type Purchase struct {
	ID         int64     `json:"id"`
	ResellerID int64     `json:"reseller_id"`
	PlanID     int64     `json:"plan_id"`
	CostPaid   Money     `json:"cost_paid"`
	Reference  string    `json:"reference"`
	CreatedAt  time.Time `json:"created_at"`
}

// PurchaseHistoryEntry is a purchase joined with its plan and product
// names for the reseller's history view.
type PurchaseHistoryEntry struct {
	Purchase
	PlanName    string `json:"plan_name"`
	ProductName string `json:"product_name"`
}

type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusUploading BackupStatus = "uploading"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// Backup records one encrypted database snapshot uploaded to object
// storage.
type Backup struct {
	ID           int64        `json:"id"`
	Filename     string       `json:"filename"`
	S3Key        string       `json:"s3_key"`
	SizeBytes    int64        `json:"size_bytes"`
	Status       BackupStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Cents converts a currency amount to integer cents for storage.
// Amounts are persisted as cents so balance arithmetic stays exact
// and can be done in SQL.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts stored integer cents back to a currency amount.
func FromCents(c int64) Money {
	return Money{decimal.NewFromInt(c).Shift(-2)}
}
