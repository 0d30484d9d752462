package models

import "time"

// Document processing states. A document enters as pending, moves to
// processing while the pipeline holds it, and lands in completed or error.
const (
	DocStatusPending    = "pending"
	DocStatusProcessing = "processing"
	DocStatusCompleted  = "completed"
	DocStatusError      = "error"
)

// Document represents one uploaded statement file and its processing state.
// (UserID, ContentHash) is indexed for the duplicate gate: a byte-identical
// re-upload is detected before any OCR work starts. The index is not unique
// because failed documents keep their row and may be re-submitted.
type Document struct {
	ID          uint      `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint      `gorm:"not null;index:idx_user_hash"`
	PublicID    string    `gorm:"size:36;not null;uniqueIndex"`
	Name        string    `gorm:"size:255;not null"`
	ContentHash string    `gorm:"size:64;not null;index:idx_user_hash"`
	Status      string    `gorm:"size:16;not null;default:pending;index"`
	Duplicate   bool      `gorm:"default:false"`

	// Error holds the failure reason when Status is error; the record is kept
	// so the owner can review and re-submit.
	Error string `gorm:"size:512"`

	Pages            int
	TransactionCount int
	AccountSuffix    string     `gorm:"size:8"`
	PeriodStart      *time.Time `gorm:"index"`
	PeriodEnd        *time.Time `gorm:"index"`

	// DocumentDate is the filename-derived statement date hint, when present.
	DocumentDate *time.Time

	Transactions []Transaction
}
