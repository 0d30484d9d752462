package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one extracted statement row. Amount carries the canonical
// sign convention: expenses are stored non-positive, income non-negative.
type Transaction struct {
	ID         uint      `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint      `gorm:"index;not null"`
	DocumentID uint      `gorm:"index;not null"`
	Document   Document  `gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	Date          time.Time       `gorm:"not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Description   string          `gorm:"size:255;not null"`
	Type          string          `gorm:"size:8;not null;index"`
	Category      string          `gorm:"size:64;not null;index"`
	SummaryLine   bool            `gorm:"default:false"`
	AccountSuffix string          `gorm:"size:8"`
}
