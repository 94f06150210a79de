package operators

import "time"

// Operator is the tenant. Every read and write in the API is scoped to
// exactly one operator, resolved from the authenticated subject.
type Operator struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	LedgerCurrency string    `gorm:"type:char(3);not null" json:"ledger_currency"`
	AuthSubject    string    `gorm:"type:varchar(128);not null;index:ix_operators_auth_subject" json:"-"`
	Email          string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone          *string   `gorm:"type:varchar(32)" json:"phone,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Operator) TableName() string { return "operators" }
