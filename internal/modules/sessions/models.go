package sessions

import "time"

// Vessel caps how many divers a session can carry. Sessions without a
// vessel are shore dives with no capacity limit.
type Vessel struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	OperatorID  string    `gorm:"type:char(36);not null;index:ix_vessels_operator_id" json:"operator_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	MaxCapacity int       `gorm:"not null" json:"max_capacity"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Vessel) TableName() string { return "vessels" }

// DiveSession is one scheduled dive on an operator's itinerary.
// PricePerDiver is a major-unit decimal string; it is only read when a
// booking takes its pricing snapshot, never re-applied to existing bookings.
type DiveSession struct {
	ID            string     `gorm:"type:char(36);primaryKey" json:"id"`
	OperatorID    string     `gorm:"type:char(36);not null;index:ix_dive_sessions_operator_id" json:"operator_id"`
	DiveDatetime  time.Time  `gorm:"not null" json:"dive_datetime"`
	Site          string     `gorm:"type:varchar(255);not null" json:"site"`
	VesselID      *string    `gorm:"type:char(36);index:ix_dive_sessions_vessel_id" json:"vessel_id,omitempty"`
	PricePerDiver string     `gorm:"type:varchar(32);not null" json:"price_per_diver"`
	Currency      string     `gorm:"type:char(3);not null" json:"currency"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (DiveSession) TableName() string { return "dive_sessions" }

func (s *DiveSession) Cancelled() bool { return s.CancelledAt != nil }
