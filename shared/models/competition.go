package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidDateRange is returned when a competition would end before it starts
var ErrInvalidDateRange = errors.New("competition end date precedes start date")

// Competition is an award round within a company. Tenancy is derived through
// the creator: competition.company = creator.company.
type Competition struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	StartDate time.Time  `json:"start_date" gorm:"not null"`
	EndDate   time.Time  `json:"end_date" gorm:"not null"`
	CreatorID *uuid.UUID `json:"creator_id" gorm:"type:uuid;index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relationships
	Creator *User  `json:"creator,omitempty" gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL"`
	Votes   []Vote `json:"votes,omitempty" gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Competition model
func (Competition) TableName() string {
	return "competitions"
}

func (c *Competition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return c.ValidateDates()
}

func (c *Competition) BeforeUpdate(tx *gorm.DB) error {
	return c.ValidateDates()
}

// ValidateDates enforces start_date <= end_date.
func (c *Competition) ValidateDates() error {
	if c.EndDate.Before(c.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}
