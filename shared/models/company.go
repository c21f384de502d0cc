package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the root of tenancy. Every onboarded non-admin user belongs to
// exactly one company; competitions and votes are scoped to it through their
// ownership chain.
type Company struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Users []User `json:"users,omitempty" gorm:"foreignKey:CompanyID"`
}

// TableName returns the table name for the Company model
func (Company) TableName() string {
	return "companies"
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// GetOrCreateCompany fetches the company with the given name, creating it if
// absent. Concurrent callers racing on the same name are resolved by the
// unique index: a losing insert re-reads the winner's row, so exactly one row
// per name ever exists.
func GetOrCreateCompany(db *gorm.DB, name string) (*Company, bool, error) {
	var company Company
	err := db.Where("name = ?", name).First(&company).Error
	if err == nil {
		return &company, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	company = Company{Name: name}
	if createErr := db.Create(&company).Error; createErr != nil {
		// Lost the race: the unique name constraint rejected the insert.
		if retryErr := db.Where("name = ?", name).First(&company).Error; retryErr != nil {
			return nil, false, createErr
		}
		return &company, false, nil
	}
	return &company, true, nil
}
