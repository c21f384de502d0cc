package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the coarse permission level of an account
type UserRole string

const (
	// RoleAdmin is a platform administrator, unrestricted by tenancy
	RoleAdmin UserRole = "ADMIN"
	// RoleCompanyAdmin administers a single company
	RoleCompanyAdmin UserRole = "COMPANY_ADMIN"
	// RoleCommonUser is a regular company member
	RoleCommonUser UserRole = "COMMON_USER"
)

// User represents an account. CompanyID is null only transiently (before
// onboarding completes) or for platform admins.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"index"`
	PasswordHash string     `json:"-" gorm:"not null"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'COMMON_USER'"`
	CompanyID    *uuid.UUID `json:"company_id" gorm:"type:uuid;index"`
	IsActive     bool       `json:"is_active" gorm:"default:false"`
	IsSuperuser  bool       `json:"is_superuser" gorm:"default:false"`
	DateJoined   time.Time  `json:"date_joined" gorm:"autoCreateTime"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	// Relationships
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsElevated reports whether the user bypasses tenant filtering.
func (u *User) IsElevated() bool {
	return u.IsSuperuser || u.Role == RoleAdmin
}

// CanAccessCompany reports whether the user may read data belonging to the
// given company.
func (u *User) CanAccessCompany(companyID uuid.UUID) bool {
	if u.IsElevated() {
		return true
	}
	return u.CompanyID != nil && *u.CompanyID == companyID
}
