package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationPurpose distinguishes signup confirmation from password reset
type VerificationPurpose string

const (
	PurposeSignup        VerificationPurpose = "signup"
	PurposePasswordReset VerificationPurpose = "password_reset"
)

// EmailVerification holds a single-use token mailed to a user. Expired rows
// are rejected at redemption time, not proactively purged.
type EmailVerification struct {
	ID         uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID           `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_verification_user_purpose"`
	Purpose    VerificationPurpose `json:"purpose" gorm:"type:varchar(20);not null;default:'signup';uniqueIndex:idx_verification_user_purpose"`
	Token      string              `json:"-" gorm:"uniqueIndex;not null"`
	IsVerified bool                `json:"is_verified" gorm:"default:false"`
	CreatedAt  time.Time           `json:"created_at"`
	ExpiresAt  time.Time           `json:"expires_at" gorm:"not null"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the EmailVerification model
func (EmailVerification) TableName() string {
	return "email_verifications"
}

func (v *EmailVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the token is past its expiry.
func (v *EmailVerification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}
