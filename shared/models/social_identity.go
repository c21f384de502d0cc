package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SocialIdentity links a provider account to a local user. Social logins
// resolve through this table, never through the local username namespace, so
// a provider login can not capture a locally registered account that happens
// to share its name.
type SocialIdentity struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Provider      string    `json:"provider" gorm:"not null;uniqueIndex:idx_social_provider_login"`
	ProviderLogin string    `json:"provider_login" gorm:"not null;uniqueIndex:idx_social_provider_login"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time `json:"created_at"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the SocialIdentity model
func (SocialIdentity) TableName() string {
	return "social_identities"
}

func (s *SocialIdentity) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
