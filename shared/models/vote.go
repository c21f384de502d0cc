package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteStatus tracks the lifecycle of a vote
type VoteStatus string

const (
	// VoteStatusDraft allows a vote without a voter or nominee yet
	VoteStatusDraft VoteStatus = "DRAFT"
	// VoteStatusFinalized requires both voter and nominee
	VoteStatusFinalized VoteStatus = "FINALIZED"
)

// Vote nominates a colleague for an award inside a competition. Tenancy is
// derived as vote.competition.creator.company. Voter and nominee stay null
// only while the vote is a draft.
type Vote struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	CompetitionID uuid.UUID  `json:"competition_id" gorm:"type:uuid;not null;index"`
	Title         string     `json:"title" gorm:"not null"`
	Description   string     `json:"description"`
	Award         string     `json:"award"`
	IsPublic      bool       `json:"is_public" gorm:"default:true"`
	Status        VoteStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`
	VoterID       *uuid.UUID `json:"voter_id" gorm:"type:uuid;index"`
	NomineeID     *uuid.UUID `json:"nominee_id" gorm:"type:uuid;index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	Competition *Competition `json:"competition,omitempty" gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE"`
	Voter       *User        `json:"voter,omitempty" gorm:"foreignKey:VoterID;constraint:OnDelete:CASCADE"`
	Nominee     *User        `json:"nominee,omitempty" gorm:"foreignKey:NomineeID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Vote model
func (Vote) TableName() string {
	return "votes"
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = VoteStatusDraft
	}
	return nil
}

// CanFinalize reports whether the vote has everything a finalized vote needs.
func (v *Vote) CanFinalize() bool {
	return v.VoterID != nil && v.NomineeID != nil
}
