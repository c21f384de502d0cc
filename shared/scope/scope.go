// Package scope implements company-scoped query restriction. Every listing
// and detail read over tenant-scoped entities goes through one of these
// scopes instead of re-checking tenancy per endpoint.
package scope

import (
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
)

// CompaniesFor narrows a Company query to the requester's tenant. Elevated
// requesters see everything.
func CompaniesFor(u *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if u.IsElevated() {
			return db
		}
		if u.CompanyID == nil {
			return db.Where("1 = 0")
		}
		return db.Where("companies.id = ?", *u.CompanyID)
	}
}

// UsersFor narrows a User query to the requester's tenant.
func UsersFor(u *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if u.IsElevated() {
			return db
		}
		if u.CompanyID == nil {
			return db.Where("1 = 0")
		}
		return db.Where("users.company_id = ?", *u.CompanyID)
	}
}

// CompetitionsFor narrows a Competition query to the requester's tenant.
// A competition's company is derived through its creator, so creator-less
// competitions are invisible to non-elevated requesters.
func CompetitionsFor(u *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if u.IsElevated() {
			return db
		}
		if u.CompanyID == nil {
			return db.Where("1 = 0")
		}
		return db.
			Joins("JOIN users AS creators ON creators.id = competitions.creator_id").
			Where("creators.company_id = ?", *u.CompanyID)
	}
}

// VotesFor narrows a Vote query to the requester's tenant. The company is
// derived as vote -> competition -> creator -> company.
func VotesFor(u *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if u.IsElevated() {
			return db
		}
		if u.CompanyID == nil {
			return db.Where("1 = 0")
		}
		return db.
			Joins("JOIN competitions ON competitions.id = votes.competition_id").
			Joins("JOIN users AS creators ON creators.id = competitions.creator_id").
			Where("creators.company_id = ?", *u.CompanyID)
	}
}

// FindCompetition fetches a single competition visible to the requester.
// Cross-tenant ids come back as gorm.ErrRecordNotFound, the same as unknown
// ids, so existence does not leak across tenants.
func FindCompetition(db *gorm.DB, requester *models.User, id interface{}) (*models.Competition, error) {
	var competition models.Competition
	err := db.Scopes(CompetitionsFor(requester)).
		Where("competitions.id = ?", id).
		First(&competition).Error
	if err != nil {
		return nil, err
	}
	return &competition, nil
}

// FindVote fetches a single vote visible to the requester.
func FindVote(db *gorm.DB, requester *models.User, id interface{}) (*models.Vote, error) {
	var vote models.Vote
	err := db.Scopes(VotesFor(requester)).
		Where("votes.id = ?", id).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// FindUser fetches a single user visible to the requester. Used when picking
// nominees and voters so cross-tenant references cannot be created.
func FindUser(db *gorm.DB, requester *models.User, id interface{}) (*models.User, error) {
	var user models.User
	err := db.Scopes(UsersFor(requester)).
		Where("users.id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
