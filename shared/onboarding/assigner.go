package onboarding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/oauth"
)

// Assigner runs the tenant-assignment state machine around a social login.
type Assigner struct {
	db    *gorm.DB
	store IntentStore
}

// Result describes how a completed social login ended.
type Result struct {
	User    *models.User
	Company *models.Company
	// Assigned is true when this call wrote a company and role to the user.
	Assigned bool
	// Failed is true when a join intent named a company that does not exist.
	// The user stays authenticated without a company; this is a terminal
	// outcome, not an error.
	Failed bool
}

// NewAssigner creates an assigner over the store and database.
func NewAssigner(db *gorm.DB, store IntentStore) *Assigner {
	return &Assigner{db: db, store: store}
}

// BeginLogin parses the caller's intent and parks it under a fresh
// correlation id. Unrecognized intents are accepted and logged; they just
// never produce an assignment.
func (a *Assigner) BeginLogin(ctx context.Context, rawState string) (string, error) {
	intent := ParseIntent(rawState)
	if intent.Kind == IntentNone && rawState != "" {
		logrus.WithField("state", rawState).Info("unrecognized onboarding intent, no tenant assignment will happen")
	}

	correlationID := uuid.New().String()
	if err := a.store.Put(ctx, correlationID, intent); err != nil {
		return "", fmt.Errorf("stash intent: %w", err)
	}
	return correlationID, nil
}

// CompleteLogin resumes the state machine on the provider callback: it
// finds or creates the user for the authenticated identity, consumes the
// parked intent, and commits the company and role assignment. A second call
// for the same correlation id finds the intent already consumed and assigns
// nothing, so a retried callback can never downgrade the user.
func (a *Assigner) CompleteLogin(ctx context.Context, correlationID string, identity *oauth.Identity) (*Result, error) {
	user, err := a.findOrCreateUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	result := &Result{User: user}

	intent, found, err := a.store.Consume(ctx, correlationID)
	if err != nil {
		return nil, fmt.Errorf("recover intent: %w", err)
	}
	if !found {
		logrus.WithFields(logrus.Fields{
			"username":       user.Username,
			"correlation_id": correlationID,
		}).Info("no pending onboarding intent, leaving tenant untouched")
		return result, nil
	}

	switch intent.Kind {
	case IntentCreateCompany:
		company, created, err := models.GetOrCreateCompany(a.db.WithContext(ctx), intent.CompanyName)
		if err != nil {
			return nil, fmt.Errorf("get or create company: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"company": company.Name,
			"created": created,
		}).Info("resolved create-company intent")
		if err := a.assign(ctx, user, company, models.RoleCompanyAdmin); err != nil {
			return nil, err
		}
		result.Company = company
		result.Assigned = true

	case IntentJoinCompany:
		var company models.Company
		err := a.db.WithContext(ctx).Where("id = ?", intent.CompanyID).First(&company).Error
		if err == gorm.ErrRecordNotFound {
			logrus.WithFields(logrus.Fields{
				"username":   user.Username,
				"company_id": intent.CompanyID,
			}).Warn("join intent names unknown company, user left without a tenant")
			result.Failed = true
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("lookup company: %w", err)
		}
		if err := a.assign(ctx, user, &company, models.RoleCommonUser); err != nil {
			return nil, err
		}
		result.Company = &company
		result.Assigned = true

	default:
		// IntentNone: onboarding finishes without a tenant.
	}

	return result, nil
}

func (a *Assigner) assign(ctx context.Context, user *models.User, company *models.Company, role models.UserRole) error {
	err := a.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"company_id": company.ID,
		"role":       role,
	}).Error
	if err != nil {
		return fmt.Errorf("assign tenant: %w", err)
	}
	user.CompanyID = &company.ID
	user.Role = role

	logrus.WithFields(logrus.Fields{
		"username": user.Username,
		"company":  company.Name,
		"role":     role,
	}).Info("tenant assigned")
	return nil
}

// findOrCreateUser resolves the provider identity to a local account through
// its social-identity link, creating an active COMMON_USER on first login.
// The provider's login name is only a naming hint: a local user with the same
// username is a different account, and the new account gets a de-conflicted
// username instead. Social accounts get an unguessable placeholder password
// hash; local login needs a reset first.
func (a *Assigner) findOrCreateUser(ctx context.Context, identity *oauth.Identity) (*models.User, error) {
	db := a.db.WithContext(ctx)

	if user, err := a.linkedUser(db, identity); err == nil {
		return user, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("lookup social identity: %w", err)
	}

	username, err := availableUsername(db, identity.Login)
	if err != nil {
		return nil, fmt.Errorf("pick username: %w", err)
	}

	placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("generate placeholder password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        identity.Email,
		FirstName:    identity.Name,
		PasswordHash: string(placeholder),
		Role:         models.RoleCommonUser,
		IsActive:     true,
	}
	createErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		link := models.SocialIdentity{
			Provider:      identity.Provider,
			ProviderLogin: identity.Login,
			UserID:        user.ID,
		}
		return tx.Create(&link).Error
	})
	if createErr != nil {
		// Concurrent first login with the same identity: the link's unique
		// index rejected ours, the winner's row carries the user.
		if user, retryErr := a.linkedUser(db, identity); retryErr == nil {
			return user, nil
		}
		return nil, fmt.Errorf("create user: %w", createErr)
	}

	logrus.WithFields(logrus.Fields{
		"username": user.Username,
		"provider": identity.Provider,
		"login":    identity.Login,
	}).Info("created user from social login")
	return &user, nil
}

// linkedUser loads the local account linked to the provider identity.
func (a *Assigner) linkedUser(db *gorm.DB, identity *oauth.Identity) (*models.User, error) {
	var link models.SocialIdentity
	err := db.Where("provider = ? AND provider_login = ?", identity.Provider, identity.Login).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.Where("id = ?", link.UserID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("load linked user: %w", err)
	}
	return &user, nil
}

// availableUsername returns the base name or the first numbered variant not
// already taken by a local account.
func availableUsername(db *gorm.DB, base string) (string, error) {
	username := base
	for i := 2; ; i++ {
		var count int64
		err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return username, nil
		}
		if i > 50 {
			return fmt.Sprintf("%s-%s", base, uuid.New().String()[:8]), nil
		}
		username = fmt.Sprintf("%s-%d", base, i)
	}
}
