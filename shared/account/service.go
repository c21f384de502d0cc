// Package account implements local registration, email verification, and
// password reset on top of the tenant store.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/mailer"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
)

// Service carries the registration and verification flows.
type Service struct {
	db              *gorm.DB
	mailer          mailer.Mailer
	policy          PasswordPolicy
	verificationTTL time.Duration
}

// NewService creates an account service. verificationTTL bounds how long
// issued tokens stay redeemable.
func NewService(db *gorm.DB, m mailer.Mailer, policy PasswordPolicy, verificationTTL time.Duration) *Service {
	if verificationTTL <= 0 {
		verificationTTL = 24 * time.Hour
	}
	return &Service{db: db, mailer: m, policy: policy, verificationTTL: verificationTTL}
}

// RegisterInput is the local signup request.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	CompanyName     string
	CompanyEmail    string
}

// Register creates an inactive COMMON_USER inside a fetched-or-created
// company and mails a verification token. The account stays inactive until
// the token is redeemed.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Password != in.PasswordConfirm {
		return nil, newValidationError("password_confirm", "passwords do not match")
	}
	if err := s.policy.Validate(in.Password); err != nil {
		return nil, newValidationError("password", err.Error())
	}

	db := s.db.WithContext(ctx)

	var existing models.User
	if err := db.Where("username = ?", in.Username).First(&existing).Error; err == nil {
		return nil, newValidationError("username", "username already exists")
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check username: %w", err)
	}

	company, _, err := models.GetOrCreateCompany(db, in.CompanyName)
	if err != nil {
		return nil, fmt.Errorf("get or create company: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		Role:         models.RoleCommonUser,
		CompanyID:    &company.ID,
		IsActive:     false,
	}

	verification := models.EmailVerification{
		Purpose:   models.PurposeSignup,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.verificationTTL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		verification.UserID = user.ID
		if err := tx.Create(&verification).Error; err != nil {
			return fmt.Errorf("create verification: %w", err)
		}
		return nil
	})
	if err != nil {
		// A concurrent registration can slip past the pre-check and lose
		// to the unique username index here; report it the same way.
		var count int64
		db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count)
		if count > 0 {
			return nil, newValidationError("username", "username already exists")
		}
		return nil, err
	}

	s.sendAsync(user.Email, "Confirm your email",
		verificationEmailHTML(user.Username, verification.Token),
		verificationEmailText(verification.Token))

	logrus.WithFields(logrus.Fields{
		"username": user.Username,
		"company":  company.Name,
	}).Info("user registered, pending email verification")
	return &user, nil
}

// VerifyEmail redeems a signup token and activates the account. Redeeming an
// already-verified token answers success again; the activation itself
// happens at most once.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	db := s.db.WithContext(ctx)

	var verification models.EmailVerification
	err := db.Where("token = ? AND purpose = ?", token, models.PurposeSignup).First(&verification).Error
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup verification: %w", err)
	}
	if verification.IsExpired() {
		return ErrExpired
	}
	if verification.IsVerified {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", verification.UserID).
			Update("is_active", true).Error; err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		if err := tx.Model(&verification).Update("is_verified", true).Error; err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
		return nil
	})
}

// RequestPasswordReset creates or refreshes a reset token and mails it. It
// reports success whether or not the email matches an account, so existence
// cannot be probed.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		logrus.WithField("email", email).Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	verification := models.EmailVerification{
		UserID:    user.ID,
		Purpose:   models.PurposePasswordReset,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.verificationTTL),
	}

	// One reset record per user: reuse the row, refreshing token and expiry.
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing models.EmailVerification
		lookupErr := tx.Where("user_id = ? AND purpose = ?", user.ID, models.PurposePasswordReset).
			First(&existing).Error
		if lookupErr == nil {
			return tx.Model(&existing).Updates(map[string]interface{}{
				"token":       verification.Token,
				"expires_at":  verification.ExpiresAt,
				"is_verified": false,
			}).Error
		}
		if lookupErr != gorm.ErrRecordNotFound {
			return lookupErr
		}
		return tx.Create(&verification).Error
	})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.sendAsync(user.Email, "Reset your password",
		resetEmailHTML(user.Username, verification.Token),
		resetEmailText(verification.Token))
	return nil
}

// ConfirmPasswordReset redeems a reset token, sets the new password, and
// deletes the token record so it is single-use.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := s.policy.Validate(newPassword); err != nil {
		return newValidationError("new_password", err.Error())
	}

	db := s.db.WithContext(ctx)

	var verification models.EmailVerification
	err := db.Where("token = ? AND purpose = ?", token, models.PurposePasswordReset).First(&verification).Error
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if verification.IsExpired() {
		return ErrExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", verification.UserID).
			Update("password_hash", string(hash)).Error; err != nil {
			return fmt.Errorf("set password: %w", err)
		}
		if err := tx.Delete(&verification).Error; err != nil {
			return fmt.Errorf("consume reset token: %w", err)
		}
		return nil
	})
}

// sendAsync fires email delivery in the background with a bounded timeout.
// Failures are logged, never propagated to the caller.
func (s *Service) sendAsync(to, subject, htmlBody, textBody string) {
	if s.mailer == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
			logrus.WithFields(logrus.Fields{
				"to":    to,
				"error": err,
			}).Error("failed to deliver email")
		}
	}()
}
