package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/config"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
)

// EnsureAdmin creates the initial administrator and default company from
// environment configuration. It is a no-op when any elevated account
// already exists, so repeated startups are safe.
func EnsureAdmin(db *gorm.DB, cfg *config.Config) error {
	var count int64
	err := db.Model(&models.User{}).
		Where("is_superuser = ? OR role = ?", true, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check for existing administrator: %w", err)
	}
	if count > 0 {
		logrus.Info("administrator already exists, skipping bootstrap")
		return nil
	}

	if cfg.AdminPassword == "" {
		logrus.Warn("ADMIN_PASSWORD not set, skipping administrator bootstrap")
		return nil
	}

	company, created, err := models.GetOrCreateCompany(db, cfg.AdminCompany)
	if err != nil {
		return fmt.Errorf("get or create default company: %w", err)
	}
	if created {
		logrus.WithField("company", company.Name).Info("created default company")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash administrator password: %w", err)
	}

	admin := models.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CompanyID:    &company.ID,
		IsActive:     true,
		IsSuperuser:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"username": admin.Username,
		"company":  company.Name,
	}).Info("created administrator account")
	return nil
}
