package account

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
)

func newServiceTest(t *testing.T, ttl time.Duration) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	err = db.AutoMigrate(&models.Company{}, &models.User{}, &models.EmailVerification{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, nil, PasswordPolicy{MinLength: 8}, ttl), db
}

func validRegistration(username string) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "sup3rsecret",
		PasswordConfirm: "sup3rsecret",
		FirstName:       "Pat",
		LastName:        "Doe",
		CompanyName:     "Acme",
	}
}

func signupToken(t *testing.T, db *gorm.DB, userID interface{}) string {
	t.Helper()
	var verification models.EmailVerification
	err := db.Where("user_id = ? AND purpose = ?", userID, models.PurposeSignup).
		First(&verification).Error
	if err != nil {
		t.Fatalf("load signup token: %v", err)
	}
	return verification.Token
}

func TestRegisterCreatesInactiveUser(t *testing.T) {
	svc, db := newServiceTest(t, time.Hour)

	user, err := svc.Register(context.Background(), validRegistration("pat"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.IsActive {
		t.Fatal("new registrations must start inactive")
	}
	if user.Role != models.RoleCommonUser {
		t.Fatalf("role = %s, want %s", user.Role, models.RoleCommonUser)
	}
	if user.CompanyID == nil {
		t.Fatal("registration must attach a company")
	}

	var company models.Company
	if err := db.First(&company, "id = ?", user.CompanyID).Error; err != nil {
		t.Fatalf("load company: %v", err)
	}
	if company.Name != "Acme" {
		t.Fatalf("company name = %q", company.Name)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("sup3rsecret")); err != nil {
		t.Fatal("stored hash does not match the password")
	}

	if token := signupToken(t, db, user.ID); token == "" {
		t.Fatal("registration should issue a verification token")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newServiceTest(t, time.Hour)
	ctx := context.Background()

	mismatch := validRegistration("a")
	mismatch.PasswordConfirm = "different1"
	short := validRegistration("b")
	short.Password, short.PasswordConfirm = "ab1", "ab1"
	noDigits := validRegistration("c")
	noDigits.Password, noDigits.PasswordConfirm = "allletters", "allletters"

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"password mismatch", mismatch, "password_confirm"},
		{"too short", short, "password"},
		{"no digits", noDigits, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			verr, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if _, present := verr.Fields[tc.field]; !present {
				t.Fatalf("expected field %q in %v", tc.field, verr.Fields)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newServiceTest(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration("taken")); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	_, err := svc.Register(ctx, validRegistration("taken"))
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if _, present := verr.Fields["username"]; !present {
		t.Fatalf("expected username field in %v", verr.Fields)
	}
}

// TestRegisterDuplicateUsernameRace drives the window between the username
// pre-check and the insert: another connection claims the name in between, so
// the insert loses on the unique index and the caller still gets the same
// validation error instead of a bare database failure.
func TestRegisterDuplicateUsernameRace(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "accounts.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	err = db.AutoMigrate(&models.Company{}, &models.User{}, &models.EmailVerification{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := NewService(db, nil, PasswordPolicy{MinLength: 8}, time.Hour)

	fired := false
	err = db.Callback().Create().Before("gorm:create").
		Register("test:sneak_in_duplicate", func(tx *gorm.DB) {
			if fired {
				return
			}
			if _, ok := tx.Statement.Dest.(*models.User); !ok {
				return
			}
			fired = true
			db.Exec("INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)",
				uuid.NewString(), "contested", "x")
		})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = svc.Register(context.Background(), validRegistration("contested"))
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if _, present := verr.Fields["username"]; !present {
		t.Fatalf("expected username field in %v", verr.Fields)
	}
	if !fired {
		t.Fatal("conflicting insert never ran")
	}

	var count int64
	db.Model(&models.User{}).Where("username = ?", "contested").Count(&count)
	if count != 1 {
		t.Fatalf("expected a single contested row, got %d", count)
	}
}

func TestVerifyEmailActivates(t *testing.T) {
	svc, db := newServiceTest(t, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration("verifyme"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token := signupToken(t, db, user.ID)

	if err := svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, "id = ?", user.ID)
	if !reloaded.IsActive {
		t.Fatal("verified user should be active")
	}

	// Redeeming the same token again is an idempotent success.
	if err := svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("second verify should succeed, got %v", err)
	}
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	svc, _ := newServiceTest(t, time.Hour)

	err := svc.VerifyEmail(context.Background(), "no-such-token")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	svc, db := newServiceTest(t, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration("late"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token := signupToken(t, db, user.ID)

	err = db.Model(&models.EmailVerification{}).Where("token = ?", token).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("expire token: %v", err)
	}

	err = svc.VerifyEmail(ctx, token)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, "id = ?", user.ID)
	if reloaded.IsActive {
		t.Fatal("expired token must not activate the user")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, db := newServiceTest(t, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration("resetme"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, user.Email); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	var verification models.EmailVerification
	err = db.Where("user_id = ? AND purpose = ?", user.ID, models.PurposePasswordReset).
		First(&verification).Error
	if err != nil {
		t.Fatalf("load reset token: %v", err)
	}

	if err := svc.ConfirmPasswordReset(ctx, verification.Token, "brandnew99"); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}

	var reloaded models.User
	db.First(&reloaded, "id = ?", user.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("brandnew99")); err != nil {
		t.Fatal("password was not updated")
	}

	// The token is single-use.
	err = svc.ConfirmPasswordReset(ctx, verification.Token, "anotherone1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("reused token should report not found, got %v", err)
	}
}

func TestPasswordResetRefreshesToken(t *testing.T) {
	svc, db := newServiceTest(t, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration("again"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, user.Email); err != nil {
		t.Fatalf("first request: %v", err)
	}
	var first models.EmailVerification
	db.Where("user_id = ? AND purpose = ?", user.ID, models.PurposePasswordReset).First(&first)

	if err := svc.RequestPasswordReset(ctx, user.Email); err != nil {
		t.Fatalf("second request: %v", err)
	}
	var count int64
	db.Model(&models.EmailVerification{}).
		Where("user_id = ? AND purpose = ?", user.ID, models.PurposePasswordReset).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single reset row, got %d", count)
	}

	var second models.EmailVerification
	db.Where("user_id = ? AND purpose = ?", user.ID, models.PurposePasswordReset).First(&second)
	if second.Token == first.Token {
		t.Fatal("second request should rotate the token")
	}

	// The first token is dead after the rotate.
	err = svc.ConfirmPasswordReset(ctx, first.Token, "brandnew99")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale token should report not found, got %v", err)
	}
}

func TestPasswordResetUnknownEmailSucceeds(t *testing.T) {
	svc, db := newServiceTest(t, time.Hour)

	if err := svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email should not error, got %v", err)
	}
	var count int64
	db.Model(&models.EmailVerification{}).Count(&count)
	if count != 0 {
		t.Fatalf("unknown email should not create tokens, got %d", count)
	}
}

func TestConfirmPasswordResetPolicy(t *testing.T) {
	svc, _ := newServiceTest(t, time.Hour)

	err := svc.ConfirmPasswordReset(context.Background(), "whatever", "weak")
	if _, ok := AsValidationError(err); !ok {
		t.Fatalf("weak password should fail validation, got %v", err)
	}
}
