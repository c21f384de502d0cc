package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/account"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/metrics"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

// RegisterRequest is the local signup payload.
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	CompanyName     string `json:"company_name" binding:"required"`
	CompanyEmail    string `json:"company_email" binding:"required,email"`
}

// LoginRequest is the local login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		user, err := s.accounts.Register(c.Request.Context(), account.RegisterInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			CompanyName:     req.CompanyName,
			CompanyEmail:    req.CompanyEmail,
		})
		if err != nil {
			if ve, ok := account.AsValidationError(err); ok {
				utils.ValidationErrorResponse(c, "Validation failed", ve.Fields)
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to complete registration")
			return
		}

		metrics.Registrations.Inc()
		utils.CreatedResponse(c, "User registered. Please confirm your email before login.", gin.H{
			"id":       user.ID,
			"username": user.Username,
		})
	}
}

func (s *Server) handleVerifyEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		err := s.accounts.VerifyEmail(c.Request.Context(), req.Token)
		switch {
		case errors.Is(err, account.ErrNotFound):
			utils.NotFoundResponse(c, "Invalid token")
		case errors.Is(err, account.ErrExpired):
			utils.GoneResponse(c, "Token expired, request a new one")
		case err != nil:
			utils.InternalServerErrorResponse(c, "Failed to verify email")
		default:
			metrics.EmailVerifications.Inc()
			utils.OKResponse(c, "Email verified, account is active", nil)
		}
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var user models.User
		err := s.db.Preload("Company").Where("username = ?", req.Username).First(&user).Error
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}
		if !user.IsActive {
			utils.ForbiddenResponse(c, "Account is not active, verify your email first")
			return
		}

		pair, err := utils.IssueTokenPair(s.cfg.JWTSecret, &user, s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to issue tokens")
			return
		}

		go func(id interface{}) {
			now := time.Now()
			s.db.Model(&models.User{}).Where("id = ?", id).Update("last_login_at", now)
		}(user.ID)

		utils.OKResponse(c, "Login successful", gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"expires_in":    pair.ExpiresIn,
			"token_type":    pair.TokenType,
			"user":          profilePayload(&user),
		})
	}
}

func (s *Server) handleRefreshToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		_, userID, err := utils.ParseToken(s.cfg.JWTSecret, req.RefreshToken, utils.TokenTypeRefresh)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid refresh token")
			return
		}

		var user models.User
		if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
			utils.UnauthorizedResponse(c, "Invalid refresh token")
			return
		}
		if !user.IsActive {
			utils.ForbiddenResponse(c, "Account is not active")
			return
		}

		pair, err := utils.IssueTokenPair(s.cfg.JWTSecret, &user, s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to issue tokens")
			return
		}

		utils.OKResponse(c, "Token refreshed successfully", gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"expires_in":    pair.ExpiresIn,
			"token_type":    pair.TokenType,
		})
	}
}

func (s *Server) handlePasswordResetRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if err := s.accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to process request")
			return
		}

		// Same answer whether or not the email matched an account.
		utils.OKResponse(c, "If the email is registered, a reset token has been sent", nil)
	}
}

func (s *Server) handlePasswordResetConfirm() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token       string `json:"token" binding:"required"`
			NewPassword string `json:"new_password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		err := s.accounts.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword)
		switch {
		case errors.Is(err, account.ErrNotFound):
			utils.NotFoundResponse(c, "Invalid token")
		case errors.Is(err, account.ErrExpired):
			utils.GoneResponse(c, "Token expired, request a new one")
		case err != nil:
			if ve, ok := account.AsValidationError(err); ok {
				utils.ValidationErrorResponse(c, "Validation failed", ve.Fields)
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to reset password")
		default:
			metrics.PasswordResets.Inc()
			utils.OKResponse(c, "Password updated", nil)
		}
	}
}

func profilePayload(user *models.User) gin.H {
	payload := gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"role":        user.Role,
		"is_active":   user.IsActive,
		"date_joined": user.DateJoined,
	}
	if user.Company != nil {
		payload["company"] = gin.H{"id": user.Company.ID, "name": user.Company.Name}
	} else {
		payload["company"] = nil
	}
	return payload
}
