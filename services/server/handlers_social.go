package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/events"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/metrics"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

// correlationCookie carries the continuation key across the provider
// redirect. The provider's state parameter echoes the same value but is
// treated as untrusted/best-effort; the cookie is the durable carrier.
const correlationCookie = "onboarding_correlation"

func (s *Server) handleSocialLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawState := c.Query("state")

		correlationID, err := s.assigner.BeginLogin(c.Request.Context(), rawState)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to start social login")
			return
		}

		c.SetCookie(correlationCookie, correlationID,
			int(s.cfg.IntentTTL/time.Second), "/", "", false, true)
		c.Redirect(http.StatusFound, s.provider.AuthorizeURL(correlationID))
	}
}

func (s *Server) handleSocialCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			utils.BadRequestResponse(c, "Missing authorization code")
			return
		}

		correlationID, err := c.Cookie(correlationCookie)
		if err != nil || correlationID == "" {
			// The provider may still echo the state parameter; use it as a
			// fallback carrier.
			correlationID = c.Query("state")
		}
		// Clear the continuation cookie on every outcome so a later
		// unrelated login cannot replay this intent.
		c.SetCookie(correlationCookie, "", -1, "/", "", false, true)

		identity, err := s.provider.Exchange(c.Request.Context(), code)
		if err != nil {
			logrus.WithError(err).Error("identity provider exchange failed")
			utils.ServiceUnavailableResponse(c, "Identity provider unavailable")
			return
		}

		result, err := s.assigner.CompleteLogin(c.Request.Context(), correlationID, identity)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to complete social login")
			return
		}

		metrics.SocialLogins.Inc()
		if result.Assigned {
			metrics.TenantAssignments.Inc()
			s.producer.PublishTenantAssigned(events.TenantAssignedEvent{
				UserID:    result.User.ID,
				Username:  result.User.Username,
				CompanyID: result.Company.ID,
				Role:      result.User.Role,
				Timestamp: time.Now(),
			})
		}
		if result.Failed {
			metrics.TenantAssignmentFailures.Inc()
		}

		pair, err := utils.IssueTokenPair(s.cfg.JWTSecret, result.User, s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to issue tokens")
			return
		}

		payload := gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"expires_in":    pair.ExpiresIn,
			"token_type":    pair.TokenType,
			"user":          profilePayload(result.User),
		}
		if result.Company != nil {
			payload["company"] = gin.H{"id": result.Company.ID, "name": result.Company.Name}
		}
		utils.OKResponse(c, "Login successful", payload)
	}
}
