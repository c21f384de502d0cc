package main

import (
	"github.com/gin-gonic/gin"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/middleware"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

func (s *Server) handleGetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}
		utils.OKResponse(c, "Profile retrieved", profilePayload(user))
	}
}

// UpdateProfileRequest covers the self-editable fields. Role and company
// are not among them; those change only through onboarding or an
// administrator.
type UpdateProfileRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (s *Server) handleUpdateProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		updates := map[string]interface{}{}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.FirstName != nil {
			updates["first_name"] = *req.FirstName
		}
		if req.LastName != nil {
			updates["last_name"] = *req.LastName
		}
		if len(updates) == 0 {
			utils.OKResponse(c, "Nothing to update", profilePayload(user))
			return
		}

		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update profile")
			return
		}
		utils.OKResponse(c, "Profile updated", profilePayload(user))
	}
}
