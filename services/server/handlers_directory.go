package main

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/middleware"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/scope"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

func (s *Server) handleListCompanies() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		var companies []models.Company
		if err := s.db.Scopes(scope.CompaniesFor(requester)).Find(&companies).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch companies")
			return
		}
		utils.OKResponse(c, "Companies retrieved", companies)
	}
}

func (s *Server) handleGetCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		var company models.Company
		err = s.db.Scopes(scope.CompaniesFor(requester)).
			Where("companies.id = ?", c.Param("id")).
			First(&company).Error
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Company not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch company")
			return
		}
		utils.OKResponse(c, "Company retrieved", company)
	}
}

func (s *Server) handleListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		var users []models.User
		if err := s.db.Scopes(scope.UsersFor(requester)).Find(&users).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch users")
			return
		}

		payload := make([]gin.H, len(users))
		for i := range users {
			payload[i] = gin.H{
				"id":         users[i].ID,
				"username":   users[i].Username,
				"email":      users[i].Email,
				"first_name": users[i].FirstName,
				"last_name":  users[i].LastName,
				"role":       users[i].Role,
				"company_id": users[i].CompanyID,
				"is_active":  users[i].IsActive,
			}
		}
		utils.OKResponse(c, "Users retrieved", payload)
	}
}

// handleUpdateUserRole lets an administrator change a user's role after
// onboarding.
func (s *Server) handleUpdateUserRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Role models.UserRole `json:"role" binding:"required,oneof=ADMIN COMPANY_ADMIN COMMON_USER"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format. Role must be ADMIN, COMPANY_ADMIN or COMMON_USER")
			return
		}

		var user models.User
		if err := s.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
			utils.NotFoundResponse(c, "User not found")
			return
		}

		if err := s.db.Model(&user).Update("role", req.Role).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update role")
			return
		}
		utils.OKResponse(c, "Role updated", gin.H{"id": user.ID, "role": req.Role})
	}
}
