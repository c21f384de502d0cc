package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/middleware"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/scope"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

// CreateCompetitionRequest creates a competition. The creator is always the
// requester, which pins the competition to the requester's company.
type CreateCompetitionRequest struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// UpdateCompetitionRequest updates competition fields.
type UpdateCompetitionRequest struct {
	Name      *string    `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (s *Server) handleListCompetitions() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		var competitions []models.Competition
		err = s.db.Scopes(scope.CompetitionsFor(requester)).
			Preload("Creator").
			Find(&competitions).Error
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch competitions")
			return
		}
		utils.OKResponse(c, "Competitions retrieved", competitions)
	}
}

func (s *Server) handleCreateCompetition() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}
		if requester.CompanyID == nil && !requester.IsElevated() {
			utils.ForbiddenResponse(c, "Join a company before creating competitions")
			return
		}

		var req CreateCompetitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		competition := models.Competition{
			Name:      req.Name,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			CreatorID: &requester.ID,
		}
		if err := s.db.Create(&competition).Error; err != nil {
			if errors.Is(err, models.ErrInvalidDateRange) {
				utils.ValidationErrorResponse(c, "Validation failed",
					map[string]string{"end_date": "end date precedes start date"})
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to create competition")
			return
		}
		utils.CreatedResponse(c, "Competition created", competition)
	}
}

func (s *Server) handleGetCompetition() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		competition, err := scope.FindCompetition(s.db.Preload("Creator"), requester, c.Param("id"))
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Competition not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch competition")
			return
		}
		utils.OKResponse(c, "Competition retrieved", competition)
	}
}

func (s *Server) handleUpdateCompetition() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		competition, err := scope.FindCompetition(s.db, requester, c.Param("id"))
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Competition not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch competition")
			return
		}

		var req UpdateCompetitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Name != nil {
			competition.Name = *req.Name
		}
		if req.StartDate != nil {
			competition.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			competition.EndDate = *req.EndDate
		}

		if err := s.db.Save(competition).Error; err != nil {
			if errors.Is(err, models.ErrInvalidDateRange) {
				utils.ValidationErrorResponse(c, "Validation failed",
					map[string]string{"end_date": "end date precedes start date"})
				return
			}
			utils.InternalServerErrorResponse(c, "Failed to update competition")
			return
		}
		utils.OKResponse(c, "Competition updated", competition)
	}
}

func (s *Server) handleDeleteCompetition() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		competition, err := scope.FindCompetition(s.db, requester, c.Param("id"))
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Competition not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch competition")
			return
		}

		// Votes cascade with their competition.
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("competition_id = ?", competition.ID).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			return tx.Delete(competition).Error
		})
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete competition")
			return
		}
		utils.OKResponse(c, "Competition deleted", nil)
	}
}
