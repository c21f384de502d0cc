package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/events"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/metrics"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/middleware"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/models"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/scope"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/utils"
)

// CreateVoteRequest creates a vote. Voter and nominee are optional while the
// vote is a draft; both must resolve inside the requester's company.
type CreateVoteRequest struct {
	CompetitionID string `json:"competition_id" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	Award         string `json:"award"`
	IsPublic      *bool  `json:"is_public"`
	VoterID       string `json:"voter_id"`
	NomineeID     string `json:"nominee_id"`
}

// UpdateVoteRequest updates vote fields. Finalized votes stay immutable.
type UpdateVoteRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Award       *string `json:"award"`
	IsPublic    *bool   `json:"is_public"`
	VoterID     *string `json:"voter_id"`
	NomineeID   *string `json:"nominee_id"`
}

// resolveParticipant looks up a voter or nominee through the tenant scope, so
// a vote can never reference a user outside the requester's company.
func (s *Server) resolveParticipant(requester *models.User, rawID string) (*uuid.UUID, bool) {
	if rawID == "" {
		return nil, true
	}
	participant, err := scope.FindUser(s.db, requester, rawID)
	if err != nil {
		return nil, false
	}
	return &participant.ID, true
}

func (s *Server) handleListVotes() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		query := s.db.Scopes(scope.VotesFor(requester)).
			Preload("Voter").
			Preload("Nominee")
		if competitionID := c.Query("competition_id"); competitionID != "" {
			query = query.Where("votes.competition_id = ?", competitionID)
		}

		var votes []models.Vote
		if err := query.Find(&votes).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch votes")
			return
		}
		utils.OKResponse(c, "Votes retrieved", votes)
	}
}

func (s *Server) handleCreateVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		var req CreateVoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		// The competition must be visible to the requester; cross-tenant
		// ids look identical to unknown ones.
		competition, err := scope.FindCompetition(s.db, requester, req.CompetitionID)
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Competition not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch competition")
			return
		}

		voterID, ok := s.resolveParticipant(requester, req.VoterID)
		if !ok {
			utils.NotFoundResponse(c, "Voter not found")
			return
		}
		nomineeID, ok := s.resolveParticipant(requester, req.NomineeID)
		if !ok {
			utils.NotFoundResponse(c, "Nominee not found")
			return
		}

		vote := models.Vote{
			CompetitionID: competition.ID,
			Title:         req.Title,
			Description:   req.Description,
			Award:         req.Award,
			IsPublic:      true,
			Status:        models.VoteStatusDraft,
			VoterID:       voterID,
			NomineeID:     nomineeID,
		}
		if req.IsPublic != nil {
			vote.IsPublic = *req.IsPublic
		}
		if err := s.db.Create(&vote).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create vote")
			return
		}
		utils.CreatedResponse(c, "Vote created", vote)
	}
}

func (s *Server) handleGetVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		vote, err := scope.FindVote(s.db.Preload("Voter").Preload("Nominee"), requester, c.Param("id"))
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Vote not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch vote")
			return
		}
		utils.OKResponse(c, "Vote retrieved", vote)
	}
}

func (s *Server) handleUpdateVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		vote, err := scope.FindVote(s.db, requester, c.Param("id"))
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Vote not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch vote")
			return
		}
		if vote.Status == models.VoteStatusFinalized {
			utils.BadRequestResponse(c, "Finalized votes cannot be modified")
			return
		}

		var req UpdateVoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Title != nil {
			vote.Title = *req.Title
		}
		if req.Description != nil {
			vote.Description = *req.Description
		}
		if req.Award != nil {
			vote.Award = *req.Award
		}
		if req.IsPublic != nil {
			vote.IsPublic = *req.IsPublic
		}
		if req.VoterID != nil {
			voterID, ok := s.resolveParticipant(requester, *req.VoterID)
			if !ok {
				utils.NotFoundResponse(c, "Voter not found")
				return
			}
			vote.VoterID = voterID
		}
		if req.NomineeID != nil {
			nomineeID, ok := s.resolveParticipant(requester, *req.NomineeID)
			if !ok {
				utils.NotFoundResponse(c, "Nominee not found")
				return
			}
			vote.NomineeID = nomineeID
		}

		if err := s.db.Save(vote).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update vote")
			return
		}
		utils.OKResponse(c, "Vote updated", vote)
	}
}

func (s *Server) handleDeleteVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		vote, err := scope.FindVote(s.db, requester, c.Param("id"))
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Vote not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch vote")
			return
		}

		if err := s.db.Delete(vote).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete vote")
			return
		}
		utils.OKResponse(c, "Vote deleted", nil)
	}
}

func (s *Server) handleFinalizeVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := middleware.GetUserFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}

		vote, err := scope.FindVote(s.db, requester, c.Param("id"))
		if err == gorm.ErrRecordNotFound {
			utils.NotFoundResponse(c, "Vote not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch vote")
			return
		}
		if vote.Status == models.VoteStatusFinalized {
			utils.OKResponse(c, "Vote already finalized", vote)
			return
		}
		if !vote.CanFinalize() {
			utils.BadRequestResponse(c, "Vote needs a voter and a nominee before it can be finalized")
			return
		}

		vote.Status = models.VoteStatusFinalized
		if err := s.db.Model(vote).Update("status", models.VoteStatusFinalized).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to finalize vote")
			return
		}

		metrics.VotesFinalized.Inc()
		s.producer.PublishVoteCast(events.VoteCastEvent{
			VoteID:        vote.ID,
			CompetitionID: vote.CompetitionID,
			VoterID:       *vote.VoterID,
			NomineeID:     *vote.NomineeID,
			Timestamp:     time.Now().UTC(),
		})
		utils.OKResponse(c, "Vote finalized", vote)
	}
}
