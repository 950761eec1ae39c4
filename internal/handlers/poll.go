// internal/handlers/poll.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propshare/propshare-backend/internal/services"
	"github.com/propshare/propshare-backend/internal/utils"
)

type PollHandler struct {
	pollService *services.PollService
	voteService *services.VoteService
}

func NewPollHandler(pollService *services.PollService, voteService *services.VoteService) *PollHandler {
	return &PollHandler{
		pollService: pollService,
		voteService: voteService,
	}
}

// POST /polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	creatorID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req services.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	poll, err := h.pollService.CreatePoll(c.Request.Context(), creatorID, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, poll)
}

// GET /polls/:id
func (h *PollHandler) GetPoll(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid poll ID", nil)
		return
	}

	poll, err := h.pollService.GetPoll(c.Request.Context(), pollID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, poll)
}

// GET /polls?investment_group_id=...
func (h *PollHandler) ListPolls(c *gin.Context) {
	groupID, err := uuid.Parse(c.Query("investment_group_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid investment group ID", nil)
		return
	}

	params := utils.GetPaginationParams(c)
	polls, total, err := h.pollService.ListPolls(c.Request.Context(), groupID, params.Offset(), params.Limit)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(polls, total, params))
}

// GET /polls/:id/votes
func (h *PollHandler) ListVotes(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid poll ID", nil)
		return
	}

	votes, err := h.pollService.ListVotes(c.Request.Context(), pollID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"votes": votes})
}

// POST /polls/:id/votes
func (h *PollHandler) CastVote(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	voterID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid poll ID", nil)
		return
	}

	var req services.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.voteService.CastVote(c.Request.Context(), pollID, voterID, req.Vote)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /polls/expire
func (h *PollHandler) ExpirePolls(c *gin.Context) {
	expired, err := h.pollService.ExpirePolls(c.Request.Context())
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"expired": expired})
}
