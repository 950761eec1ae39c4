// internal/handlers/holding.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propshare/propshare-backend/internal/services"
	"github.com/propshare/propshare-backend/internal/utils"
)

type HoldingHandler struct {
	holdingsService *services.HoldingsService
}

func NewHoldingHandler(holdingsService *services.HoldingsService) *HoldingHandler {
	return &HoldingHandler{
		holdingsService: holdingsService,
	}
}

// GET /properties/:id/holdings
func (h *HoldingHandler) ListHoldings(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid property ID", nil)
		return
	}

	params := utils.GetPaginationParams(c)
	holdings, total, err := h.holdingsService.ListHoldings(c.Request.Context(), propertyID, params.Offset(), params.Limit)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(holdings, total, params))
}

// GET /properties/:id/holdings/me
func (h *HoldingHandler) GetMyHolding(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	holderID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid property ID", nil)
		return
	}

	holding, err := h.holdingsService.GetHolding(c.Request.Context(), propertyID, holderID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, holding)
}

// POST /holdings/transfer
func (h *HoldingHandler) Transfer(c *gin.Context) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	fromHolderID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req services.TransferTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.holdingsService.Transfer(c.Request.Context(), fromHolderID, &req); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Transfer completed"})
}
