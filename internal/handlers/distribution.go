// internal/handlers/distribution.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propshare/propshare-backend/internal/services"
	"github.com/propshare/propshare-backend/internal/utils"
)

type DistributionHandler struct {
	distributionService *services.DistributionService
	paymentService      *services.PaymentService
}

func NewDistributionHandler(distributionService *services.DistributionService, paymentService *services.PaymentService) *DistributionHandler {
	return &DistributionHandler{
		distributionService: distributionService,
		paymentService:      paymentService,
	}
}

// POST /distributions
func (h *DistributionHandler) DistributeRevenue(c *gin.Context) {
	var req services.DistributeRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.distributionService.DistributeRevenue(c.Request.Context(), &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// POST /distributions/:id/retry
func (h *DistributionHandler) RetryFailed(c *gin.Context) {
	distributionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid distribution ID", nil)
		return
	}

	result, err := h.distributionService.RetryFailed(c.Request.Context(), distributionID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /distributions/:id
func (h *DistributionHandler) GetDistribution(c *gin.Context) {
	distributionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid distribution ID", nil)
		return
	}

	distribution, err := h.distributionService.GetDistribution(c.Request.Context(), distributionID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, distribution)
}

// GET /distributions/:id/payments
func (h *DistributionHandler) ListPayments(c *gin.Context) {
	distributionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid distribution ID", nil)
		return
	}

	payments, err := h.distributionService.ListPayments(c.Request.Context(), distributionID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"payments": payments})
}

// POST /payments/:id/paid
func (h *DistributionHandler) MarkPaymentPaid(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID", nil)
		return
	}

	var req services.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	payment, err := h.paymentService.MarkPaid(c.Request.Context(), paymentID, req.ExternalReference)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /payments/:id
func (h *DistributionHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID", nil)
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}
