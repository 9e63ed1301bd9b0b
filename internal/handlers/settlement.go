// internal/handlers/settlement.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/relicense/ledger-backend/internal/services"
	"github.com/relicense/ledger-backend/internal/utils"
)

type SettlementHandler struct {
	settlementService *services.SettlementService
	eventService      *services.EventService
}

func NewSettlementHandler(settlementService *services.SettlementService, eventService *services.EventService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		eventService:      eventService,
	}
}

// POST /purchases
func (h *SettlementHandler) Buy(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.settlementService.Buy(caller, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// POST /payments/direct
func (h *SettlementHandler) DirectPay(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.DirectPayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	split, err := h.settlementService.DirectPay(caller, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, split)
}

// GET /events
func (h *SettlementHandler) GetEvents(c *gin.Context) {
	if _, exists := utils.GetAccountFromContext(c); !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	events, err := h.eventService.List(c.Query("kind"), params.Limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, events)
}
