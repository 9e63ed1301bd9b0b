// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/services"
	"github.com/relicense/ledger-backend/internal/utils"
)

type LicenseHandler struct {
	requestService *services.RequestService
}

func NewLicenseHandler(requestService *services.RequestService) *LicenseHandler {
	return &LicenseHandler{
		requestService: requestService,
	}
}

// POST /requests
func (h *LicenseHandler) PublishRequest(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.PublishRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	requestID, err := h.requestService.PublishRequest(caller, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"request_id": requestID})
}

// POST /requests/:id/approve
func (h *LicenseHandler) ApproveRequest(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	grantID, err := h.requestService.Approve(caller, models.RequestID(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"grant_id": grantID})
}

// POST /requests/:id/cancel
func (h *LicenseHandler) CancelRequest(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.requestService.CancelRequest(caller, models.RequestID(id)); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"request_id": id, "cancelled": true})
}

// GET /requests/incoming
func (h *LicenseHandler) GetIncomingRequests(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	requests, err := h.requestService.PendingForProducer(caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.paginateRequests(c, requests)
}

// GET /requests/outgoing
func (h *LicenseHandler) GetOutgoingRequests(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	requests, err := h.requestService.PendingForPublisher(caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.paginateRequests(c, requests)
}

// GET /grants/:id
func (h *LicenseHandler) GetGrant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	grant, err := h.requestService.GetGrant(models.GrantID(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, services.GrantView{GrantID: models.GrantID(id), LicenseGrant: *grant})
}

// POST /grants/:id/disapprove
func (h *LicenseHandler) DisapproveGrant(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Amount uint64 `json:"amount" validate:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := h.requestService.Disapprove(caller, models.GrantID(id), req.Amount); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"grant_id": id, "returned": req.Amount})
}

// GET /grants/owned
func (h *LicenseHandler) GetOwnedGrants(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	grants, err := h.requestService.GrantsForProducer(caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.paginateGrants(c, grants)
}

// GET /grants/reselling
func (h *LicenseHandler) GetResellingGrants(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	grants, err := h.requestService.GrantsForPublisher(caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.paginateGrants(c, grants)
}

func (h *LicenseHandler) paginateRequests(c *gin.Context, requests []services.RequestView) {
	params := utils.GetPaginationParams(c)
	start, end := params.PageBounds(len(requests))
	result := utils.CreatePaginationResult(requests[start:end], int64(len(requests)), params)
	utils.PaginatedResponse(c, result)
}

func (h *LicenseHandler) paginateGrants(c *gin.Context, grants []services.GrantView) {
	params := utils.GetPaginationParams(c)
	start, end := params.PageBounds(len(grants))
	result := utils.CreatePaginationResult(grants[start:end], int64(len(grants)), params)
	utils.PaginatedResponse(c, result)
}
