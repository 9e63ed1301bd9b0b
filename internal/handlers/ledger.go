// internal/handlers/ledger.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/services"
	"github.com/relicense/ledger-backend/internal/utils"
)

type LedgerHandler struct {
	ledgerService  *services.LedgerService
	storageService *services.StorageService
}

func NewLedgerHandler(ledgerService *services.LedgerService, storageService *services.StorageService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:  ledgerService,
		storageService: storageService,
	}
}

// POST /assets
func (h *LedgerHandler) Mint(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.ledgerService.Mint(caller, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /assets/:id
func (h *LedgerHandler) GetAsset(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	metadata, err := h.ledgerService.GetAsset(models.AssetID(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, metadata)
}

// GET /assets/:id/supply
func (h *LedgerHandler) GetTotalSupply(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	supply, err := h.ledgerService.TotalSupply(models.AssetID(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset_id":     id,
		"total_supply": supply,
	})
}

// GET /holders/:id
func (h *LedgerHandler) GetHolder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	holder, err := h.ledgerService.GetHolder(models.HolderID(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, services.HolderView{HolderID: models.HolderID(id), Holder: *holder})
}

// GET /holders/mine
func (h *LedgerHandler) GetMyHolders(c *gin.Context) {
	caller, exists := utils.GetAccountFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	holders, err := h.ledgerService.ListHolders(caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	start, end := params.PageBounds(len(holders))
	result := utils.CreatePaginationResult(holders[start:end], int64(len(holders)), params)
	utils.PaginatedResponse(c, result)
}

// POST /assets/content
func (h *LedgerHandler) UploadContent(c *gin.Context) {
	if _, exists := utils.GetAccountFromContext(c); !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadContent(file, header)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, result)
}
