// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/utils"
)

// handleServiceError translates ledger sentinels into stable HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrAssetNotFound),
		errors.Is(err, models.ErrHolderNotFound),
		errors.Is(err, models.ErrRequestNotFound),
		errors.Is(err, models.ErrGrantNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)

	case errors.Is(err, models.ErrNotOwner),
		errors.Is(err, models.ErrNotRequestOwner),
		errors.Is(err, models.ErrNotGrantOwner),
		errors.Is(err, models.ErrAccessDenied):
		utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)

	case errors.Is(err, models.ErrNotEnoughAmount),
		errors.Is(err, models.ErrInsufficientFunds):
		utils.ErrorResponse(c, http.StatusBadRequest, "INSUFFICIENT", err.Error(), nil)

	case errors.Is(err, models.ErrInvalidSignature),
		errors.Is(err, models.ErrInvalidTimestamp),
		errors.Is(err, models.ErrInvalidOracleMessage):
		utils.ErrorResponse(c, http.StatusBadRequest, "ORACLE_REJECTED", err.Error(), nil)

	case errors.Is(err, models.ErrTransferFailed):
		utils.ErrorResponse(c, http.StatusBadGateway, "TRANSFER_FAILED", err.Error(), nil)

	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return 0, false
	}
	return id, true
}
