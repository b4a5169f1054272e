package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	bonuspooldomain "github.com/solventlabs/solvent/internal/bonuspool/domain"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
	orderdomain "github.com/solventlabs/solvent/internal/order/domain"
	partnerdomain "github.com/solventlabs/solvent/internal/partner/domain"
	referraldomain "github.com/solventlabs/solvent/internal/referral/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrConflict       = errors.New("conflict")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, memberdomain.ErrInvalidExternalID),
		errors.Is(err, memberdomain.ErrSelfReferral),
		errors.Is(err, orderdomain.ErrInvalidOrder),
		errors.Is(err, orderdomain.ErrEmptyOrder),
		errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, catalogdomain.ErrInvalidProduct),
		errors.Is(err, partnerdomain.ErrUnknownTier),
		errors.Is(err, partnerdomain.ErrNegativeTokens),
		errors.Is(err, bonuspooldomain.ErrInvalidAmount),
		errors.Is(err, referraldomain.ErrInvalidCommission),
		errors.Is(err, ledgerdomain.ErrInvalidOwner),
		errors.Is(err, ledgerdomain.ErrInvalidEntryType),
		errors.Is(err, ledgerdomain.ErrInvalidBalance),
		errors.Is(err, ledgerdomain.ErrZeroAmount):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, memberdomain.ErrMemberNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, partnerdomain.ErrPartnerNotFound),
		errors.Is(err, bonuspooldomain.ErrCycleNotFound),
		errors.Is(err, bonuspooldomain.ErrNoOpenCycle),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, partnerdomain.ErrAlreadyPartner),
		errors.Is(err, bonuspooldomain.ErrAlreadySettled),
		errors.Is(err, catalogdomain.ErrInsufficientStock),
		errors.Is(err, orderdomain.ErrNotPending),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	default:
		return false
	}
}
