package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	svcauth "stayloop/internal/app/services/auth"
	svcbookings "stayloop/internal/app/services/bookings"
	svclistings "stayloop/internal/app/services/listings"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
	domainuser "stayloop/internal/domain/user"
)

var notFoundErrors = []error{
	domainlistings.ErrNotFound,
	domainbooking.ErrNotFound,
	domainuser.ErrNotFound,
}

var forbiddenErrors = []error{
	domainbooking.ErrNotGuest,
	domainbooking.ErrNotHost,
	domainbooking.ErrNotParticipant,
	svcbookings.ErrNotAuthorized,
	svcbookings.ErrOwnListing,
	svclistings.ErrNotOwner,
	svclistings.ErrHostRequired,
	svclistings.ErrStayNotElapsed,
}

var conflictErrors = []error{
	domainlistings.ErrDatesUnavailable,
	domainlistings.ErrCapacityExceeded,
	domainlistings.ErrConcurrentUpdate,
	domainlistings.ErrAlreadyReviewed,
	domainlistings.ErrInvalidBlockRange,
	domainlistings.ErrNotActive,
	domainbooking.ErrConcurrentUpdate,
	domainbooking.ErrNotCancellable,
	domainbooking.ErrInvalidState,
	domainuser.ErrEmailAlreadyUsed,
	svcbookings.ErrTooContended,
}

var badRequestErrors = []error{
	daterange.ErrInvalidRange,
	money.ErrInvalidCurrency,
	money.ErrCurrencyMismatch,
	pricing.ErrInvalidNights,
	pricing.ErrInvalidBaseRate,
	domainlistings.ErrTitleRequired,
	domainlistings.ErrTitleTooLong,
	domainlistings.ErrDescriptionLong,
	domainlistings.ErrGuestsLimit,
	domainlistings.ErrNightsRange,
	domainlistings.ErrInvalidProperty,
	domainlistings.ErrInvalidRoomType,
	domainlistings.ErrNightlyRate,
	domainlistings.ErrLocationRequired,
	domainlistings.ErrInvalidRating,
	domainlistings.ErrStayTooShort,
	domainlistings.ErrStayTooLong,
	domainbooking.ErrInvalidGuests,
	domainbooking.ErrNegativeGuests,
	domainbooking.ErrInvalidPayment,
	domainbooking.ErrRequestsTooLong,
	domainbooking.ErrMessageRequired,
	domainbooking.ErrMessageTooLong,
	domainbooking.ErrCheckInInPast,
	domainbooking.ErrUnknownStatus,
	domainuser.ErrEmailRequired,
	domainuser.ErrEmailInvalid,
	domainuser.ErrNameRequired,
	domainuser.ErrInvalidRole,
	domainuser.ErrAlreadyHost,
	domainuser.ErrBioTooLong,
	svcauth.ErrPasswordTooShort,
}

// writeError translates domain sentinels into the HTTP error taxonomy.
// Unknown errors are logged and surfaced as an opaque 500.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	if matchesAny(err, svcauth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if matchesAny(err, notFoundErrors...) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if matchesAny(err, forbiddenErrors...) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if matchesAny(err, conflictErrors...) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if matchesAny(err, badRequestErrors...) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if logger != nil {
		logger.Error("request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func matchesAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
