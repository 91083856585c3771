package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/reservation"
)

type ReservationHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	ListingID     string `json:"listing_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	PaymentSource string `json:"payment_source"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := reservation.CreateReservationCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		PaymentSource:   req.PaymentSource,
		CallerToken:     bearerTokenFromContext(c),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservation.CreateReservationCommand, *reservation.CreateReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondError(c, cmd.CommandID, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) respondError(c *gin.Context, commandID string, err error) {
	switch reservation.KindOf(err) {
	case reservation.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": faultMessage(err)})
	case reservation.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": faultMessage(err)})
	case reservation.KindInvalidRequest:
		c.JSON(http.StatusBadRequest, gin.H{"error": faultMessage(err)})
	case reservation.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": faultMessage(err)})
	case reservation.KindPaymentFailed:
		c.JSON(http.StatusPaymentRequired, gin.H{"error": faultMessage(err)})
	default:
		if h.Logger != nil {
			h.Logger.Error("reservation command failed", "command_id", commandID, "error", err)
		}
		if errors.Is(err, reservation.ErrReconciliationRequired) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reservation could not be completed, support has been notified"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func faultMessage(err error) string {
	if f, ok := reservation.AsFault(err); ok {
		return f.Message
	}
	return err.Error()
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ ReservationHTTP = ReservationHandler{}
