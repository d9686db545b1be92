package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayloop/internal/app/dto"
	svcbookings "stayloop/internal/app/services/bookings"
	domainbooking "stayloop/internal/domain/booking"
)

type BookingHandler struct {
	Service *svcbookings.Service
	Logger  *slog.Logger
}

type createBookingRequest struct {
	ListingID       string    `json:"listing_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Adults          int       `json:"adults"`
	Children        int       `json:"children"`
	Infants         int       `json:"infants"`
	Pets            int       `json:"pets"`
	PaymentMethod   string    `json:"payment_method"`
	SpecialRequests string    `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booking, err := h.Service.Create(c.Request.Context(), svcbookings.CreateParams{
		GuestID:   p.ID,
		ListingID: req.ListingID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests: domainbooking.GuestCounts{
			Adults:   req.Adults,
			Children: req.Children,
			Infants:  req.Infants,
			Pets:     req.Pets,
		},
		PaymentMethod:   req.PaymentMethod,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapBookingDetail(booking))
}

func (h BookingHandler) Get(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	booking, err := h.Service.Get(c.Request.Context(), p.ID, c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapBookingDetail(booking))
}

func (h BookingHandler) ListMine(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := h.Service.ListForGuest(c.Request.Context(), p.ID, listParams(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapBookingCollection(result.Items, result.Total))
}

func (h BookingHandler) ListHost(c *gin.Context) {
	p, ok := requireHost(c)
	if !ok {
		return
	}
	result, err := h.Service.ListForHost(c.Request.Context(), p.ID, listParams(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapBookingCollection(result.Items, result.Total))
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booking, err := h.Service.UpdateStatus(c.Request.Context(), c.Param("id"), svcbookings.StatusUpdateParams{
		ActorID: p.ID,
		Target:  req.Status,
		Reason:  req.Reason,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapBookingDetail(booking))
}

type messageRequest struct {
	Body string `json:"body"`
}

func (h BookingHandler) AddMessage(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booking, err := h.Service.AddMessage(c.Request.Context(), c.Param("id"), p.ID, req.Body)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapBookingDetail(booking))
}

func (h BookingHandler) MarkMessagesRead(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if err := h.Service.MarkMessagesRead(c.Request.Context(), c.Param("id"), p.ID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listParams(c *gin.Context) svcbookings.ListParams {
	return svcbookings.ListParams{
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
}
