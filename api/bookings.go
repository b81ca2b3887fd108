package api

import (
	"net/http"

	"github.com/Domenick1991/venuebooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	VenueID           int64  `json:"venue_id"`
	EventTypeID       int64  `json:"event_type_id"`
	EventDate         string `json:"event_date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	GuestCount        int    `json:"guest_count"`
	EventTitle        string `json:"event_title"`
	SpecialRequests   string `json:"special_requests"`
	AdditionalCharges int64  `json:"additional_charges"`
	Discount          int64  `json:"discount"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings/:id", h.get)
	router.POST("/bookings/:id/confirm", h.confirm)
	router.POST("/bookings/:id/cancel", h.cancel)
	router.GET("/me/bookings", h.listMine)
}

func (h *BookingHandler) create(c *gin.Context) {
	identity, _ := identityFrom(c)
	var req createBookingRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		CustomerID:        identity.UserID,
		VenueID:           req.VenueID,
		EventTypeID:       req.EventTypeID,
		EventDate:         req.EventDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		GuestCount:        req.GuestCount,
		EventTitle:        req.EventTitle,
		SpecialRequests:   req.SpecialRequests,
		AdditionalCharges: req.AdditionalCharges,
		Discount:          req.Discount,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	identity, _ := identityFrom(c)
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	details, err := h.service.GetBooking(c.Request.Context(), id, identity.Actor())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := toBookingResponse(&details.Booking)
	resp.Payments = toPaymentList(details.Payments)
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	identity, _ := identityFrom(c)
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := h.service.ConfirmBooking(c.Request.Context(), id, identity.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	identity, _ := identityFrom(c)
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			writeError(c, err)
			return
		}
	}
	b, err := h.service.CancelBooking(c.Request.Context(), id, identity.UserID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) listMine(c *gin.Context) {
	identity, _ := identityFrom(c)
	query, err := listQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	bookings, err := h.service.ListCustomerBookings(c.Request.Context(), identity.UserID, query)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": toBookingList(bookings)})
}
