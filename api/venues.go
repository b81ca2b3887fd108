package api

import (
	"net/http"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/service/availability"
	"github.com/Domenick1991/venuebooking/internal/service/booking"
	"github.com/Domenick1991/venuebooking/internal/service/calendar"
	"github.com/gin-gonic/gin"
)

// VenueHandler serves a venue's availability, calendar rules and bookings.
type VenueHandler struct {
	availability availability.AvailabilityUseCase
	calendar     calendar.CalendarUseCase
	bookings     booking.BookingUseCase
}

type setHoursRequest struct {
	Hours []calendar.HoursInput `json:"hours"`
}

type blockDatesRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type createSlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

type slotStatusRequest struct {
	Status string `json:"status"`
}

func NewVenueHandler(
	availabilitySvc availability.AvailabilityUseCase,
	calendarSvc calendar.CalendarUseCase,
	bookingSvc booking.BookingUseCase,
) *VenueHandler {
	return &VenueHandler{availability: availabilitySvc, calendar: calendarSvc, bookings: bookingSvc}
}

func (h *VenueHandler) Register(public, private *gin.RouterGroup) {
	public.GET("/venues/:id/availability", h.checkAvailability)
	public.GET("/venues/:id/calendar", h.calendarView)
	public.GET("/venues/:id/occupancy", h.occupancy)
	public.GET("/venues/:id/hours", h.listHours)
	public.GET("/venues/:id/blocks", h.listBlocks)
	public.GET("/venues/:id/slots", h.listSlots)

	private.PUT("/venues/:id/hours", h.setHours)
	private.POST("/venues/:id/blocks", h.blockDates)
	private.POST("/venues/:id/slots", h.createSlot)
	private.PATCH("/slots/:id", h.setSlotStatus)

	owners := private.Group("", RequireRole(domain.RoleVenueOwner, domain.RoleAdmin))
	owners.GET("/venues/:id/bookings", h.listBookings)
	owners.GET("/venues/:id/stats", h.stats)
}

func (h *VenueHandler) checkAvailability(c *gin.Context) {
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	verdict, err := h.availability.CheckAvailability(c.Request.Context(), availability.CheckInput{
		VenueID:   venueID,
		Date:      c.Query("date"),
		StartTime: c.Query("start_time"),
		EndTime:   c.Query("end_time"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (h *VenueHandler) calendarView(c *gin.Context) {
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	cal, err := h.availability.Calendar(c.Request.Context(), availability.CalendarInput{
		VenueID:   venueID,
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

func (h *VenueHandler) occupancy(c *gin.Context) {
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	occ, err := h.availability.DayOccupancy(c.Request.Context(), venueID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, occ)
}

func (h *VenueHandler) listHours(c *gin.Context) {
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	hours, err := h.calendar.ListOperatingHours(c.Request.Context(), venueID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venue_id": venueID, "hours": hours})
}

func (h *VenueHandler) setHours(c *gin.Context) {
	identity, _ := identityFrom(c)
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req setHoursRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	hours, err := h.calendar.SetOperatingHours(c.Request.Context(), venueID, identity.UserID, req.Hours)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venue_id": venueID, "hours": hours})
}

func (h *VenueHandler) listBlocks(c *gin.Context) {
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	blocks, err := h.calendar.ListBlockedRanges(c.Request.Context(), venueID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venue_id": venueID, "blocked_dates": nonNil(blocks)})
}

func (h *VenueHandler) blockDates(c *gin.Context) {
	identity, _ := identityFrom(c)
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req blockDatesRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	block, err := h.calendar.BlockDates(c.Request.Context(), calendar.BlockInput{
		VenueID:   venueID,
		ActorID:   identity.UserID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

func (h *VenueHandler) listSlots(c *gin.Context) {
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	slots, err := h.calendar.ListSlots(c.Request.Context(), venueID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venue_id": venueID, "slots": nonNil(slots)})
}

func (h *VenueHandler) createSlot(c *gin.Context) {
	identity, _ := identityFrom(c)
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req createSlotRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	slot, err := h.calendar.CreateSlot(c.Request.Context(), calendar.SlotInput{
		VenueID:   venueID,
		ActorID:   identity.UserID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *VenueHandler) setSlotStatus(c *gin.Context) {
	identity, _ := identityFrom(c)
	slotID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req slotStatusRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	slot, err := h.calendar.SetSlotStatus(c.Request.Context(), slotID, identity.UserID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (h *VenueHandler) listBookings(c *gin.Context) {
	identity, _ := identityFrom(c)
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	query, err := listQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	bookings, err := h.bookings.ListVenueBookings(c.Request.Context(), venueID, identity.Actor(), query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": toBookingList(bookings)})
}

func (h *VenueHandler) stats(c *gin.Context) {
	identity, _ := identityFrom(c)
	venueID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := h.bookings.VenueStats(c.Request.Context(), venueID, identity.Actor())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func listQuery(c *gin.Context) (booking.ListQuery, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return booking.ListQuery{}, err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return booking.ListQuery{}, err
	}
	return booking.ListQuery{Status: c.Query("status"), Limit: limit, Offset: offset}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
