package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"villabook/internal/app/ledger"
	domainbooking "villabook/internal/domain/booking"
	"villabook/internal/domain/villa"
)

type BookingHandler struct {
	Ledger *ledger.Ledger
}

type previewQuery struct {
	CheckIn  string `form:"check_in" binding:"required"`
	CheckOut string `form:"check_out" binding:"required"`
	Guests   int    `form:"guests" binding:"required"`
}

// Preview is public and non-binding: no auth, no hold on the dates.
func (h BookingHandler) Preview(c *gin.Context) {
	var q previewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDate(q.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be YYYY-MM-DD"})
		return
	}
	checkOut, err := parseDate(q.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be YYYY-MM-DD"})
		return
	}
	result, err := h.Ledger.Preview(c.Request.Context(), villa.VillaID(c.Param("id")), checkIn, checkOut, q.Guests)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPreviewPayload(result))
}

type createBookingRequest struct {
	VillaID  string `json:"villa_id" binding:"required"`
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
	Guests   int    `json:"guests" binding:"required"`
}

func (h BookingHandler) Create(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be YYYY-MM-DD"})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be YYYY-MM-DD"})
		return
	}
	b, err := h.Ledger.Create(c.Request.Context(), ledger.CreateParams{
		VillaID:  villa.VillaID(req.VillaID),
		GuestID:  p.ID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   req.Guests,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingPayload(b))
}

func (h BookingHandler) Get(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	b, err := h.Ledger.Booking(c.Request.Context(), domainbooking.BookingID(c.Param("id")), ledger.Actor{UserID: p.ID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPayload(b))
}

type modifyBookingRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
	Guests   int    `json:"guests" binding:"required"`
}

func (h BookingHandler) Modify(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req modifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be YYYY-MM-DD"})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be YYYY-MM-DD"})
		return
	}
	b, err := h.Ledger.Modify(c.Request.Context(), ledger.ModifyParams{
		BookingID: domainbooking.BookingID(c.Param("id")),
		Actor:     ledger.Actor{UserID: p.ID},
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    req.Guests,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPayload(b))
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)
	b, err := h.Ledger.Cancel(c.Request.Context(), domainbooking.BookingID(c.Param("id")), ledger.Actor{UserID: p.ID}, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPayload(b))
}

func (h BookingHandler) ListMine(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	bookings, err := h.Ledger.GuestBookings(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": toBookingList(bookings)})
}
