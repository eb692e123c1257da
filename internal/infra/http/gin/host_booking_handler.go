package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"villabook/internal/app/ledger"
	domainbooking "villabook/internal/domain/booking"
)

const roleHost = "host"

type HostBookingHandler struct {
	Ledger *ledger.Ledger
}

func (h HostBookingHandler) List(c *gin.Context) {
	p, ok := requireRole(c, roleHost)
	if !ok {
		return
	}
	bookings, err := h.Ledger.HostBookings(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": toBookingList(bookings)})
}

func (h HostBookingHandler) Approve(c *gin.Context) {
	p, ok := requireRole(c, roleHost)
	if !ok {
		return
	}
	b, err := h.Ledger.Transition(c.Request.Context(), domainbooking.BookingID(c.Param("id")), ledger.Actor{UserID: p.ID}, domainbooking.StatusConfirmed, "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPayload(b))
}

type rejectBookingRequest struct {
	Reason string `json:"reason"`
}

func (h HostBookingHandler) Reject(c *gin.Context) {
	p, ok := requireRole(c, roleHost)
	if !ok {
		return
	}
	var req rejectBookingRequest
	_ = c.ShouldBindJSON(&req)
	b, err := h.Ledger.Transition(c.Request.Context(), domainbooking.BookingID(c.Param("id")), ledger.Actor{UserID: p.ID}, domainbooking.StatusRejected, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPayload(b))
}
