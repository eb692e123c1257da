package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"villabook/internal/app/calendars"
	domaincalendar "villabook/internal/domain/calendar"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
)

type CalendarHandler struct {
	Calendars *calendars.Service
}

func (h CalendarHandler) Get(c *gin.Context) {
	if _, ok := requireRole(c, roleHost); !ok {
		return
	}
	cal, err := h.Calendars.Calendar(c.Request.Context(), villa.VillaID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCalendarPayload(cal))
}

type blockRangeRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Reason string `json:"reason"`
}

func (h CalendarHandler) Block(c *gin.Context) {
	p, ok := requireRole(c, roleHost)
	if !ok {
		return
	}
	var req blockRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	if err := h.Calendars.BlockRange(c.Request.Context(), p.ID, villa.VillaID(c.Param("id")), from, to, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type unblockRangeRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

func (h CalendarHandler) Unblock(c *gin.Context) {
	p, ok := requireRole(c, roleHost)
	if !ok {
		return
	}
	var req unblockRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	if err := h.Calendars.UnblockRange(c.Request.Context(), p.ID, villa.VillaID(c.Param("id")), from, to); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setOverrideRequest struct {
	Date              string `json:"date" binding:"required"`
	NightlyPriceCents int64  `json:"nightly_price_cents" binding:"required"`
	Currency          string `json:"currency" binding:"required"`
	MinNights         int    `json:"min_nights"`
	MaxNights         int    `json:"max_nights"`
}

func (h CalendarHandler) SetOverride(c *gin.Context) {
	p, ok := requireRole(c, roleHost)
	if !ok {
		return
	}
	var req setOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	price, err := money.New(req.NightlyPriceCents, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	override := domaincalendar.Override{
		Date:         date,
		NightlyPrice: price,
		MinNights:    req.MinNights,
		MaxNights:    req.MaxNights,
	}
	if err := h.Calendars.SetOverride(c.Request.Context(), p.ID, villa.VillaID(c.Param("id")), override); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h CalendarHandler) RemoveOverride(c *gin.Context) {
	p, ok := requireRole(c, roleHost)
	if !ok {
		return
	}
	date, err := parseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if err := h.Calendars.RemoveOverride(c.Request.Context(), p.ID, villa.VillaID(c.Param("id")), date); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
