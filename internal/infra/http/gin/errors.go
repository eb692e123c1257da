package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"villabook/internal/domain/shared/fault"
)

// respondError maps the fault taxonomy onto HTTP statuses so the UI can
// react distinctly: fix input, re-show the calendar, or drop the action.
func respondError(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindAuthorization:
		status = http.StatusForbidden
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindConflict:
		status = http.StatusConflict
	case fault.KindIllegalState:
		status = http.StatusUnprocessableEntity
	}
	body := gin.H{"error": err.Error()}
	if kind != "" {
		body["kind"] = string(kind)
	}
	c.JSON(status, body)
}
