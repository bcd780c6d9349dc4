package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/markedwards8480/invoice-processor/internal/core/activity"
)

type ActivityHandler struct {
	activity *activity.Service
}

func NewActivityHandler(svc *activity.Service) *ActivityHandler {
	return &ActivityHandler{activity: svc}
}

// ListActivity godoc
// @Summary Recent activity
// @Tags Activity
// @Produce json
// @Param type query string false "success, error, warning or info"
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {object} map[string]interface{}
// @Router /api/activity [get]
func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	entries, err := h.activity.List(c.UserContext(), activity.Filter{
		Type:  activity.Type(c.Query("type")),
		Limit: c.QueryInt("limit", activity.MaxEntries),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": entries, "count": len(entries)})
}

// ClearActivity godoc
// @Summary Clear the activity log
// @Tags Activity
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/activity [delete]
func (h *ActivityHandler) ClearActivity(c *fiber.Ctx) error {
	if err := h.activity.Clear(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Activity log cleared"})
}
