package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/services"
	"github.com/rs/zerolog/log"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// RegisterRoutes mounts the dashboard API on api.
func RegisterRoutes(api fiber.Router, h *DashboardHandler) {
	api.Get("/data", h.ListMonths)
	api.Post("/data", h.SaveMonths)
	api.Post("/data/upload", h.UploadWorkbooks)
	api.Get("/data/summary", h.GetSummary)
	api.Delete("/data", h.ClearMonths)
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidRange), errors.Is(err, services.ErrInvalidMonth):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidWorkbook), errors.Is(err, services.ErrNoMonthColumns):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("Dashboard request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// ListMonths godoc
// @Summary List dashboard months
// @Tags Dashboard
// @Produce json
// @Param range query string false "all, trailing12, fiscalYYYY or calendarYYYY"
// @Success 200 {object} map[string]interface{}
// @Router /api/data [get]
func (h *DashboardHandler) ListMonths(c *fiber.Ctx) error {
	months, err := h.dashboard.List(c.UserContext(), c.Query("range"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": months, "count": len(months)})
}

type saveMonthsRequest struct {
	Months []models.MonthInput `json:"months"`
}

// SaveMonths godoc
// @Summary Upsert dashboard months
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param body body saveMonthsRequest true "Months keyed by month_key"
// @Success 200 {object} map[string]interface{}
// @Router /api/data [post]
func (h *DashboardHandler) SaveMonths(c *fiber.Ctx) error {
	var req saveMonthsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.Months) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "months is required"})
	}
	records := make([]models.MonthRecord, 0, len(req.Months))
	for _, in := range req.Months {
		records = append(records, in.Record())
	}
	saved, err := h.dashboard.Save(c.UserContext(), records)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": saved, "count": len(saved)})
}

// UploadWorkbooks godoc
// @Summary Import operating statement workbooks
// @Tags Dashboard
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "One or more .xlsx files"
// @Success 200 {object} map[string]interface{}
// @Router /api/data/upload [post]
func (h *DashboardHandler) UploadWorkbooks(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Expected multipart form"})
	}
	files := append(form.File["files"], form.File["files[]"]...)
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No files uploaded"})
	}

	imported := 0
	rejected := []fiber.Map{}
	for _, fh := range files {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
			rejected = append(rejected, fiber.Map{"fileName": fh.Filename, "error": "only .xlsx files are supported"})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			rejected = append(rejected, fiber.Map{"fileName": fh.Filename, "error": err.Error()})
			continue
		}
		months, err := h.dashboard.Import(c.UserContext(), fh.Filename, f)
		f.Close()
		if err != nil {
			rejected = append(rejected, fiber.Map{"fileName": fh.Filename, "error": err.Error()})
			continue
		}
		imported += len(months)
	}

	if imported == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":    "No months could be read from the uploaded files",
			"rejected": rejected,
		})
	}

	months, err := h.dashboard.List(c.UserContext(), services.RangeAll)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":   "success",
		"data":     months,
		"count":    len(months),
		"imported": imported,
		"rejected": rejected,
	})
}

// GetSummary godoc
// @Summary Period totals and cost breakdowns
// @Tags Dashboard
// @Produce json
// @Param range query string false "all, trailing12, fiscalYYYY or calendarYYYY"
// @Success 200 {object} map[string]interface{}
// @Router /api/data/summary [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	months, err := h.dashboard.List(c.UserContext(), c.Query("range"))
	if err != nil {
		return respondError(c, err)
	}
	breakdown := fiber.Map{}
	for _, section := range services.BreakdownSections {
		breakdown[section] = services.Breakdown(months, section)
	}
	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{
		"summary":   services.Summarize(months),
		"breakdown": breakdown,
	}})
}

// ClearMonths godoc
// @Summary Delete all dashboard months
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/data [delete]
func (h *DashboardHandler) ClearMonths(c *fiber.Ctx) error {
	n, err := h.dashboard.Clear(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "deleted": n})
}
