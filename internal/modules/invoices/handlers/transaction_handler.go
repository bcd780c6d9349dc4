package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/markedwards8480/invoice-processor/internal/core/export"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/services"
)

type TransactionHandler struct {
	history *services.HistoryService
}

func NewTransactionHandler(history *services.HistoryService) *TransactionHandler {
	return &TransactionHandler{history: history}
}

// parseFilter reads the ledger filters from the query string. Dates are
// YYYY-MM-DD; dateTo covers the whole day.
func parseFilter(c *fiber.Ctx) (models.TransactionFilter, error) {
	f := models.TransactionFilter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Period:   c.Query("period"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", models.DefaultPageSize),
	}

	if v := c.Query("dateFrom"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("dateFrom must be YYYY-MM-DD")
		}
		f.DateFrom = &t
	}
	if v := c.Query("dateTo"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("dateTo must be YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &end
	}
	if v := c.Query("minAmount"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("minAmount must be a number")
		}
		f.MinAmount = &n
	}
	if v := c.Query("maxAmount"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("maxAmount must be a number")
		}
		f.MaxAmount = &n
	}
	if f.Status != "" && f.Status != models.TransactionSuccess && f.Status != models.TransactionError {
		return f, fmt.Errorf("status must be success or error")
	}
	return f, nil
}

// ListTransactions godoc
// @Summary List processed invoices
// @Tags Transactions
// @Produce json
// @Param search query string false "Vendor, invoice number or file name"
// @Param status query string false "success or error"
// @Param period query string false "today, this_month, last_30_days, ..."
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Param minAmount query number false "Minimum total"
// @Param maxAmount query number false "Maximum total"
// @Param page query int false "Page" default(1)
// @Param pageSize query int false "Page size" default(25)
// @Success 200 {object} map[string]interface{}
// @Router /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	page, err := h.history.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":   "success",
		"data":     page.Items,
		"count":    len(page.Items),
		"total":    page.Total,
		"page":     page.Page,
		"pageSize": page.PageSize,
	})
}

// ExportTransactions godoc
// @Summary Export processed invoices
// @Description Exports the whole filtered view as csv, xlsx or pdf
// @Tags Transactions
// @Produce octet-stream
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Success 200 {file} file
// @Router /api/transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.history.Export(c.UserContext(), filter, format)
	if err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("invoice-transactions-%s%s", time.Now().Format("20060102"), res.Extension)
	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(res.Data)
}

// ClearTransactions godoc
// @Summary Delete the whole transaction history
// @Tags Transactions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/transactions [delete]
func (h *TransactionHandler) ClearTransactions(c *fiber.Ctx) error {
	n, err := h.history.Clear(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "deleted": n})
}
