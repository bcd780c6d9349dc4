package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/services"
)

type ImportHandler struct {
	imports *services.ImportService
	watcher *services.FolderWatcher
}

func NewImportHandler(imports *services.ImportService, watcher *services.FolderWatcher) *ImportHandler {
	return &ImportHandler{imports: imports, watcher: watcher}
}

// ListImports godoc
// @Summary Documents found in the watch folder and not yet queued
// @Tags Imports
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/imports [get]
func (h *ImportHandler) ListImports(c *fiber.Ctx) error {
	rows, err := h.imports.Pending(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": rows, "count": len(rows)})
}

// FetchImports godoc
// @Summary Load staged documents into the queue
// @Tags Imports
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/imports/fetch [post]
func (h *ImportHandler) FetchImports(c *fiber.Ctx) error {
	items, err := h.imports.Fetch(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": items, "count": len(items)})
}

// ScanImports godoc
// @Summary Scan the watch folder now
// @Tags Imports
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/imports/scan [post]
func (h *ImportHandler) ScanImports(c *fiber.Ctx) error {
	n, err := h.watcher.Scan(c.UserContext(), true)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "staged": n})
}
