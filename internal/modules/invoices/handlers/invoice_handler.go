package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/markedwards8480/invoice-processor/internal/core/llm"
	"github.com/markedwards8480/invoice-processor/internal/core/storage"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/services"
)

type InvoiceHandler struct {
	queue      *services.QueueService
	processing *services.ProcessingService
	uploads    *services.UploadService
	extractor  services.InvoiceExtractor
}

func NewInvoiceHandler(queue *services.QueueService, processing *services.ProcessingService,
	uploads *services.UploadService, extractor services.InvoiceExtractor) *InvoiceHandler {
	return &InvoiceHandler{
		queue:      queue,
		processing: processing,
		uploads:    uploads,
		extractor:  extractor,
	}
}

// AddInvoices godoc
// @Summary Queue invoice documents
// @Description Upload one or more PDF, JPEG or PNG invoices into the processing queue
// @Tags Invoices
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Invoice documents"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/invoices [post]
func (h *InvoiceHandler) AddInvoices(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "multipart form with files is required")
	}

	files := append(form.File["files"], form.File["files[]"]...)
	if len(files) == 0 {
		return badRequest(c, "at least one file is required")
	}

	items := make([]*models.QueueItem, 0, len(files))
	var rejected []fiber.Map
	for _, fh := range files {
		data, err := readFormFile(fh)
		if err != nil {
			rejected = append(rejected, fiber.Map{"fileName": fh.Filename, "error": err.Error()})
			continue
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = storage.ContentTypeFor(fh.Filename)
		}

		item, err := h.queue.Add(services.NewItem{FileName: fh.Filename, ContentType: contentType, Data: data})
		if err != nil {
			rejected = append(rejected, fiber.Map{"fileName": fh.Filename, "error": services.HumanMessage(err)})
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no valid files uploaded", "rejected": rejected})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":   "success",
		"data":     items,
		"count":    len(items),
		"rejected": rejected,
	})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ListInvoices godoc
// @Summary List the queue
// @Tags Invoices
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *fiber.Ctx) error {
	items := h.queue.List()
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   items,
		"count":  len(items),
	})
}

// GetInvoice godoc
// @Summary Get a queue item
// @Tags Invoices
// @Produce json
// @Param id path string true "Queue item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	item, err := h.queue.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": item})
}

// DeleteInvoice godoc
// @Summary Remove a queue item
// @Tags Invoices
// @Param id path string true "Queue item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *fiber.Ctx) error {
	if err := h.queue.Remove(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Invoice removed from queue"})
}

// ExtractInvoice godoc
// @Summary Extract invoice data
// @Description Read the document with the model, validate it, suggest accounts and check for duplicates
// @Tags Invoices
// @Produce json
// @Param id path string true "Queue item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string
// @Router /api/invoices/{id}/extract [post]
func (h *InvoiceHandler) ExtractInvoice(c *fiber.Ctx) error {
	item, err := h.processing.Extract(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": item})
}

// ExtractPending godoc
// @Summary Extract every pending item
// @Tags Invoices
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices/extract-pending [post]
func (h *InvoiceHandler) ExtractPending(c *fiber.Ctx) error {
	results := h.processing.ExtractPending(c.UserContext())
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   results,
		"count":  len(results),
	})
}

// UpdateInvoice godoc
// @Summary Edit extracted data
// @Description Replace the extracted data; subtotal and total are recalculated from the line items
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Queue item ID"
// @Param invoice body models.ExtractedInvoice true "Extracted invoice"
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *fiber.Ctx) error {
	var inv models.ExtractedInvoice
	if err := c.BodyParser(&inv); err != nil {
		return badRequest(c, "invalid request")
	}

	item, err := h.processing.Edit(c.UserContext(), c.Params("id"), &inv)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": item})
}

type selectRequest struct {
	Selected bool `json:"selected"`
}

// SelectInvoice godoc
// @Summary Mark an item for batch upload
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Queue item ID"
// @Param body body selectRequest true "Selection"
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices/{id}/select [put]
func (h *InvoiceHandler) SelectInvoice(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	item, err := h.processing.Select(c.Params("id"), req.Selected)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": item})
}

// UploadInvoice godoc
// @Summary Create a bill from an extracted item
// @Description Returns 202 with status pending_vendor when the vendor must be confirmed first
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Queue item ID"
// @Param body body services.UploadOptions false "Explicit vendor"
// @Success 200 {object} map[string]interface{}
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /api/invoices/{id}/upload [post]
func (h *InvoiceHandler) UploadInvoice(c *fiber.Ctx) error {
	var opts services.UploadOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return badRequest(c, "invalid request")
		}
	}

	result, err := h.uploads.Upload(c.UserContext(), c.Params("id"), opts)
	return uploadResponse(c, result, err)
}

func uploadResponse(c *fiber.Ctx, result *services.UploadResult, err error) error {
	if errors.Is(err, services.ErrVendorConfirmationRequired) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":  string(models.StatusPendingVendor),
			"message": services.HumanMessage(err),
			"data":    result,
		})
	}
	if err != nil {
		if result == nil {
			return respondError(c, err)
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": services.HumanMessage(err), "data": result})
	}
	return c.JSON(fiber.Map{"status": "success", "data": result})
}

// ConfirmVendor godoc
// @Summary Create the vendor and continue the upload
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Queue item ID"
// @Param vendor body services.VendorDetails true "Vendor details"
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices/{id}/vendor/confirm [post]
func (h *InvoiceHandler) ConfirmVendor(c *fiber.Ctx) error {
	var details services.VendorDetails
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&details); err != nil {
			return badRequest(c, "invalid request")
		}
	}

	result, err := h.uploads.ConfirmVendor(c.UserContext(), c.Params("id"), details)
	return uploadResponse(c, result, err)
}

// CancelVendor godoc
// @Summary Cancel vendor creation
// @Description The item stays waiting for a vendor; nothing is written
// @Tags Invoices
// @Produce json
// @Param id path string true "Queue item ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices/{id}/vendor/cancel [post]
func (h *InvoiceHandler) CancelVendor(c *fiber.Ctx) error {
	item, err := h.uploads.CancelVendor(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": item})
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

// UploadBatch godoc
// @Summary Upload several items
// @Description Uploads the given ids one after another, or every selected item when ids is empty
// @Tags Invoices
// @Accept json
// @Produce json
// @Param body body batchRequest false "Item ids"
// @Success 200 {object} map[string]interface{}
// @Router /api/invoices/upload-batch [post]
func (h *InvoiceHandler) UploadBatch(c *fiber.Ctx) error {
	var req batchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request")
		}
	}

	results := h.uploads.UploadBatch(c.UserContext(), req.IDs)
	succeeded := 0
	for _, r := range results {
		if r.Status == models.StatusSuccess {
			succeeded++
		}
	}
	return c.JSON(fiber.Map{
		"status":    "success",
		"data":      results,
		"count":     len(results),
		"succeeded": succeeded,
	})
}

type legacyExtractRequest struct {
	Base64Data string `json:"base64Data"`
	MediaType  string `json:"mediaType"`
	FileName   string `json:"fileName"`
}

// LegacyExtract godoc
// @Summary Extract an invoice from base64 data
// @Description Stateless extraction used by older clients; nothing is queued
// @Tags Invoices
// @Accept json
// @Produce json
// @Param body body legacyExtractRequest true "Document"
// @Success 200 {object} models.ExtractedInvoice
// @Router /api/claude/extract [post]
func (h *InvoiceHandler) LegacyExtract(c *fiber.Ctx) error {
	var req legacyExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if req.Base64Data == "" {
		return badRequest(c, "base64Data is required")
	}

	raw := req.Base64Data
	if i := strings.Index(raw, ","); strings.HasPrefix(raw, "data:") && i > 0 {
		raw = raw[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return badRequest(c, "base64Data is not valid base64")
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "application/pdf"
	}
	name := req.FileName
	if name == "" {
		name = "invoice"
	}

	inv, err := h.extractor.Extract(c.UserContext(), llm.Document{Name: name, ContentType: mediaType, Data: data})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}
