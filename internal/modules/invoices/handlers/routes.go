package handlers

import "github.com/gofiber/fiber/v2"

// Handlers groups everything mounted under /api.
type Handlers struct {
	Invoices     *InvoiceHandler
	Settings     *SettingsHandler
	Transactions *TransactionHandler
	Activity     *ActivityHandler
	Imports      *ImportHandler
}

// RegisterRoutes mounts the invoice API on api.
func RegisterRoutes(api fiber.Router, h Handlers) {
	// Settings & accounts
	api.Get("/settings", h.Settings.GetSettings)
	api.Put("/settings", h.Settings.UpdateSettings)
	api.Post("/settings/refresh-token", h.Settings.RefreshToken)
	api.Get("/accounts", h.Settings.GetAccounts)
	api.Post("/accounts/refresh", h.Settings.RefreshAccounts)
	api.Get("/mappings", h.Settings.GetMappings)

	// Queue
	api.Post("/invoices", h.Invoices.AddInvoices)
	api.Get("/invoices", h.Invoices.ListInvoices)
	api.Post("/invoices/extract-pending", h.Invoices.ExtractPending)
	api.Post("/invoices/upload-batch", h.Invoices.UploadBatch)
	api.Get("/invoices/:id", h.Invoices.GetInvoice)
	api.Put("/invoices/:id", h.Invoices.UpdateInvoice)
	api.Delete("/invoices/:id", h.Invoices.DeleteInvoice)
	api.Post("/invoices/:id/extract", h.Invoices.ExtractInvoice)
	api.Put("/invoices/:id/select", h.Invoices.SelectInvoice)
	api.Post("/invoices/:id/upload", h.Invoices.UploadInvoice)
	api.Post("/invoices/:id/vendor/confirm", h.Invoices.ConfirmVendor)
	api.Post("/invoices/:id/vendor/cancel", h.Invoices.CancelVendor)
	api.Post("/claude/extract", h.Invoices.LegacyExtract)

	// Ledger
	api.Get("/transactions", h.Transactions.ListTransactions)
	api.Get("/transactions/export", h.Transactions.ExportTransactions)
	api.Delete("/transactions", h.Transactions.ClearTransactions)

	// Activity
	api.Get("/activity", h.Activity.ListActivity)
	api.Delete("/activity", h.Activity.ClearActivity)

	// Watch folder
	api.Get("/imports", h.Imports.ListImports)
	api.Post("/imports/fetch", h.Imports.FetchImports)
	api.Post("/imports/scan", h.Imports.ScanImports)
}
