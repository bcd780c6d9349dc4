package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/markedwards8480/invoice-processor/internal/core/auth"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/services"
	"github.com/rs/zerolog/log"
)

type SettingsHandler struct {
	settings *services.SettingsService
	accounts *services.AccountService
	vendors  *services.VendorResolver
}

func NewSettingsHandler(settings *services.SettingsService, accounts *services.AccountService, vendors *services.VendorResolver) *SettingsHandler {
	return &SettingsHandler{settings: settings, accounts: accounts, vendors: vendors}
}

// GetSettings godoc
// @Summary Get settings
// @Description Secrets are returned masked. vendorMode tells the client whether unknown vendors need confirmation.
// @Tags Settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/settings [get]
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	values, err := h.settings.Masked(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": values, "vendorMode": h.vendors.Mode()})
}

// UpdateSettings godoc
// @Summary Update settings
// @Description Masked secrets sent back unchanged are ignored
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body map[string]string true "Settings"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/settings [put]
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var values map[string]string
	if err := c.BodyParser(&values); err != nil {
		return badRequest(c, "invalid request")
	}

	if err := h.settings.Update(c.UserContext(), values); err != nil {
		return respondError(c, err)
	}
	if admin := auth.Username(c); admin != "" {
		log.Info().Str("admin", admin).Int("keys", len(values)).Msg("settings updated")
	}
	return h.GetSettings(c)
}

// RefreshToken godoc
// @Summary Refresh the access token now
// @Tags Settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string
// @Router /api/settings/refresh-token [post]
func (h *SettingsHandler) RefreshToken(c *fiber.Ctx) error {
	snap, err := h.settings.RefreshAccessToken(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":    "success",
		"message":   "Access token refreshed",
		"expiresAt": snap.TokenExpiresAt,
	})
}

// GetAccounts godoc
// @Summary List cached chart of accounts
// @Tags Accounts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/accounts [get]
func (h *SettingsHandler) GetAccounts(c *fiber.Ctx) error {
	accounts, err := h.accounts.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": accounts, "count": len(accounts)})
}

// RefreshAccounts godoc
// @Summary Reload the chart of accounts
// @Tags Accounts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/accounts/refresh [post]
func (h *SettingsHandler) RefreshAccounts(c *fiber.Ctx) error {
	accounts, err := h.accounts.Refresh(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": accounts, "count": len(accounts)})
}

// GetMappings godoc
// @Summary List learned account mappings
// @Tags Accounts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/mappings [get]
func (h *SettingsHandler) GetMappings(c *fiber.Ctx) error {
	mappings, err := h.accounts.Mappings(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": mappings, "count": len(mappings)})
}
