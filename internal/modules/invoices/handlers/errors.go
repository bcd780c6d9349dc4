package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/services"
	"github.com/rs/zerolog/log"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrVendorConfirmationRequired):
		return fiber.StatusAccepted
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrDuplicateDetected):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnknownSetting):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrValidationFailure), errors.Is(err, services.ErrSettingsIncomplete):
		return fiber.StatusUnprocessableEntity
	// An expired accounting token is an upstream failure, not the caller's 401.
	case errors.Is(err, services.ErrAuthExpired), errors.Is(err, services.ErrExtractionFailure),
		errors.Is(err, services.ErrVendorResolution), errors.Is(err, services.ErrNetworkOrUnknown):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": services.HumanMessage(err)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
