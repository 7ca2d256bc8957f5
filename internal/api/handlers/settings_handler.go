package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/service"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettingsInfo(c *fiber.Ctx) error {
	userID := GetUserID(c)

	settings, err := h.s.GetSettingsInfo(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to get settings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	userID := GetUserID(c)

	website := c.FormValue("website")
	defaultHashtags := c.FormValue("default_hashtags")

	err := h.s.UpdateSettings(c.Context(), userID, website, defaultHashtags)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to update settings",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *SettingsHandler) UpdateBusinessLocation(c *fiber.Ctx) error {
	userID := GetUserID(c)

	storeCode := c.FormValue("store_code")
	locationName := c.FormValue("location_name")

	err := h.s.UpdateBusinessLocation(c.Context(), userID, storeCode, locationName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
