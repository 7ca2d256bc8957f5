package handlers

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	userID := GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	var overrides map[string]string
	if raw := c.FormValue("overrides"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid overrides format",
			})
		}
	}

	id, err := h.s.Upload(c.Context(), userID, file, c.FormValue("caption"), overrides)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": id,
	})
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)

	items, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list media items",
		})
	}

	return c.Status(fiber.StatusOK).JSON(items)
}

func (h *MediaHandler) Remove(c *fiber.Ctx) error {
	userID := GetUserID(c)
	mediaItemID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(mediaItemID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove media item",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
