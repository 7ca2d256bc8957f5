package handlers

import (
	"fmt"
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

type PlatformHandler struct {
	cs  service.ConnectService
	cfg config.Config
}

func NewPlatformHandler(cfg config.Config, cs service.ConnectService) *PlatformHandler {
	return &PlatformHandler{
		cs:  cs,
		cfg: cfg,
	}
}

// Connect hands the caller a provider authorization URL carrying a signed,
// short-lived state token bound to the authenticated user.
func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	if !models.IsValidPlatform(platform) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}

	state, err := utils.GenerateStateToken(h.cfg.SecretKey, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	authURL, err := h.cs.GetAuthURL(c.Context(), platform, state)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to build authorization URL",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"url": authURL,
	})
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	platform := c.Params("platform")
	state := c.Query("state")

	userID, ok := utils.VerifyStateToken(h.cfg.SecretKey, state)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	query := url.Values{}
	for k, v := range c.Queries() {
		query.Set(k, v)
	}

	if err := h.cs.Callback(c.Context(), platform, userID, query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListConnections(c *fiber.Ctx) error {
	userID := GetUserID(c)

	connections, err := h.cs.List(c.Context(), userID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch connections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(connections)
}

func (h *PlatformHandler) DeleteConnection(c *fiber.Ctx) error {
	userID := GetUserID(c)
	connectionID := c.QueryInt("id", 0)

	err := h.cs.Delete(c.Context(), userID, int64(connectionID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to delete connection",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
