package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// respondError maps classified request failures to a 400 with their stable
// code; everything else is treated as an internal error.
func respondError(c *fiber.Ctx, err error) error {
	var reqErr *service.RequestError
	if errors.As(err, &reqErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": reqErr.Message,
			"code":  reqErr.Code,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
