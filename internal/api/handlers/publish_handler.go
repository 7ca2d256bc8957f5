package handlers

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/internal/transfer"
)

type PublishHandler struct {
	s           service.PublishService
	AsynqClient *asynq.Client
}

func NewPublishHandler(service service.PublishService, asynqClient *asynq.Client) *PublishHandler {
	return &PublishHandler{s: service, AsynqClient: asynqClient}
}

// CreatePublish accepts either a media_item_id pointing at the library or a
// fresh file upload. Without a scheduled time the job runs before the
// response is written, so the caller gets settled per-platform results.
func (h *PublishHandler) CreatePublish(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var file *multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		if files := form.File["file"]; len(files) > 0 {
			file = files[0]
		}
	}

	mediaItemID, _ := strconv.ParseInt(c.FormValue("media_item_id"), 10, 64)

	var overrides map[string]string
	if raw := c.FormValue("overrides"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			slog.Info(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid overrides format",
			})
		}
	}

	pc := &transfer.PublishCreation{
		MediaItemID:   mediaItemID,
		Caption:       c.FormValue("caption"),
		Overrides:     overrides,
		ScheduledTime: c.FormValue("scheduled_time"),
	}

	jobID, delay, err := h.s.CreateJob(c.Context(), userID, pc, file)
	if err != nil {
		return respondError(c, err)
	}

	if delay > 0 {
		err = queue.EnqueueJob(h.AsynqClient, queue.PublishJobPayload{JobID: jobID}, delay)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error scheduling publish",
			})
		}
	} else {
		if err := h.s.Run(c.Context(), jobID); err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error running publish",
			})
		}
	}

	info, err := h.s.JobInfo(c.Context(), userID, jobID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load job info",
		})
	}

	return c.Status(fiber.StatusOK).JSON(info)
}

func (h *PublishHandler) ListJobs(c *fiber.Ctx) error {
	userID := GetUserID(c)
	jobID := c.QueryInt("id", 0)

	if jobID != 0 {
		info, err := h.s.JobInfo(c.Context(), int64(userID), int64(jobID))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get job info",
			})
		}

		return c.Status(fiber.StatusOK).JSON(info)
	}

	jobs, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list jobs",
		})
	}

	return c.Status(fiber.StatusOK).JSON(jobs)
}
