package transfer

import "github.com/maheshrc27/crosspost/internal/models"

// PublishCreation is the publish request body. Either MediaItemID points at an
// already uploaded item or the handler passes a fresh file alongside.
type PublishCreation struct {
	MediaItemID   int64             `json:"media_item_id"`
	Caption       string            `json:"caption"`
	Overrides     map[string]string `json:"overrides"`
	ScheduledTime string            `json:"scheduled_time"`
}

// JobWithResults is what publish endpoints return: the job row plus one
// result per connected platform.
type JobWithResults struct {
	Job     *models.PostJob         `json:"job"`
	Results []*models.PostJobResult `json:"results"`
}
