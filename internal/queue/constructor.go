package queue

import (
	"github.com/maheshrc27/crosspost/internal/service"
)

// Queue runs prepared publish jobs when their scheduled time arrives. The
// rows already exist; the worker only has to call the orchestrator.
type Queue struct {
	ps service.PublishService
}

func NewQueue(ps service.PublishService) *Queue {
	return &Queue{ps: ps}
}

const TaskTypePublishJob = "publish:job"

type PublishJobPayload struct {
	JobID int64 `json:"job_id"`
}
