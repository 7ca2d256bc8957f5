package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func (j *Queue) HandlePublishJobTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := j.ps.Run(ctx, payload.JobID); err != nil {
		log.Printf("Error running publish job %d: %v", payload.JobID, err)
		return err
	}

	return nil
}
