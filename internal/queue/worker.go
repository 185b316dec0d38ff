package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result := q.pj.PublishPostByID(ctx, payload.PostID)
	if result.Success {
		log.Printf("Published post %d (media %s)", payload.PostID, result.MediaID)
		return nil
	}
	if result.RetryLater {
		// Returning the error lets asynq retry on its own schedule; the
		// attempt ceiling in the job still bounds total work.
		return fmt.Errorf("post %d not published yet: %s", payload.PostID, result.Error)
	}

	log.Printf("Post %d will not be published: %s", payload.PostID, result.Error)
	return nil
}
