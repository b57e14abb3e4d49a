package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/coursegraph/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrInvalidMessage marks messages that can never succeed. They go to the
// dead-letter queue without retries.
var ErrInvalidMessage = errors.New("invalid queue message")

type QueueFile struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// QueueGraphJobMsg asks the worker to ingest a batch of uploaded files.
// Documents in the batch rebuild the graph; JSON and CSV files are imported
// on top.
type QueueGraphJobMsg struct {
	JobID string      `json:"job_id"`
	Files []QueueFile `json:"files"`
}

func NewGraphJob(files []QueueFile) (QueueGraphJobMsg, error) {
	id, err := gonanoid.New()
	if err != nil {
		return QueueGraphJobMsg{}, err
	}
	return QueueGraphJobMsg{JobID: id, Files: files}, nil
}

func DecodeGraphJob(body []byte) (QueueGraphJobMsg, error) {
	var msg QueueGraphJobMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if len(msg.Files) == 0 {
		return msg, fmt.Errorf("%w: job %q has no files", ErrInvalidMessage, msg.JobID)
	}
	for _, f := range msg.Files {
		if f.Key == "" {
			return msg, fmt.Errorf("%w: job %q has a file without key", ErrInvalidMessage, msg.JobID)
		}
	}
	return msg, nil
}

// Publisher hands graph jobs to the worker.
type Publisher interface {
	PublishGraphJob(ctx context.Context, msg QueueGraphJobMsg) error
}

// ChannelPublisher publishes on one AMQP channel. Channels must not be
// used for concurrent publishes, so calls are serialised.
type ChannelPublisher struct {
	mu sync.Mutex
	ch publishChannel
}

func NewChannelPublisher(ch publishChannel) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) PublishGraphJob(ctx context.Context, msg QueueGraphJobMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := PublishFIFO(ctx, p.ch, GraphQueue, body, nil); err != nil {
		return fmt.Errorf("publish job %s: %w", msg.JobID, err)
	}
	logger.Info("[Queue] Published graph job", "job_id", msg.JobID, "files", len(msg.Files))
	return nil
}
