package queue

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/coursegraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError moves a failed delivery to the retry queue, or to
// the dead-letter queue once it has been retried maxRetries times or the
// error is ErrInvalidMessage. The original delivery is acked once the copy
// is published and requeued if publishing fails.
func HandleProcessingError(ctx context.Context, ch publishChannel, msg amqp091.Delivery, queueName string, procErr error) {
	retries := retryCount(msg.Headers)

	if retries >= maxRetries || errors.Is(procErr, ErrInvalidMessage) {
		dlqName := queueName + "_dlq"
		logger.Warn("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries)
		if err := PublishFIFO(ctx, ch, dlqName, msg.Body, msg.Headers); err != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", err)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retries"] = int32(retries + 1)

	retryName := queueName + "_retry"
	if err := PublishFIFO(ctx, ch, retryName, msg.Body, headers); err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", err)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
