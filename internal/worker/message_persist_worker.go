package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"docuchat/internal/model"
	"docuchat/internal/repository"
)

// MessagePersistWorker drains the persist queue and writes chat messages to
// the database. It also bumps the parent conversation's updated_at so the
// history list reflects recent activity without the orchestrator waiting on
// the write.
type MessagePersistWorker struct {
	conn             *amqp.Connection
	messageRepo      *repository.MessageRepository
	conversationRepo *repository.ConversationRepository
	queueName        string
	logger           *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMessagePersistWorker(
	conn *amqp.Connection,
	messageRepo *repository.MessageRepository,
	conversationRepo *repository.ConversationRepository,
	queueName string,
	logger *zap.Logger,
) *MessagePersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagePersistWorker{
		conn:             conn,
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		queueName:        queueName,
		logger:           logger,
	}
}

func (w *MessagePersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(d)
			}
		}
	}()

	return nil
}

func (w *MessagePersistWorker) handle(d amqp.Delivery) {
	var msg model.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.logger.Error("decode queued message failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.messageRepo.Create(&msg); err != nil {
		w.logger.Error("persist queued message failed",
			zap.Uint("conversation_id", msg.ConversationID),
			zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.conversationRepo.TouchUpdatedAt(msg.ConversationID); err != nil {
		w.logger.Warn("touch conversation after persist failed",
			zap.Uint("conversation_id", msg.ConversationID),
			zap.Error(err))
	}

	_ = d.Ack(false)
}

func (w *MessagePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
