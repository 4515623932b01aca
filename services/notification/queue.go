package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gutschein/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueNotificationService enqueues mail tasks on Redis via asynq; the
// cron worker performs the actual SMTP delivery. Queueing keeps webhook
// handling independent of the mail server's availability.
type QueueNotificationService struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewQueueNotificationService(client *asynq.Client, logger *zap.Logger) *QueueNotificationService {
	return &QueueNotificationService{Client: client, Logger: logger}
}

// SendVoucherIssued queues the "here is your voucher code" mail.
func (s *QueueNotificationService) SendVoucherIssued(ctx context.Context, v *models.Voucher) error {
	return s.enqueue(ctx, TypeVoucherIssued, v.Code)
}

// SendVoucherRedeemedNotice queues the redemption confirmation mail.
func (s *QueueNotificationService) SendVoucherRedeemedNotice(ctx context.Context, voucherCode string) error {
	return s.enqueue(ctx, TypeVoucherRedeemed, voucherCode)
}

func (s *QueueNotificationService) enqueue(ctx context.Context, taskType, code string) error {
	payload, err := json.Marshal(EmailTaskPayload{VoucherCode: code})
	if err != nil {
		return fmt.Errorf("failed to encode mail task: %w", err)
	}

	task := asynq.NewTask(taskType, payload)
	info, err := s.Client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s for voucher %s: %w", taskType, code, err)
	}

	s.Logger.Info("mail task enqueued",
		zap.String("type", taskType),
		zap.String("voucherCode", code),
		zap.String("taskId", info.ID))
	return nil
}
