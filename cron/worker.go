package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gutschein/config"
	voucherRepo "gutschein/database/repository/voucher"
	"gutschein/models"
	"gutschein/services/notification"
	"gutschein/services/voucher"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitMailWorker runs the async mail worker in background. It is the only
// place SMTP is touched; webhook handling just enqueues.
func InitMailWorker(vouchers voucherRepo.VoucherRepository, mailer *notification.Mailer, cache *redis.Client) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeVoucherIssued, handleVoucherIssuedTask(vouchers, mailer))
	mux.HandleFunc(notification.TypeVoucherRedeemed, handleVoucherRedeemedTask(vouchers, mailer, cache))

	go func() {
		log.Println("[MailWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[MailWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[MailWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// loadVoucher resolves the task payload to a voucher. A nil voucher with a
// nil error means the task should be dropped, not retried.
func loadVoucher(ctx context.Context, vouchers voucherRepo.VoucherRepository, task *asynq.Task) (*models.Voucher, error) {
	var p notification.EmailTaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		log.Printf("[MailWorker] invalid payload: %v", err)
		return nil, err
	}

	v, err := vouchers.GetByCode(ctx, p.VoucherCode)
	if err != nil {
		return nil, err
	}
	if v == nil {
		log.Printf("[MailWorker] voucher %s vanished, dropping mail task", p.VoucherCode)
		return nil, nil
	}
	return v, nil
}

func handleVoucherIssuedTask(vouchers voucherRepo.VoucherRepository, mailer *notification.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		v, err := loadVoucher(ctx, vouchers, task)
		if err != nil || v == nil {
			return err
		}
		if err := mailer.SendVoucherIssued(v); err != nil {
			log.Printf("[MailWorker] failed to send issued mail: %v", err)
			return err
		}
		return nil
	}
}

func handleVoucherRedeemedTask(vouchers voucherRepo.VoucherRepository, mailer *notification.Mailer, cache *redis.Client) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		v, err := loadVoucher(ctx, vouchers, task)
		if err != nil || v == nil {
			return err
		}

		// The cached copy still says "issued"; drop it.
		if err := cache.Del(ctx, voucher.CacheKey(v.Code)).Err(); err != nil {
			log.Printf("[MailWorker] failed to invalidate voucher cache: %v", err)
		}

		if err := mailer.SendVoucherRedeemed(v); err != nil {
			log.Printf("[MailWorker] failed to send redeemed mail: %v", err)
			return err
		}
		return nil
	}
}
