package voucher

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	voucherRepo "gutschein/database/repository/voucher"
	"gutschein/models"
	"gutschein/services/notification"
	"gutschein/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrInvalidAmount is returned when the requested amount cannot be issued.
var ErrInvalidAmount = errors.New("invalid voucher amount")

// Codes avoid 0/O and 1/I so they survive being read out loud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const cacheTTL = 10 * time.Minute

// DefaultVoucherService is the production implementation.
type DefaultVoucherService struct {
	Repo     voucherRepo.VoucherRepository
	Cache    *redis.Client
	Notifier notification.NotificationService
	Logger   *zap.Logger
}

// Issue creates the voucher and queues the mail carrying its code.
func (s *DefaultVoucherService) Issue(ctx context.Context, req models.IssueVoucherRequest) (*models.Voucher, error) {
	cents, err := utils.ParseAmountToCents(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	v := &models.Voucher{
		AmountCents:    cents,
		Currency:       "EUR",
		RecipientEmail: req.RecipientEmail,
		Message:        req.Message,
		MerchantID:     req.MerchantID,
		Status:         models.VoucherIssued,
	}

	// Regenerate on collision; with 8 random characters a collision is a
	// curiosity, not a loop.
	created := false
	for attempt := 0; attempt < 5 && !created; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		v.Code = code

		switch err := s.Repo.Create(ctx, v); {
		case err == nil:
			created = true
		case errors.Is(err, voucherRepo.ErrCodeExists):
			continue
		default:
			return nil, fmt.Errorf("failed to issue voucher: %w", err)
		}
	}
	if !created {
		return nil, errors.New("failed to issue voucher: code space exhausted")
	}

	if err := s.Notifier.SendVoucherIssued(ctx, v); err != nil {
		// The voucher exists regardless; the mail can be resent by hand.
		s.Logger.Error("failed to queue voucher mail",
			zap.String("voucherCode", v.Code), zap.Error(err))
	}

	s.Logger.Info("voucher issued",
		zap.String("voucherCode", v.Code),
		zap.Int64("amountCents", v.AmountCents))
	return v, nil
}

// GetByCode reads through a short-lived redis cache. Redemption invalidates
// the entry from the mail worker, so staleness is bounded either way.
func (s *DefaultVoucherService) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	cacheKey := CacheKey(code)
	if data, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil {
		var v models.Voucher
		if err := json.Unmarshal([]byte(data), &v); err == nil {
			return &v, nil
		}
	}

	v, err := s.Repo.GetByCode(ctx, code)
	if err != nil || v == nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := s.Cache.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
			s.Logger.Warn("failed to cache voucher", zap.String("voucherCode", code), zap.Error(err))
		}
	}
	return v, nil
}

// ListByMerchant returns all vouchers sold by one merchant.
func (s *DefaultVoucherService) ListByMerchant(ctx context.Context, merchantID string) ([]models.Voucher, error) {
	return s.Repo.GetAll(ctx, merchantID)
}

// CacheKey is the redis key caching one voucher.
func CacheKey(code string) string {
	return "voucher:" + code
}

// generateCode produces a "GS-XXXX-XXXX" code from the safe alphabet.
func generateCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate voucher code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("GS-%s-%s", buf[:4], buf[4:]), nil
}
