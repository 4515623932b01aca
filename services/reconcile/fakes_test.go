package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"time"

	voucherRepo "gutschein/database/repository/voucher"
	"gutschein/models"
)

// memVoucherRepo is an in-memory stand-in for the Mongo voucher repository.
type memVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[string]*models.Voucher
	failGet  bool
}

func newMemVoucherRepo(vs ...*models.Voucher) *memVoucherRepo {
	r := &memVoucherRepo{vouchers: make(map[string]*models.Voucher)}
	for _, v := range vs {
		copied := *v
		r.vouchers[v.Code] = &copied
	}
	return r
}

func (r *memVoucherRepo) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return nil, errors.New("voucher store unavailable")
	}
	v, ok := r.vouchers[code]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (r *memVoucherRepo) Create(ctx context.Context, v *models.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *v
	r.vouchers[v.Code] = &copied
	return nil
}

func (r *memVoucherRepo) Transition(ctx context.Context, code string, from, to models.VoucherStatus) (voucherRepo.TransitionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[code]
	if !ok {
		return voucherRepo.TransitionNotFound, nil
	}
	if v.Status == to {
		return voucherRepo.TransitionAlreadyDone, nil
	}
	if v.Status != from {
		return voucherRepo.TransitionNotFound, errors.New("unexpected voucher status")
	}
	v.Status = to
	return voucherRepo.TransitionApplied, nil
}

func (r *memVoucherRepo) GetAll(ctx context.Context, merchantID string) ([]models.Voucher, error) {
	return nil, nil
}

func (r *memVoucherRepo) status(code string) models.VoucherStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vouchers[code].Status
}

// memLedger is an in-memory ledger honoring the same contract as the Mongo
// one: unique (provider, externalPaymentId), first writer wins, redemption
// and ledger write are atomic with respect to each other.
type memLedger struct {
	mu       sync.Mutex
	records  map[string]*models.PaymentRecord
	vouchers *memVoucherRepo
	failAll  bool
}

func newMemLedger(vouchers *memVoucherRepo) *memLedger {
	return &memLedger{records: make(map[string]*models.PaymentRecord), vouchers: vouchers}
}

func ledgerKey(provider models.PaymentProvider, externalID string) string {
	return string(provider) + "/" + externalID
}

func (l *memLedger) RecordIfNew(ctx context.Context, rec *models.PaymentRecord) (bool, *models.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return false, nil, errors.New("ledger store unavailable")
	}
	key := ledgerKey(rec.Provider, rec.ExternalPaymentID)
	if existing, ok := l.records[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	rec.Status = models.LedgerSeen
	rec.CreatedAt = time.Now()
	copied := *rec
	l.records[key] = &copied
	return true, rec, nil
}

func (l *memLedger) SetStatus(ctx context.Context, provider models.PaymentProvider, externalID string, status models.LedgerStatus, flag string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return errors.New("ledger store unavailable")
	}
	key := ledgerKey(provider, externalID)
	rec, ok := l.records[key]
	if !ok {
		rec = &models.PaymentRecord{Provider: provider, ExternalPaymentID: externalID}
		l.records[key] = rec
	}
	rec.Status = status
	rec.Flag = flag
	now := time.Now()
	rec.ProcessedAt = &now
	return nil
}

func (l *memLedger) ApplyRedemption(ctx context.Context, provider models.PaymentProvider, externalID, code string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return false, errors.New("ledger store unavailable")
	}

	l.vouchers.mu.Lock()
	v, ok := l.vouchers.vouchers[code]
	if !ok {
		l.vouchers.mu.Unlock()
		return false, errors.New("voucher not found during redemption")
	}
	redeemed := v.Status == models.VoucherIssued
	if redeemed {
		v.Status = models.VoucherRedeemed
		now := time.Now()
		v.RedeemedAt = &now
	}
	l.vouchers.mu.Unlock()

	key := ledgerKey(provider, externalID)
	rec, okRec := l.records[key]
	if !okRec {
		rec = &models.PaymentRecord{Provider: provider, ExternalPaymentID: externalID}
		l.records[key] = rec
	}
	rec.Status = models.LedgerApplied
	if !redeemed {
		rec.Flag = models.FlagDuplicatePayment
	}
	now := time.Now()
	rec.ProcessedAt = &now
	return redeemed, nil
}

func (l *memLedger) Get(ctx context.Context, provider models.PaymentProvider, externalID string) (*models.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[ledgerKey(provider, externalID)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (l *memLedger) FindFlagged(ctx context.Context, limit int64) ([]models.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.PaymentRecord
	for _, rec := range l.records {
		if rec.Flag != "" {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (l *memLedger) FindStuckSeen(ctx context.Context, olderThan time.Duration, limit int64) ([]models.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []models.PaymentRecord
	for _, rec := range l.records {
		if rec.Status == models.LedgerSeen && rec.CreatedAt.Before(cutoff) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// recordingNotifier captures redemption notices instead of enqueuing them.
type recordingNotifier struct {
	mu       sync.Mutex
	issued   []string
	redeemed []string
}

func (n *recordingNotifier) SendVoucherIssued(ctx context.Context, v *models.Voucher) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued = append(n.issued, v.Code)
	return nil
}

func (n *recordingNotifier) SendVoucherRedeemedNotice(ctx context.Context, voucherCode string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redeemed = append(n.redeemed, voucherCode)
	return nil
}
