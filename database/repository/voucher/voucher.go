package voucherRepo

import (
	"context"
	"errors"

	"gutschein/models"
)

// ErrCodeExists is returned by Create when the voucher code is already taken.
var ErrCodeExists = errors.New("voucher code already exists")

// TransitionResult reports the outcome of a compare-and-swap status change.
type TransitionResult int

const (
	// TransitionApplied means this call moved the voucher to the new status.
	TransitionApplied TransitionResult = iota
	// TransitionAlreadyDone means the voucher was already in the target
	// status. Callers treat this as a no-op success, never an error.
	TransitionAlreadyDone
	// TransitionNotFound means no voucher with that code exists.
	TransitionNotFound
)

// VoucherRepository defines methods for voucher data access.
type VoucherRepository interface {
	// GetByCode retrieves a voucher by its code. Returns (nil, nil) when no
	// voucher with that code exists.
	GetByCode(ctx context.Context, code string) (*models.Voucher, error)
	// Create inserts a new voucher. Returns ErrCodeExists when the code is
	// already taken.
	Create(ctx context.Context, v *models.Voucher) error
	// Transition atomically moves a voucher from one status to another.
	// The status check and the write are a single filtered update, so two
	// concurrent callers can never both observe TransitionApplied.
	Transition(ctx context.Context, code string, from, to models.VoucherStatus) (TransitionResult, error)
	// GetAll retrieves all vouchers, optionally filtered by merchant.
	GetAll(ctx context.Context, merchantID string) ([]models.Voucher, error)
}
