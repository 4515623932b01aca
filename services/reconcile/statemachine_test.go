package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"gutschein/models"
	"gutschein/services/reconcile"

	"go.uber.org/zap"
)

func newFixture(t *testing.T, vouchers ...*models.Voucher) (*reconcile.StateMachine, *memVoucherRepo, *memLedger, *recordingNotifier) {
	t.Helper()
	repo := newMemVoucherRepo(vouchers...)
	ledger := newMemLedger(repo)
	notifier := &recordingNotifier{}
	machine := &reconcile.StateMachine{
		Vouchers:       repo,
		Ledger:         ledger,
		Notifier:       notifier,
		ToleranceCents: 1,
		Logger:         zap.NewNop(),
	}
	return machine, repo, ledger, notifier
}

func issuedVoucher(code string, cents int64) *models.Voucher {
	return &models.Voucher{
		Code:           code,
		AmountCents:    cents,
		Currency:       "EUR",
		RecipientEmail: "kunde@example.com",
		Status:         models.VoucherIssued,
	}
}

func succeededEvent(externalID, code string, cents int64) *models.PaymentEvent {
	return &models.PaymentEvent{
		Provider:          models.ProviderStripe,
		ExternalPaymentID: externalID,
		Status:            models.EventSucceeded,
		VoucherCode:       code,
		AmountCents:       cents,
		Currency:          "EUR",
	}
}

func TestSucceededEventRedeemsVoucher(t *testing.T) {
	machine, repo, ledger, notifier := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))

	out, err := machine.Apply(context.Background(), succeededEvent("pi_1", "GS-AAAA-BBBB", 5000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Redeemed {
		t.Fatal("expected the voucher to be redeemed")
	}
	if out.Ledger != models.LedgerApplied {
		t.Fatalf("expected ledger status applied, got %q", out.Ledger)
	}
	if got := repo.status("GS-AAAA-BBBB"); got != models.VoucherRedeemed {
		t.Fatalf("expected voucher status redeemed, got %q", got)
	}
	if len(notifier.redeemed) != 1 || notifier.redeemed[0] != "GS-AAAA-BBBB" {
		t.Fatalf("expected one redemption notice for GS-AAAA-BBBB, got %v", notifier.redeemed)
	}

	rec, err := ledger.Get(context.Background(), models.ProviderStripe, "pi_1")
	if err != nil || rec == nil {
		t.Fatalf("expected a ledger record, got %v, %v", rec, err)
	}
	if rec.Flag != "" {
		t.Fatalf("expected no flag, got %q", rec.Flag)
	}
}

func TestSecondPaymentForRedeemedVoucherIsFlagged(t *testing.T) {
	machine, repo, ledger, notifier := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))
	ctx := context.Background()

	if _, err := machine.Apply(ctx, succeededEvent("pi_1", "GS-AAAA-BBBB", 5000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A different payment id for the same voucher: not a redelivery, a
	// genuine double charge.
	out, err := machine.Apply(ctx, succeededEvent("pi_2", "GS-AAAA-BBBB", 5000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redeemed {
		t.Fatal("second payment must not redeem again")
	}
	if out.Flag != models.FlagDuplicatePayment {
		t.Fatalf("expected duplicate_payment flag, got %q", out.Flag)
	}
	if got := repo.status("GS-AAAA-BBBB"); got != models.VoucherRedeemed {
		t.Fatalf("voucher should stay redeemed, got %q", got)
	}
	if len(notifier.redeemed) != 1 {
		t.Fatalf("expected exactly one redemption notice, got %d", len(notifier.redeemed))
	}

	rec, _ := ledger.Get(ctx, models.ProviderStripe, "pi_2")
	if rec == nil || rec.Status != models.LedgerApplied || rec.Flag != models.FlagDuplicatePayment {
		t.Fatalf("expected applied+flagged record for pi_2, got %+v", rec)
	}
}

func TestAmountWithinToleranceStillRedeems(t *testing.T) {
	machine, repo, _, _ := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))

	out, err := machine.Apply(context.Background(), succeededEvent("pi_1", "GS-AAAA-BBBB", 5001))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Redeemed {
		t.Fatal("one cent inside the tolerance should redeem")
	}
	if got := repo.status("GS-AAAA-BBBB"); got != models.VoucherRedeemed {
		t.Fatalf("expected redeemed, got %q", got)
	}
}

func TestAmountMismatchRejectsWithoutTouchingVoucher(t *testing.T) {
	machine, repo, ledger, notifier := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))

	out, err := machine.Apply(context.Background(), succeededEvent("pi_1", "GS-AAAA-BBBB", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redeemed {
		t.Fatal("a mismatched amount must never redeem")
	}
	if out.Ledger != models.LedgerRejected || out.Flag != models.FlagAmountMismatch {
		t.Fatalf("expected rejected/amount_mismatch, got %q/%q", out.Ledger, out.Flag)
	}
	if got := repo.status("GS-AAAA-BBBB"); got != models.VoucherIssued {
		t.Fatalf("voucher must stay issued, got %q", got)
	}
	if len(notifier.redeemed) != 0 {
		t.Fatal("no redemption notice expected")
	}

	rec, _ := ledger.Get(context.Background(), models.ProviderStripe, "pi_1")
	if rec == nil || rec.Flag != models.FlagAmountMismatch {
		t.Fatalf("expected flagged ledger record, got %+v", rec)
	}
}

func TestCurrencyMismatchRejects(t *testing.T) {
	machine, repo, _, _ := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))

	evt := succeededEvent("pi_1", "GS-AAAA-BBBB", 5000)
	evt.Currency = "USD"

	out, err := machine.Apply(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redeemed || out.Flag != models.FlagAmountMismatch {
		t.Fatalf("expected amount_mismatch rejection, got %+v", out)
	}
	if got := repo.status("GS-AAAA-BBBB"); got != models.VoucherIssued {
		t.Fatalf("voucher must stay issued, got %q", got)
	}
}

func TestOrphanEventIsRecordedAndFlagged(t *testing.T) {
	machine, _, ledger, _ := newFixture(t)

	out, err := machine.Apply(context.Background(), succeededEvent("pi_1", "GS-GONE-GONE", 5000))
	if err != nil {
		t.Fatalf("orphan events must not error: %v", err)
	}
	if out.Ledger != models.LedgerRejected || out.Flag != models.FlagOrphan {
		t.Fatalf("expected rejected/orphan, got %q/%q", out.Ledger, out.Flag)
	}

	flagged, _ := ledger.FindFlagged(context.Background(), 10)
	if len(flagged) != 1 || flagged[0].Flag != models.FlagOrphan {
		t.Fatalf("expected one orphan record in review queue, got %+v", flagged)
	}
}

func TestMissingVoucherCodeIsOrphan(t *testing.T) {
	machine, _, _, _ := newFixture(t)

	evt := succeededEvent("pi_1", "", 5000)
	out, err := machine.Apply(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Flag != models.FlagOrphan {
		t.Fatalf("expected orphan flag, got %q", out.Flag)
	}
}

func TestFailedEventLeavesVoucherIssued(t *testing.T) {
	machine, repo, ledger, _ := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))

	evt := succeededEvent("pi_1", "GS-AAAA-BBBB", 5000)
	evt.Status = models.EventFailed

	out, err := machine.Apply(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redeemed || out.Ledger != models.LedgerApplied {
		t.Fatalf("expected applied without redemption, got %+v", out)
	}
	if got := repo.status("GS-AAAA-BBBB"); got != models.VoucherIssued {
		t.Fatalf("voucher must stay issued, got %q", got)
	}

	rec, _ := ledger.Get(context.Background(), models.ProviderStripe, "pi_1")
	if rec == nil || rec.Status != models.LedgerApplied {
		t.Fatalf("failed payment should dedup terminally, got %+v", rec)
	}
}

func TestPendingEventLeavesRecordSeen(t *testing.T) {
	machine, repo, _, _ := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))

	evt := succeededEvent("pi_1", "GS-AAAA-BBBB", 5000)
	evt.Status = models.EventPending

	out, err := machine.Apply(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Ledger != models.LedgerSeen {
		t.Fatalf("pending must stay seen, got %q", out.Ledger)
	}
	if got := repo.status("GS-AAAA-BBBB"); got != models.VoucherIssued {
		t.Fatalf("voucher must stay issued, got %q", got)
	}
}

func TestStorageFailureSurfacesAsPersistenceError(t *testing.T) {
	machine, repo, _, _ := newFixture(t, issuedVoucher("GS-AAAA-BBBB", 5000))
	repo.failGet = true

	_, err := machine.Apply(context.Background(), succeededEvent("pi_1", "GS-AAAA-BBBB", 5000))
	var perr *reconcile.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
