package voucher_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	voucherRepo "gutschein/database/repository/voucher"
	"gutschein/models"
	"gutschein/services/voucher"

	"go.uber.org/zap"
)

type memVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[string]*models.Voucher
	// rejectNext makes the next N creates fail with ErrCodeExists.
	rejectNext int
	creates    int
}

func newMemVoucherRepo() *memVoucherRepo {
	return &memVoucherRepo{vouchers: make(map[string]*models.Voucher)}
}

func (r *memVoucherRepo) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.creates++
	if r.rejectNext > 0 {
		r.rejectNext--
		return voucherRepo.ErrCodeExists
	}
	if _, exists := r.vouchers[v.Code]; exists {
		return voucherRepo.ErrCodeExists
	}
	copied := *v
	r.vouchers[v.Code] = &copied
	return nil
}

func (r *memVoucherRepo) Transition(ctx context.Context, code string, from, to models.VoucherStatus) (voucherRepo.TransitionResult, error) {
	return voucherRepo.TransitionNotFound, errors.New("not used in these tests")
}

func (r *memVoucherRepo) GetAll(ctx context.Context, merchantID string) ([]models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Voucher
	for _, v := range r.vouchers {
		if merchantID == "" || v.MerchantID == merchantID {
			out = append(out, *v)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	issued []string
}

func (n *recordingNotifier) SendVoucherIssued(ctx context.Context, v *models.Voucher) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued = append(n.issued, v.Code)
	return nil
}

func (n *recordingNotifier) SendVoucherRedeemedNotice(ctx context.Context, voucherCode string) error {
	return nil
}

func newService(t *testing.T) (*voucher.DefaultVoucherService, *memVoucherRepo, *recordingNotifier) {
	t.Helper()
	repo := newMemVoucherRepo()
	notifier := &recordingNotifier{}
	svc := &voucher.DefaultVoucherService{
		Repo:     repo,
		Notifier: notifier,
		Logger:   zap.NewNop(),
	}
	return svc, repo, notifier
}

var codePattern = regexp.MustCompile(`^GS-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

func TestIssueCreatesVoucherWithGeneratedCode(t *testing.T) {
	svc, repo, notifier := newService(t)

	v, err := svc.Issue(context.Background(), models.IssueVoucherRequest{
		Amount:         "50.00",
		RecipientEmail: "kunde@example.com",
		Message:        "Alles Gute!",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !codePattern.MatchString(v.Code) {
		t.Fatalf("unexpected code shape %q", v.Code)
	}
	if v.AmountCents != 5000 || v.Currency != "EUR" {
		t.Fatalf("unexpected amount %d %s", v.AmountCents, v.Currency)
	}
	if v.Status != models.VoucherIssued {
		t.Fatalf("expected issued status, got %q", v.Status)
	}

	stored, _ := repo.GetByCode(context.Background(), v.Code)
	if stored == nil {
		t.Fatal("voucher was not persisted")
	}
	if len(notifier.issued) != 1 || notifier.issued[0] != v.Code {
		t.Fatalf("expected one issued mail for %s, got %v", v.Code, notifier.issued)
	}
}

func TestIssueRejectsBadAmounts(t *testing.T) {
	svc, repo, _ := newService(t)

	for _, amount := range []string{"0", "-5.00", "50.005", "keine Zahl"} {
		_, err := svc.Issue(context.Background(), models.IssueVoucherRequest{
			Amount:         amount,
			RecipientEmail: "kunde@example.com",
		})
		if !errors.Is(err, voucher.ErrInvalidAmount) {
			t.Errorf("amount %q: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if repo.creates != 0 {
		t.Fatalf("no create should happen for invalid amounts, got %d", repo.creates)
	}
}

func TestIssueRetriesOnCodeCollision(t *testing.T) {
	svc, repo, _ := newService(t)
	repo.rejectNext = 2

	v, err := svc.Issue(context.Background(), models.IssueVoucherRequest{
		Amount:         "25.00",
		RecipientEmail: "kunde@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error after collisions: %v", err)
	}
	if repo.creates != 3 {
		t.Fatalf("expected 3 create attempts, got %d", repo.creates)
	}
	stored, _ := repo.GetByCode(context.Background(), v.Code)
	if stored == nil {
		t.Fatal("voucher was not persisted after retries")
	}
}

func TestIssueGivesUpAfterTooManyCollisions(t *testing.T) {
	svc, repo, notifier := newService(t)
	repo.rejectNext = 5

	_, err := svc.Issue(context.Background(), models.IssueVoucherRequest{
		Amount:         "25.00",
		RecipientEmail: "kunde@example.com",
	})
	if err == nil {
		t.Fatal("expected an error when every attempt collides")
	}
	if len(notifier.issued) != 0 {
		t.Fatal("no mail should be queued for a failed issue")
	}
}

func TestListByMerchantFilters(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.vouchers["GS-AAAA-AAAA"] = &models.Voucher{Code: "GS-AAAA-AAAA", MerchantID: "m1"}
	repo.vouchers["GS-BBBB-BBBB"] = &models.Voucher{Code: "GS-BBBB-BBBB", MerchantID: "m2"}

	got, err := svc.ListByMerchant(ctx, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Code != "GS-AAAA-AAAA" {
		t.Fatalf("expected only m1 vouchers, got %+v", got)
	}
}
