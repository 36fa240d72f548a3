package sandbox

import (
	"context"
	"fmt"
	"sort"

	"github.com/GTDGit/kbank_qr/pkg/kbankqr"
)

// Scenario is one documented sandbox case.
type Scenario struct {
	ID          string
	Description string
	run         func(ctx context.Context, r *Runner) (*Outcome, error)
}

var catalog = []Scenario{
	{ID: kbankqr.ScenarioOAuth2, Description: "Issue an OAuth2 access token", run: runOAuth2},
	{ID: kbankqr.ScenarioQR002, Description: "Request a Thai QR", run: runRequest(kbankqr.ScenarioQR002, kbankqr.QRTypeThaiQR)},
	{ID: kbankqr.ScenarioQR003, Description: "Request a credit card QR", run: runRequest(kbankqr.ScenarioQR003, kbankqr.QRTypeCreditCard)},
	{ID: kbankqr.ScenarioQR004, Description: "Inquire a requested QR", run: runInquiry(kbankqr.ScenarioQR004, kbankqr.TxnRequested)},
	{ID: kbankqr.ScenarioQR005, Description: "Inquire a cancelled QR", run: runInquiry(kbankqr.ScenarioQR005, kbankqr.TxnCancelled)},
	{ID: kbankqr.ScenarioQR006, Description: "Inquire a paid QR", run: runInquiry(kbankqr.ScenarioQR006, kbankqr.TxnPaid)},
	{ID: kbankqr.ScenarioQR007, Description: "Inquire a voided QR", run: runInquiry(kbankqr.ScenarioQR007, kbankqr.TxnVoided)},
	{ID: kbankqr.ScenarioQR008, Description: "Cancel a requested QR", run: runCancel},
}

var catalogIndex = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, sc := range catalog {
		m[sc.ID] = i
	}
	return m
}()

// Scenarios lists the runnable scenarios in execution order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a scenario by id.
func Lookup(id string) (Scenario, bool) {
	i, ok := catalogIndex[id]
	if !ok {
		return Scenario{}, false
	}
	return catalog[i], true
}

// IDs returns the scenario ids sorted.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, sc := range catalog {
		ids = append(ids, sc.ID)
	}
	sort.Strings(ids)
	return ids
}

func runOAuth2(ctx context.Context, r *Runner) (*Outcome, error) {
	s, err := r.Session(ctx)
	if err != nil {
		return nil, err
	}
	expiresAt, err := s.ExpiresAt()
	if err != nil {
		return nil, err
	}
	return &Outcome{
		StatusCode: kbankqr.StatusSuccess,
		Detail:     "token expires at " + expiresAt.Format("15:04:05"),
	}, nil
}

func runRequest(scenario string, qrType kbankqr.QRType) func(context.Context, *Runner) (*Outcome, error) {
	return func(ctx context.Context, r *Runner) (*Outcome, error) {
		s, err := r.Session(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := r.requestQR(ctx, s, scenario, qrType)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			PartnerTxnUID: resp.PartnerTransactionUID,
			StatusCode:    resp.StatusCode,
			Detail:        fmt.Sprintf("sof=%v", resp.SourceOfFunds),
		}, nil
	}
}

func runInquiry(scenario string, want kbankqr.TransactionStatus) func(context.Context, *Runner) (*Outcome, error) {
	return func(ctx context.Context, r *Runner) (*Outcome, error) {
		s, err := r.Session(ctx)
		if err != nil {
			return nil, err
		}
		qr, err := r.requestQR(ctx, s, kbankqr.ScenarioQR002, kbankqr.QRTypeThaiQR)
		if err != nil {
			return nil, err
		}
		resp, err := s.WithMode(r.mode(scenario)).InquiryPayment(ctx, kbankqr.QRInquiryRequest{
			Partner:                       r.PartnerFor(NewPartnerTxnUID()),
			OriginalPartnerTransactionUID: qr.PartnerTransactionUID,
		})
		if err != nil {
			return nil, err
		}
		if resp.TransactionStatus != want {
			return nil, fmt.Errorf("expected txnStatus %s, got %s", want, resp.TransactionStatus)
		}
		return &Outcome{
			PartnerTxnUID: resp.PartnerTransactionUID,
			StatusCode:    resp.StatusCode,
			Detail:        "txnStatus=" + resp.TransactionStatus.String(),
		}, nil
	}
}

func runCancel(ctx context.Context, r *Runner) (*Outcome, error) {
	s, err := r.Session(ctx)
	if err != nil {
		return nil, err
	}
	qr, err := r.requestQR(ctx, s, kbankqr.ScenarioQR002, kbankqr.QRTypeThaiQR)
	if err != nil {
		return nil, err
	}
	resp, err := s.WithMode(r.mode(kbankqr.ScenarioQR008)).CancelQR(ctx, kbankqr.QRCancelRequest{
		Partner:                       r.PartnerFor(NewPartnerTxnUID()),
		OriginalPartnerTransactionUID: qr.PartnerTransactionUID,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("cancel rejected: %s %s", resp.ErrorCode, resp.ErrorDescription)
	}
	return &Outcome{
		PartnerTxnUID: resp.PartnerTransactionUID,
		StatusCode:    resp.StatusCode,
		Detail:        "cancelled " + qr.PartnerTransactionUID,
	}, nil
}
