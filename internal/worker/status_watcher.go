package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/kbank_qr/pkg/kbankqr"
)

// ErrWatchTimeout is returned when a QR is still not final after maxAge.
var ErrWatchTimeout = errors.New("transaction did not reach a final status in time")

// Inquirer is the part of kbankqr.Session the watcher needs.
type Inquirer interface {
	InquiryPayment(ctx context.Context, req kbankqr.QRInquiryRequest) (*kbankqr.QRInquiryResponse, error)
}

// StatusWatcher re-inquires a requested QR until the bank reports a final
// status. Each tick inquires with a fresh partner transaction id.
type StatusWatcher struct {
	inquirer Inquirer
	newTxnID func() string
	interval time.Duration
	maxAge   time.Duration
}

// NewStatusWatcher constructs a StatusWatcher. newTxnID supplies the partner
// transaction id for each inquiry.
func NewStatusWatcher(inquirer Inquirer, newTxnID func() string, interval, maxAge time.Duration) *StatusWatcher {
	return &StatusWatcher{
		inquirer: inquirer,
		newTxnID: newTxnID,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Watch polls until the transaction is final, maxAge elapses or ctx is done.
// Paid is reported as soon as it is seen even though it can still be voided.
// Transport errors that IsRetryable accepts are logged and retried on the
// next tick; anything else ends the watch.
func (w *StatusWatcher) Watch(ctx context.Context, partner kbankqr.Partner, origPartnerTxnUID string) (*kbankqr.QRInquiryResponse, error) {
	if w.interval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", w.interval)
	}

	log.Info().
		Str("orig_partner_txn_uid", origPartnerTxnUID).
		Dur("interval", w.interval).
		Dur("max_age", w.maxAge).
		Msg("Starting status watcher")

	deadline := time.Now().Add(w.maxAge)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		resp, done, err := w.check(ctx, partner, origPartnerTxnUID)
		if done {
			return resp, err
		}
		if time.Now().After(deadline) {
			log.Warn().Str("orig_partner_txn_uid", origPartnerTxnUID).Msg("Status watcher timed out")
			return resp, ErrWatchTimeout
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Info().Msg("Status watcher stopped")
			return resp, ctx.Err()
		}
	}
}

func (w *StatusWatcher) check(ctx context.Context, partner kbankqr.Partner, origPartnerTxnUID string) (*kbankqr.QRInquiryResponse, bool, error) {
	partner.PartnerTransactionUID = w.newTxnID()
	resp, err := w.inquirer.InquiryPayment(ctx, kbankqr.QRInquiryRequest{
		Partner:                       partner,
		OriginalPartnerTransactionUID: origPartnerTxnUID,
	})
	if err != nil {
		if kbankqr.IsRetryable(err) {
			log.Warn().Err(err).Str("orig_partner_txn_uid", origPartnerTxnUID).Msg("Inquiry failed, will retry later")
			return nil, false, nil
		}
		return nil, true, err
	}
	if !resp.OK() {
		return resp, true, fmt.Errorf("inquiry rejected: %s %s", resp.ErrorCode, resp.ErrorDescription)
	}

	log.Debug().
		Str("orig_partner_txn_uid", origPartnerTxnUID).
		Str("txn_status", resp.TransactionStatus.String()).
		Msg("Inquiry status")

	if resp.TransactionStatus.IsFinal() || resp.TransactionStatus == kbankqr.TxnPaid {
		return resp, true, nil
	}
	return resp, false, nil
}
