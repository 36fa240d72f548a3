// Package sandbox drives the documented KBank sandbox scenarios end to end
// through the SDK.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/kbank_qr/internal/cache"
	"github.com/GTDGit/kbank_qr/internal/config"
	"github.com/GTDGit/kbank_qr/pkg/kbankqr"
)

// TokenStore caches access tokens between runs. *cache.TokenCache satisfies it.
type TokenStore interface {
	Get(ctx context.Context, baseURL, consumerID string) (*cache.TokenData, error)
	Set(ctx context.Context, baseURL, consumerID string, data *cache.TokenData) error
}

// Runner executes sandbox scenarios with one consumer and partner identity.
type Runner struct {
	client         *kbankqr.Client
	consumerID     string
	consumerSecret string
	partner        config.PartnerConfig
	baseURL        string
	tokens         TokenStore
}

// NewRunner creates a Runner. baseURL may be empty for the public sandbox.
// tokens may be nil to always request a fresh token.
func NewRunner(client *kbankqr.Client, kbank config.KBankConfig, partner config.PartnerConfig, tokens TokenStore) *Runner {
	return &Runner{
		client:         client,
		consumerID:     kbank.ConsumerID,
		consumerSecret: kbank.ConsumerSecret,
		partner:        partner,
		baseURL:        kbank.BaseURL,
		tokens:         tokens,
	}
}

// NewPartnerTxnUID returns a fresh partner transaction id.
func NewPartnerTxnUID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "PARTNERTEST" + strings.ToUpper(id[:12])
}

func (r *Runner) mode(scenario string) kbankqr.Sandbox {
	return kbankqr.Sandbox{Scenario: scenario, BaseURL: r.baseURL}
}

func (r *Runner) cacheKey() string {
	if r.baseURL == "" {
		return kbankqr.SandboxBaseURL
	}
	return r.baseURL
}

// Session returns a session for the sandbox, reusing a cached token when one
// is available.
func (r *Runner) Session(ctx context.Context) (*kbankqr.Session, error) {
	if r.tokens != nil {
		data, err := r.tokens.Get(ctx, r.cacheKey(), r.consumerID)
		if err == nil {
			log.Debug().Str("consumer_id", r.consumerID).Msg("[SANDBOX] Using cached token")
			return kbankqr.ResumeSession(r.client, data.Info, data.IssuedAt, r.mode("")), nil
		}
		if !cache.IsMiss(err) {
			log.Warn().Err(err).Msg("[SANDBOX] Token cache lookup failed")
		}
	}

	s, err := kbankqr.NewSession(ctx, r.client, r.consumerID, r.consumerSecret, r.mode(kbankqr.ScenarioOAuth2))
	if err != nil {
		return nil, err
	}

	if r.tokens != nil {
		data := &cache.TokenData{Info: s.CustomerInfo(), IssuedAt: s.IssuedAt()}
		if err := r.tokens.Set(ctx, r.cacheKey(), r.consumerID, data); err != nil {
			log.Warn().Err(err).Msg("[SANDBOX] Failed to cache token")
		}
	}
	return s, nil
}

// PartnerFor returns the configured partner identity for txnUID.
func (r *Runner) PartnerFor(txnUID string) kbankqr.Partner {
	return kbankqr.Partner{
		PartnerTransactionUID: txnUID,
		PartnerID:             r.partner.PartnerID,
		PartnerSecret:         r.partner.PartnerSecret,
		MerchantID:            r.partner.MerchantID,
		TerminalID:            r.partner.TerminalID,
	}
}

// Outcome is the result of one scenario.
type Outcome struct {
	Scenario      string
	PartnerTxnUID string
	StatusCode    kbankqr.StatusCode
	Detail        string
	Duration      time.Duration
}

// Run executes the scenario with the given id.
func (r *Runner) Run(ctx context.Context, id string) (*Outcome, error) {
	sc, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", id)
	}

	start := time.Now()
	out, err := sc.run(ctx, r)
	if err != nil {
		log.Error().Err(err).Str("scenario", sc.ID).Msg("[SANDBOX] Scenario failed")
		return nil, fmt.Errorf("scenario %s: %w", sc.ID, err)
	}
	out.Scenario = sc.ID
	out.Duration = time.Since(start)

	log.Info().
		Str("scenario", out.Scenario).
		Str("partner_txn_uid", out.PartnerTxnUID).
		Str("status_code", out.StatusCode.String()).
		Str("detail", out.Detail).
		Dur("duration", out.Duration).
		Msg("[SANDBOX] Scenario completed")
	return out, nil
}

// RunAll executes every scenario in catalog order and stops at the first failure.
func (r *Runner) RunAll(ctx context.Context) ([]*Outcome, error) {
	outcomes := make([]*Outcome, 0, len(catalog))
	for _, sc := range catalog {
		out, err := r.Run(ctx, sc.ID)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// requestQR issues a fresh 100.00 THB QR request under scenario.
func (r *Runner) requestQR(ctx context.Context, s *kbankqr.Session, scenario string, qrType kbankqr.QRType) (*kbankqr.QRResponse, error) {
	req := kbankqr.QRRequest{
		Partner:                 r.PartnerFor(NewPartnerTxnUID()),
		QRType:                  qrType,
		TransactionAmount:       decimal.NewFromInt(100),
		TransactionCurrencyCode: "THB",
		Reference1:              "INV001",
	}
	resp, err := s.WithMode(r.mode(scenario)).RequestQR(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("request QR rejected: %s %s", resp.ErrorCode, resp.ErrorDescription)
	}
	return resp, nil
}
