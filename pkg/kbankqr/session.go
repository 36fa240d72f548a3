package kbankqr

import (
	"context"
	"time"
)

// Session holds one access token and issues the post-auth operations with it.
//
// A Session never refreshes its token. Once the token expires the bank
// answers with a TransportError (typically 401, see IsUnauthorized) and the
// caller must create a new Session.
type Session struct {
	client   *Client
	info     CustomerInfo
	mode     RequestMode
	issuedAt time.Time
}

// NewSession exchanges the consumer credentials for a token using authMode
// and returns a Session that sends subsequent calls with the same mode. Use
// WithMode to switch mode, e.g. between sandbox scenarios.
func NewSession(ctx context.Context, client *Client, consumerID, consumerSecret string, authMode RequestMode) (*Session, error) {
	info, err := client.GetClientCredentials(ctx, consumerID, consumerSecret, authMode)
	if err != nil {
		return nil, err
	}
	return &Session{
		client:   client,
		info:     *info,
		mode:     authMode,
		issuedAt: client.now(),
	}, nil
}

// ResumeSession wraps a token obtained earlier, e.g. from a cache. issuedAt
// is when the token was received.
func ResumeSession(client *Client, info CustomerInfo, issuedAt time.Time, mode RequestMode) *Session {
	return &Session{client: client, info: info, mode: mode, issuedAt: issuedAt}
}

// WithMode returns a copy of s that sends calls using mode.
func (s *Session) WithMode(mode RequestMode) *Session {
	cp := *s
	cp.mode = mode
	return &cp
}

// CustomerInfo returns the token envelope.
func (s *Session) CustomerInfo() CustomerInfo { return s.info }

// AccessToken returns the bearer token.
func (s *Session) AccessToken() string { return s.info.AccessToken }

// IssuedAt returns when the token was received.
func (s *Session) IssuedAt() time.Time { return s.issuedAt }

// ExpiresAt returns when the token stops being valid.
func (s *Session) ExpiresAt() (time.Time, error) {
	lifetime, err := s.info.Lifetime()
	if err != nil {
		return time.Time{}, err
	}
	return s.issuedAt.Add(lifetime), nil
}

// RequestQR calls Client.RequestQR with the session token and mode.
func (s *Session) RequestQR(ctx context.Context, req QRRequest) (*QRResponse, error) {
	return s.client.RequestQR(ctx, req, s.info.AccessToken, s.mode)
}

// InquiryPayment calls Client.InquiryPayment with the session token and mode.
func (s *Session) InquiryPayment(ctx context.Context, req QRInquiryRequest) (*QRInquiryResponse, error) {
	return s.client.InquiryPayment(ctx, req, s.info.AccessToken, s.mode)
}

// CancelQR calls Client.CancelQR with the session token and mode.
func (s *Session) CancelQR(ctx context.Context, req QRCancelRequest) (*QRCancelResponse, error) {
	return s.client.CancelQR(ctx, req, s.info.AccessToken, s.mode)
}

// VoidPayment calls Client.VoidPayment with the session token and mode.
func (s *Session) VoidPayment(ctx context.Context, req QRVoidRequest) (*QRVoidResponse, error) {
	return s.client.VoidPayment(ctx, req, s.info.AccessToken, s.mode)
}

// GetSettlement calls Client.GetSettlement with the session token and mode.
func (s *Session) GetSettlement(ctx context.Context, req QRSettlementRequest) (*QRSettlementResponse, error) {
	return s.client.GetSettlement(ctx, req, s.info.AccessToken, s.mode)
}

// TestTwoWaySSL calls the mutual-TLS exercise endpoint with the session token.
func (s *Session) TestTwoWaySSL(ctx context.Context) (*SSLTestResponse, error) {
	return s.client.TestTwoWaySSL(ctx, s.info.AccessToken, s.mode)
}
