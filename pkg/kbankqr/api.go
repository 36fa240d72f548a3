package kbankqr

import (
	"context"
	"net/http"
	"strings"
)

// GetClientCredentials exchanges a consumer id/secret for an access token
// using the OAuth2 client-credentials grant.
func (c *Client) GetClientCredentials(ctx context.Context, consumerID, consumerSecret string, mode RequestMode) (*CustomerInfo, error) {
	if strings.TrimSpace(consumerID) == "" || strings.TrimSpace(consumerSecret) == "" {
		return nil, &ConfigurationError{Reason: "consumer id and secret are required"}
	}

	body, err := c.send(ctx, call{
		method:        http.MethodPost,
		path:          PathOAuthToken,
		mode:          mode,
		authorization: basicAuth(consumerID, consumerSecret),
		contentType:   contentTypeForm,
		body:          []byte(clientCredentials),
	})
	if err != nil {
		return nil, err
	}

	var info CustomerInfo
	if err := decodeResponse(PathOAuthToken, body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RequestQR generates a Thai QR or credit card QR.
func (c *Client) RequestQR(ctx context.Context, req QRRequest, accessToken string, mode RequestMode) (*QRResponse, error) {
	var wire qrResponseWire
	if err := c.postJSON(ctx, PathRequestQR, req, accessToken, mode, &wire); err != nil {
		return nil, err
	}
	return wire.toResponse(PathRequestQR)
}

// InquiryPayment returns the current status of a previously requested QR.
func (c *Client) InquiryPayment(ctx context.Context, req QRInquiryRequest, accessToken string, mode RequestMode) (*QRInquiryResponse, error) {
	var wire qrInquiryResponseWire
	if err := c.postJSON(ctx, PathInquiry, req, accessToken, mode, &wire); err != nil {
		return nil, err
	}
	return wire.toResponse(PathInquiry)
}

// CancelQR cancels a QR that has not been paid. For credit card QRs the bank
// only logs the cancellation; the QR stays usable.
func (c *Client) CancelQR(ctx context.Context, req QRCancelRequest, accessToken string, mode RequestMode) (*QRCancelResponse, error) {
	var wire qrCancelResponseWire
	if err := c.postJSON(ctx, PathCancel, req, accessToken, mode, &wire); err != nil {
		return nil, err
	}
	return wire.toResponse(PathCancel)
}

// VoidPayment reverses a paid transaction.
func (c *Client) VoidPayment(ctx context.Context, req QRVoidRequest, accessToken string, mode RequestMode) (*QRVoidResponse, error) {
	var wire qrVoidResponseWire
	if err := c.postJSON(ctx, PathVoid, req, accessToken, mode, &wire); err != nil {
		return nil, err
	}
	return wire.toResponse(PathVoid)
}

// GetSettlement retrieves the bank account credited for a QR type on a terminal.
func (c *Client) GetSettlement(ctx context.Context, req QRSettlementRequest, accessToken string, mode RequestMode) (*QRSettlementResponse, error) {
	var wire qrSettlementResponseWire
	if err := c.postJSON(ctx, PathSettlement, req, accessToken, mode, &wire); err != nil {
		return nil, err
	}
	return wire.toResponse(PathSettlement)
}

// TestTwoWaySSL calls the mutual-TLS exercise endpoint. The Client must have
// been built with an HTTP client presenting a client certificate, see
// NewMutualTLSHTTPClient.
func (c *Client) TestTwoWaySSL(ctx context.Context, accessToken string, mode RequestMode) (*SSLTestResponse, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, &ConfigurationError{Reason: "access token is required"}
	}

	body, err := c.send(ctx, call{
		method:        http.MethodGet,
		path:          PathExerciseSSL,
		mode:          mode,
		authorization: bearerAuth(accessToken),
	})
	if err != nil {
		return nil, err
	}

	var resp SSLTestResponse
	if err := decodeResponse(PathExerciseSSL, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
