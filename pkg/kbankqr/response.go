package kbankqr

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CustomerInfo is the OAuth2 token envelope. It is immutable once received;
// refreshing it before ExpiresIn elapses is the caller's job.
type CustomerInfo struct {
	AccessToken string `json:"access_token" validate:"required"`
	ClientID    string `json:"client_id"`
	Email       string `json:"developer.email"`
	ExpiresIn   string `json:"expires_in" validate:"required"`
	Scope       string `json:"scope"`
	Status      string `json:"status"`
	TokenType   string `json:"token_type" validate:"required"`
}

// Lifetime parses ExpiresIn, a numeric string of seconds.
func (c CustomerInfo) Lifetime() (time.Duration, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(c.ExpiresIn), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expires_in %q: %w", c.ExpiresIn, err)
	}
	return time.Duration(secs) * time.Second, nil
}

// Result is echoed by every QR payment response. ErrorCode and
// ErrorDescription are set only when the bank reports a business failure in
// an otherwise successful HTTP exchange.
type Result struct {
	PartnerTransactionUID string
	PartnerID             string
	StatusCode            StatusCode
	ErrorCode             string
	ErrorDescription      string
}

// OK reports whether the bank accepted the operation.
func (r Result) OK() bool { return r.StatusCode == StatusSuccess }

// QRResponse is the result of RequestQR.
type QRResponse struct {
	Result
	AccountName   string
	QRCode        string
	SourceOfFunds []ReturnedQRType
}

// QRInquiryResponse is the result of InquiryPayment.
type QRInquiryResponse struct {
	Result
	TransactionStatus            TransactionStatus
	TransactionNumber            string
	LoyaltyID                    string
	CardScheme                   string
	CardNumber                   string
	ApprovalCode                 string
	AdditionalTransactionNumbers []string
	Channel                      string
	MerchantID                   string
	TerminalID                   string
	QRType                       QRType
	TransactionAmount            decimal.Decimal
	TransactionCurrencyCode      string
	Reference1                   string
	Reference2                   string
	Reference3                   string
	Reference4                   string
}

// QRCancelResponse is the result of CancelQR.
type QRCancelResponse struct {
	Result
}

// QRVoidResponse is the result of VoidPayment.
type QRVoidResponse struct {
	Result
	TransactionNumber string
}

// QRSettlementResponse is the result of GetSettlement.
type QRSettlementResponse struct {
	Result
	SettlementAmount       decimal.Decimal
	SettlementCurrencyCode string
	AccountNumber          string
	AccountName            string
}

// SSLTestResponse is the result of the mutual-TLS exercise endpoint.
type SSLTestResponse struct {
	Status          string          `json:"status" validate:"required"`
	CertificateInfo CertificateInfo `json:"certificateObjs"`
}

// CertificateInfo describes the client certificate the bank saw.
type CertificateInfo struct {
	Subject string `json:"subject" validate:"required"`
}

// Wire shapes. Fields that only appear on success are required when
// statusCode is "00".

type resultWire struct {
	PartnerTxnUID string `json:"partnerTxnUid" validate:"required"`
	PartnerID     string `json:"partnerId" validate:"required"`
	StatusCode    string `json:"statusCode" validate:"required"`
	ErrorCode     string `json:"errorCode"`
	ErrorDesc     string `json:"errorDesc"`
}

type qrResponseWire struct {
	resultWire
	AccountName string   `json:"accountName" validate:"required_if=StatusCode 00"`
	QRCode      string   `json:"qrCode" validate:"required_if=StatusCode 00"`
	Sof         []string `json:"sof"`
}

type qrInquiryResponseWire struct {
	resultWire
	TxnStatus       string           `json:"txnStatus" validate:"required_if=StatusCode 00"`
	TxnNo           string           `json:"txnNo"`
	LoyaltyID       string           `json:"loyaltyId"`
	CardScheme      string           `json:"cardScheme"`
	CardNo          string           `json:"cardNo"`
	ApprovalCode    string           `json:"approvalCode"`
	AdditionalTxnNo []string         `json:"additionalTxnNo"`
	Channel         string           `json:"channel"`
	MerchantID      string           `json:"merchantId" validate:"required_if=StatusCode 00"`
	TerminalID      string           `json:"terminalId"`
	QRType          string           `json:"qrType" validate:"required_if=StatusCode 00"`
	TxnAmount       *decimal.Decimal `json:"txnAmount" validate:"required_if=StatusCode 00"`
	TxnCurrencyCode string           `json:"txnCurrencyCode" validate:"required_if=StatusCode 00"`
	Reference1      string           `json:"reference1" validate:"required_if=StatusCode 00"`
	Reference2      string           `json:"reference2"`
	Reference3      string           `json:"reference3"`
	Reference4      string           `json:"reference4"`
}

type qrCancelResponseWire struct {
	resultWire
}

type qrVoidResponseWire struct {
	resultWire
	TxnNo string `json:"txnNo" validate:"required_if=StatusCode 00"`
}

type qrSettlementResponseWire struct {
	resultWire
	SettlementAmount       *decimal.Decimal `json:"settlementAmount" validate:"required_if=StatusCode 00"`
	SettlementCurrencyCode string           `json:"settlementCurrencyCode" validate:"required_if=StatusCode 00"`
	AccountNo              string           `json:"accountNo" validate:"required_if=StatusCode 00"`
	AccountName            string           `json:"accountName" validate:"required_if=StatusCode 00"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report wire names in field errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeResponse unmarshals body into dst and checks required fields. Any
// failure is a MalformedResponseError.
func decodeResponse(endpoint string, body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		field := ""
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = wireFieldPath(reflect.TypeOf(dst), typeErr.Field)
		}
		return &MalformedResponseError{Endpoint: endpoint, Field: field, Err: err}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &MalformedResponseError{Endpoint: endpoint, Field: verrs[0].Field(), Err: errMissingField}
		}
		return &MalformedResponseError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// wireFieldPath drops the Go names of embedded structs from a json error
// path, leaving only wire names ("resultWire.partnerTxnUid" becomes
// "partnerTxnUid"). Dots inside a wire name such as "developer.email" are kept.
func wireFieldPath(t reflect.Type, path string) string {
	embedded := map[string]bool{}
	collectEmbedded(t, embedded)

	var out []string
	for _, seg := range strings.Split(path, ".") {
		if !embedded[seg] {
			out = append(out, seg)
		}
	}
	return strings.Join(out, ".")
}

func collectEmbedded(t reflect.Type, names map[string]bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			names[f.Name] = true
			collectEmbedded(f.Type, names)
		}
	}
}

func malformedCode(endpoint, field string, err error) error {
	return &MalformedResponseError{Endpoint: endpoint, Field: field, Err: err}
}

func (w resultWire) result(endpoint string) (Result, error) {
	status, err := ParseStatusCode(w.StatusCode)
	if err != nil {
		return Result{}, malformedCode(endpoint, "statusCode", err)
	}
	return Result{
		PartnerTransactionUID: w.PartnerTxnUID,
		PartnerID:             w.PartnerID,
		StatusCode:            status,
		ErrorCode:             w.ErrorCode,
		ErrorDescription:      w.ErrorDesc,
	}, nil
}

func (w qrResponseWire) toResponse(endpoint string) (*QRResponse, error) {
	res, err := w.result(endpoint)
	if err != nil {
		return nil, err
	}
	sof := make([]ReturnedQRType, 0, len(w.Sof))
	for _, code := range w.Sof {
		t, err := ParseReturnedQRType(code)
		if err != nil {
			return nil, malformedCode(endpoint, "sof", err)
		}
		sof = append(sof, t)
	}
	return &QRResponse{
		Result:        res,
		AccountName:   w.AccountName,
		QRCode:        w.QRCode,
		SourceOfFunds: sof,
	}, nil
}

func (w qrInquiryResponseWire) toResponse(endpoint string) (*QRInquiryResponse, error) {
	res, err := w.result(endpoint)
	if err != nil {
		return nil, err
	}
	out := &QRInquiryResponse{
		Result:                       res,
		TransactionNumber:            w.TxnNo,
		LoyaltyID:                    w.LoyaltyID,
		CardScheme:                   w.CardScheme,
		CardNumber:                   w.CardNo,
		ApprovalCode:                 w.ApprovalCode,
		AdditionalTransactionNumbers: w.AdditionalTxnNo,
		Channel:                      w.Channel,
		MerchantID:                   w.MerchantID,
		TerminalID:                   w.TerminalID,
		TransactionCurrencyCode:      w.TxnCurrencyCode,
		Reference1:                   w.Reference1,
		Reference2:                   w.Reference2,
		Reference3:                   w.Reference3,
		Reference4:                   w.Reference4,
	}
	// Error responses may omit the transaction block entirely.
	if w.TxnStatus != "" {
		if out.TransactionStatus, err = ParseTransactionStatus(w.TxnStatus); err != nil {
			return nil, malformedCode(endpoint, "txnStatus", err)
		}
	}
	if w.QRType != "" {
		if out.QRType, err = ParseQRType(w.QRType); err != nil {
			return nil, malformedCode(endpoint, "qrType", err)
		}
	}
	if w.TxnAmount != nil {
		out.TransactionAmount = *w.TxnAmount
	}
	return out, nil
}

func (w qrCancelResponseWire) toResponse(endpoint string) (*QRCancelResponse, error) {
	res, err := w.result(endpoint)
	if err != nil {
		return nil, err
	}
	return &QRCancelResponse{Result: res}, nil
}

func (w qrVoidResponseWire) toResponse(endpoint string) (*QRVoidResponse, error) {
	res, err := w.result(endpoint)
	if err != nil {
		return nil, err
	}
	return &QRVoidResponse{Result: res, TransactionNumber: w.TxnNo}, nil
}

func (w qrSettlementResponseWire) toResponse(endpoint string) (*QRSettlementResponse, error) {
	res, err := w.result(endpoint)
	if err != nil {
		return nil, err
	}
	out := &QRSettlementResponse{
		Result:                 res,
		SettlementCurrencyCode: w.SettlementCurrencyCode,
		AccountNumber:          w.AccountNo,
		AccountName:            w.AccountName,
	}
	if w.SettlementAmount != nil {
		out.SettlementAmount = *w.SettlementAmount
	}
	return out, nil
}
