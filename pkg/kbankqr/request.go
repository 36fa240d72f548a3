package kbankqr

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// requestDateTimeLayout is ISO-8601 with milliseconds and a numeric offset.
// UTC is written as +00:00, never Z.
const requestDateTimeLayout = "2006-01-02T15:04:05.000-07:00"

// Partner identifies the caller on every QR payment operation.
type Partner struct {
	PartnerTransactionUID string
	PartnerID             string
	PartnerSecret         string
	MerchantID            string
	TerminalID            string // optional except for settlement
}

// QRRequest asks the bank to generate a QR code.
type QRRequest struct {
	Partner
	QRType                  QRType
	TransactionAmount       decimal.Decimal
	TransactionCurrencyCode string
	Reference1              string
	Reference2              string
	Reference3              string
	Reference4              string
}

// QRInquiryRequest asks for the status of a previously requested QR.
type QRInquiryRequest struct {
	Partner
	OriginalPartnerTransactionUID string
	TransactionNumber             string
}

// QRCancelRequest cancels an unpaid QR.
type QRCancelRequest struct {
	Partner
	OriginalPartnerTransactionUID string
}

// QRVoidRequest reverses a paid transaction.
type QRVoidRequest struct {
	Partner
	OriginalPartnerTransactionUID string
	TransactionNumber             string
}

// QRSettlementRequest retrieves the account credited for a QR type on a terminal.
type QRSettlementRequest struct {
	Partner
	QRType QRType
}

// Wire projections. Field names follow the bank's contract exactly.

type partnerWire struct {
	PartnerTxnUID string `json:"partnerTxnUid"`
	PartnerID     string `json:"partnerId"`
	PartnerSecret string `json:"partnerSecret"`
	MerchantID    string `json:"merchantId"`
	TerminalID    string `json:"terminalId,omitempty"`
}

// wireAmount always renders two fractional digits: 100 becomes 100.00.
type wireAmount struct {
	decimal.Decimal
}

func (a wireAmount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

type qrRequestWire struct {
	partnerWire
	QRType          string     `json:"qrType"`
	TxnAmount       wireAmount `json:"txnAmount"`
	TxnCurrencyCode string     `json:"txnCurrencyCode"`
	Reference1      string     `json:"reference1"`
	Reference2      string     `json:"reference2,omitempty"`
	Reference3      string     `json:"reference3,omitempty"`
	Reference4      string     `json:"reference4,omitempty"`
	RequestDt       string     `json:"requestDt"`
}

type qrInquiryRequestWire struct {
	partnerWire
	OrigPartnerTxnUID string `json:"origPartnerTxnUid"`
	TxnNo             string `json:"txnNo,omitempty"`
	RequestDt         string `json:"requestDt"`
}

type qrCancelRequestWire struct {
	partnerWire
	OrigPartnerTxnUID string `json:"origPartnerTxnUid"`
	RequestDt         string `json:"requestDt"`
}

type qrVoidRequestWire struct {
	partnerWire
	OrigPartnerTxnUID string `json:"origPartnerTxnUid"`
	TxnNo             string `json:"txnNo,omitempty"`
	RequestDt         string `json:"requestDt"`
}

type qrSettlementRequestWire struct {
	partnerWire
	QRType    string `json:"qrType"`
	RequestDt string `json:"requestDt"`
}

// envelope is implemented by every caller-facing request.
type envelope interface {
	validate() error
	encode(now time.Time) ([]byte, error)
}

func formatRequestDateTime(t time.Time) string {
	return t.Format(requestDateTimeLayout)
}

func (p Partner) wire() partnerWire {
	return partnerWire{
		PartnerTxnUID: p.PartnerTransactionUID,
		PartnerID:     p.PartnerID,
		PartnerSecret: p.PartnerSecret,
		MerchantID:    p.MerchantID,
		TerminalID:    p.TerminalID,
	}
}

func (p Partner) validate() error {
	return requireFields(
		"partnerTransactionUid", p.PartnerTransactionUID,
		"partnerId", p.PartnerID,
		"partnerSecret", p.PartnerSecret,
		"merchantId", p.MerchantID,
	)
}

// requireFields takes name/value pairs and reports every blank value.
func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Reason: "missing required request fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

func validQRType(t QRType) error {
	if t.Code() == "" {
		return &ConfigurationError{Reason: "unsupported qrType: " + t.String()}
	}
	return nil
}

func (r QRRequest) validate() error {
	if err := r.Partner.validate(); err != nil {
		return err
	}
	if err := validQRType(r.QRType); err != nil {
		return err
	}
	if !r.TransactionAmount.IsPositive() {
		return &ConfigurationError{Reason: "transactionAmount must be positive"}
	}
	if !r.TransactionAmount.Equal(r.TransactionAmount.Round(2)) {
		return &ConfigurationError{Reason: "transactionAmount must have at most two decimal places"}
	}
	return requireFields(
		"transactionCurrencyCode", r.TransactionCurrencyCode,
		"reference1", r.Reference1,
	)
}

func (r QRRequest) encode(now time.Time) ([]byte, error) {
	return json.Marshal(qrRequestWire{
		partnerWire:     r.Partner.wire(),
		QRType:          r.QRType.Code(),
		TxnAmount:       wireAmount{r.TransactionAmount},
		TxnCurrencyCode: r.TransactionCurrencyCode,
		Reference1:      r.Reference1,
		Reference2:      r.Reference2,
		Reference3:      r.Reference3,
		Reference4:      r.Reference4,
		RequestDt:       formatRequestDateTime(now),
	})
}

func (r QRInquiryRequest) validate() error {
	if err := r.Partner.validate(); err != nil {
		return err
	}
	return requireFields("origPartnerTransactionUid", r.OriginalPartnerTransactionUID)
}

func (r QRInquiryRequest) encode(now time.Time) ([]byte, error) {
	return json.Marshal(qrInquiryRequestWire{
		partnerWire:       r.Partner.wire(),
		OrigPartnerTxnUID: r.OriginalPartnerTransactionUID,
		TxnNo:             r.TransactionNumber,
		RequestDt:         formatRequestDateTime(now),
	})
}

func (r QRCancelRequest) validate() error {
	if err := r.Partner.validate(); err != nil {
		return err
	}
	return requireFields("origPartnerTransactionUid", r.OriginalPartnerTransactionUID)
}

func (r QRCancelRequest) encode(now time.Time) ([]byte, error) {
	return json.Marshal(qrCancelRequestWire{
		partnerWire:       r.Partner.wire(),
		OrigPartnerTxnUID: r.OriginalPartnerTransactionUID,
		RequestDt:         formatRequestDateTime(now),
	})
}

func (r QRVoidRequest) validate() error {
	if err := r.Partner.validate(); err != nil {
		return err
	}
	return requireFields("origPartnerTransactionUid", r.OriginalPartnerTransactionUID)
}

func (r QRVoidRequest) encode(now time.Time) ([]byte, error) {
	return json.Marshal(qrVoidRequestWire{
		partnerWire:       r.Partner.wire(),
		OrigPartnerTxnUID: r.OriginalPartnerTransactionUID,
		TxnNo:             r.TransactionNumber,
		RequestDt:         formatRequestDateTime(now),
	})
}

func (r QRSettlementRequest) validate() error {
	if err := r.Partner.validate(); err != nil {
		return err
	}
	if err := validQRType(r.QRType); err != nil {
		return err
	}
	return requireFields("terminalId", r.TerminalID)
}

func (r QRSettlementRequest) encode(now time.Time) ([]byte, error) {
	return json.Marshal(qrSettlementRequestWire{
		partnerWire: r.Partner.wire(),
		QRType:      r.QRType.Code(),
		RequestDt:   formatRequestDateTime(now),
	})
}
