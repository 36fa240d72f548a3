package kbankqr

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.FixedZone("ICT", 7*3600))

func testPartner() Partner {
	return Partner{
		PartnerTransactionUID: "PARTNERTEST0001",
		PartnerID:             "PTR1051673",
		PartnerSecret:         "d4bded59200547bc85903574a293831b",
		MerchantID:            "KB102057149704",
	}
}

func decodeMap(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestQRRequestEncode(t *testing.T) {
	req := QRRequest{
		Partner:                 testPartner(),
		QRType:                  QRTypeThaiQR,
		TransactionAmount:       decimal.NewFromInt(100),
		TransactionCurrencyCode: "THB",
		Reference1:              "INV001",
	}
	require.NoError(t, req.validate())

	data, err := req.encode(fixedTime)
	require.NoError(t, err)
	require.Contains(t, string(data), `"txnAmount":100.00`)
	require.Contains(t, string(data), `"qrType":"3"`)
	require.Contains(t, string(data), `"requestDt":"2024-05-06T07:08:09.123+07:00"`)

	m := decodeMap(t, data)
	require.Equal(t, "PARTNERTEST0001", m["partnerTxnUid"])
	require.Equal(t, "PTR1051673", m["partnerId"])
	require.Equal(t, "KB102057149704", m["merchantId"])
	require.Equal(t, "THB", m["txnCurrencyCode"])
	require.Equal(t, "INV001", m["reference1"])
	require.NotContains(t, m, "terminalId")
	require.NotContains(t, m, "reference2")
}

func TestQRRequestCreditCard(t *testing.T) {
	req := QRRequest{
		Partner:                 testPartner(),
		QRType:                  QRTypeCreditCard,
		TransactionAmount:       decimal.RequireFromString("1.5"),
		TransactionCurrencyCode: "THB",
		Reference1:              "INV002",
		Reference2:              "ORDER-9",
	}
	data, err := req.encode(fixedTime)
	require.NoError(t, err)
	require.Contains(t, string(data), `"qrType":"4"`)
	require.Contains(t, string(data), `"txnAmount":1.50`)
	require.Contains(t, string(data), `"reference2":"ORDER-9"`)
}

func TestRequestDateTimeUTC(t *testing.T) {
	got := formatRequestDateTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.Equal(t, "2024-01-02T03:04:05.000+00:00", got)
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}[+-]\d{2}:\d{2}$`, formatRequestDateTime(time.Now()))
}

func TestQRRequestValidation(t *testing.T) {
	base := QRRequest{
		Partner:                 testPartner(),
		QRType:                  QRTypeThaiQR,
		TransactionAmount:       decimal.NewFromInt(10),
		TransactionCurrencyCode: "THB",
		Reference1:              "INV001",
	}

	tests := []struct {
		name   string
		mutate func(*QRRequest)
		reason string
	}{
		{"missing partner id", func(r *QRRequest) { r.PartnerID = "" }, "missing required request fields: partnerId"},
		{"missing two", func(r *QRRequest) { r.PartnerSecret = ""; r.MerchantID = " " }, "missing required request fields: partnerSecret, merchantId"},
		{"bad qr type", func(r *QRRequest) { r.QRType = 0 }, "unsupported qrType: QRType(0)"},
		{"zero amount", func(r *QRRequest) { r.TransactionAmount = decimal.Zero }, "transactionAmount must be positive"},
		{"sub-satang amount", func(r *QRRequest) { r.TransactionAmount = decimal.RequireFromString("100.005") }, "transactionAmount must have at most two decimal places"},
		{"missing reference1", func(r *QRRequest) { r.Reference1 = "" }, "missing required request fields: reference1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			err := req.validate()
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			require.Equal(t, tt.reason, ce.Reason)
		})
	}
}

func TestInquiryRequestEncode(t *testing.T) {
	req := QRInquiryRequest{
		Partner:                       testPartner(),
		OriginalPartnerTransactionUID: "PARTNERTEST0000",
	}
	require.NoError(t, req.validate())

	data, err := req.encode(fixedTime)
	require.NoError(t, err)
	m := decodeMap(t, data)
	require.Equal(t, "PARTNERTEST0000", m["origPartnerTxnUid"])
	require.NotContains(t, m, "txnNo")

	req.TransactionNumber = "TXN1"
	data, err = req.encode(fixedTime)
	require.NoError(t, err)
	require.Equal(t, "TXN1", decodeMap(t, data)["txnNo"])

	req.OriginalPartnerTransactionUID = ""
	require.Error(t, req.validate())
}

func TestCancelAndVoidEncode(t *testing.T) {
	cancel := QRCancelRequest{Partner: testPartner(), OriginalPartnerTransactionUID: "ORIG1"}
	data, err := cancel.encode(fixedTime)
	require.NoError(t, err)
	require.Equal(t, "ORIG1", decodeMap(t, data)["origPartnerTxnUid"])

	void := QRVoidRequest{Partner: testPartner(), OriginalPartnerTransactionUID: "ORIG2", TransactionNumber: "TXN2"}
	require.NoError(t, void.validate())
	data, err = void.encode(fixedTime)
	require.NoError(t, err)
	m := decodeMap(t, data)
	require.Equal(t, "ORIG2", m["origPartnerTxnUid"])
	require.Equal(t, "TXN2", m["txnNo"])
}

func TestSettlementRequestRequiresTerminal(t *testing.T) {
	req := QRSettlementRequest{Partner: testPartner(), QRType: QRTypeThaiQR}
	err := req.validate()
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "missing required request fields: terminalId", ce.Reason)

	req.TerminalID = "T0001"
	require.NoError(t, req.validate())
	data, err := req.encode(fixedTime)
	require.NoError(t, err)
	m := decodeMap(t, data)
	require.Equal(t, "T0001", m["terminalId"])
	require.Equal(t, "3", m["qrType"])
}

func TestQRRequestAmountTrailingZeros(t *testing.T) {
	req := QRRequest{
		Partner:                 testPartner(),
		QRType:                  QRTypeThaiQR,
		TransactionAmount:       decimal.RequireFromString("100.500"),
		TransactionCurrencyCode: "THB",
		Reference1:              "INV001",
	}
	require.NoError(t, req.validate())
	data, err := req.encode(fixedTime)
	require.NoError(t, err)
	require.Contains(t, string(data), `"txnAmount":100.50`)
}
