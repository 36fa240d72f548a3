package kbankqr

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCustomerInfoLifetime(t *testing.T) {
	info := CustomerInfo{ExpiresIn: "1799"}
	d, err := info.Lifetime()
	require.NoError(t, err)
	require.Equal(t, 1799*time.Second, d)

	_, err = CustomerInfo{ExpiresIn: "soon"}.Lifetime()
	require.Error(t, err)
}

func TestDecodeTokenRequiresFields(t *testing.T) {
	var info CustomerInfo
	err := decodeResponse(PathOAuthToken, []byte(`{"token_type":"Bearer","expires_in":"1799"}`), &info)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	require.Equal(t, "access_token", me.Field)
	require.ErrorIs(t, err, errMissingField)
}

func TestDecodeTokenWireNames(t *testing.T) {
	var info CustomerInfo
	body := `{"access_token":"abc","client_id":"cid","developer.email":"dev@example.com",
		"expires_in":"1799","scope":"","status":"approved","token_type":"Bearer"}`
	require.NoError(t, decodeResponse(PathOAuthToken, []byte(body), &info))
	require.Equal(t, "dev@example.com", info.Email)
	require.Equal(t, "cid", info.ClientID)
}

func TestDecodeRejectsNonJSON(t *testing.T) {
	var wire qrResponseWire
	err := decodeResponse(PathRequestQR, []byte(`<html>oops</html>`), &wire)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	require.Equal(t, PathRequestQR, me.Endpoint)
	require.Empty(t, me.Field)
}

func TestDecodeWrongType(t *testing.T) {
	var wire qrResponseWire
	err := decodeResponse(PathRequestQR, []byte(`{"partnerTxnUid":"P","partnerId":"I","statusCode":"00","sof":"PP"}`), &wire)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	require.Equal(t, "sof", me.Field)
}

func TestBusinessErrorSkipsSuccessFields(t *testing.T) {
	var wire qrResponseWire
	body := `{"partnerTxnUid":"P","partnerId":"I","statusCode":"10","errorCode":"ERR_AMOUNT","errorDesc":"bad amount"}`
	require.NoError(t, decodeResponse(PathRequestQR, []byte(body), &wire))

	resp, err := wire.toResponse(PathRequestQR)
	require.NoError(t, err)
	require.False(t, resp.OK())
	require.Equal(t, StatusError, resp.StatusCode)
	require.Equal(t, "ERR_AMOUNT", resp.ErrorCode)
	require.Equal(t, "bad amount", resp.ErrorDescription)
	require.Empty(t, resp.SourceOfFunds)
}

func TestSuccessRequiresQRCode(t *testing.T) {
	var wire qrResponseWire
	body := `{"partnerTxnUid":"P","partnerId":"I","statusCode":"00","accountName":"SHOP","sof":["PP"]}`
	err := decodeResponse(PathRequestQR, []byte(body), &wire)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	require.Equal(t, "qrCode", me.Field)
}

func TestUnknownStatusCodeIsMalformed(t *testing.T) {
	var wire qrCancelResponseWire
	body := `{"partnerTxnUid":"P","partnerId":"I","statusCode":"99"}`
	require.NoError(t, decodeResponse(PathCancel, []byte(body), &wire))

	_, err := wire.toResponse(PathCancel)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	require.Equal(t, "statusCode", me.Field)

	var ice *InvalidCodeError
	require.ErrorAs(t, err, &ice)
	require.Equal(t, "99", ice.Code)
}

func TestUnknownSourceOfFundsIsMalformed(t *testing.T) {
	wire := qrResponseWire{
		resultWire:  resultWire{PartnerTxnUID: "P", PartnerID: "I", StatusCode: "00"},
		AccountName: "SHOP",
		QRCode:      "000201",
		Sof:         []string{"PP", "XX"},
	}
	_, err := wire.toResponse(PathRequestQR)
	var ice *InvalidCodeError
	require.ErrorAs(t, err, &ice)
	require.Equal(t, FamilyReturnedQRType, ice.Family)
}

func TestInquiryAmountAcceptsNumberOrString(t *testing.T) {
	for _, amount := range []string{`100.5`, `"100.50"`} {
		var wire qrInquiryResponseWire
		body := `{"partnerTxnUid":"P","partnerId":"I","statusCode":"00","txnStatus":"paid","merchantId":"M",
			"qrType":"3","txnAmount":` + amount + `,"txnCurrencyCode":"THB","reference1":"R1"}`
		require.NoError(t, decodeResponse(PathInquiry, []byte(body), &wire), amount)

		resp, err := wire.toResponse(PathInquiry)
		require.NoError(t, err)
		require.True(t, decimal.RequireFromString("100.50").Equal(resp.TransactionAmount))
		require.Equal(t, TxnPaid, resp.TransactionStatus)
		require.Equal(t, QRTypeThaiQR, resp.QRType)
	}
}

func TestInquiryBusinessErrorWithoutTransaction(t *testing.T) {
	var wire qrInquiryResponseWire
	body := `{"partnerTxnUid":"P","partnerId":"I","statusCode":"10","errorCode":"TXN_NOT_FOUND","errorDesc":"not found"}`
	require.NoError(t, decodeResponse(PathInquiry, []byte(body), &wire))

	resp, err := wire.toResponse(PathInquiry)
	require.NoError(t, err)
	require.Equal(t, "TXN_NOT_FOUND", resp.ErrorCode)
	require.Zero(t, resp.TransactionStatus)
}

func TestDecodeWrongTypeOnEmbeddedField(t *testing.T) {
	var wire qrResponseWire
	body := `{"partnerTxnUid":5,"partnerId":"I","statusCode":"00","accountName":"SHOP","qrCode":"000201","sof":["PP"]}`
	err := decodeResponse(PathRequestQR, []byte(body), &wire)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	require.Equal(t, "partnerTxnUid", me.Field)
}

func TestWireFieldPath(t *testing.T) {
	require.Equal(t, "partnerTxnUid", wireFieldPath(reflect.TypeOf(&qrSettlementResponseWire{}), "resultWire.partnerTxnUid"))
	require.Equal(t, "certificateObjs.subject", wireFieldPath(reflect.TypeOf(&SSLTestResponse{}), "certificateObjs.subject"))
	require.Equal(t, "developer.email", wireFieldPath(reflect.TypeOf(&CustomerInfo{}), "developer.email"))
}
