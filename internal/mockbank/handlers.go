package mockbank

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// qrBody is the subset of request fields the double echoes back.
type qrBody struct {
	PartnerTxnUID     string `json:"partnerTxnUid" binding:"required"`
	PartnerID         string `json:"partnerId" binding:"required"`
	PartnerSecret     string `json:"partnerSecret" binding:"required"`
	MerchantID        string `json:"merchantId" binding:"required"`
	TerminalID        string `json:"terminalId"`
	QRType            string `json:"qrType"`
	TxnAmount         any    `json:"txnAmount"`
	TxnCurrencyCode   string `json:"txnCurrencyCode"`
	Reference1        string `json:"reference1"`
	Reference2        string `json:"reference2"`
	Reference3        string `json:"reference3"`
	Reference4        string `json:"reference4"`
	OrigPartnerTxnUID string `json:"origPartnerTxnUid"`
	TxnNo             string `json:"txnNo"`
	RequestDt         string `json:"requestDt" binding:"required"`
}

// inquiryStatuses maps sandbox scenarios to the transaction status they report.
var inquiryStatuses = map[string]string{
	"QR004": "REQUESTED",
	"QR005": "CANCELLED",
	"QR006": "PAID",
	"QR007": "VOIDED",
}

func bindQR(c *gin.Context) (*qrBody, bool) {
	var body qrBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errorCode": "400",
			"errorDesc": err.Error(),
		})
		return nil, false
	}
	return &body, true
}

func result(body *qrBody) gin.H {
	return gin.H{
		"partnerTxnUid": body.PartnerTxnUID,
		"partnerId":     body.PartnerID,
		"statusCode":    "00",
	}
}

func (b *Bank) handleToken(c *gin.Context) {
	if c.GetHeader("Authorization") != b.basicCredentials() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}
	if c.PostForm("grant_type") != "client_credentials" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":    b.accessToken,
		"client_id":       b.consumerID,
		"developer.email": "developer@example.com",
		"expires_in":      "1799",
		"scope":           "",
		"status":          "approved",
		"token_type":      "Bearer",
	})
}

func (b *Bank) handleRequestQR(c *gin.Context) {
	body, ok := bindQR(c)
	if !ok {
		return
	}
	resp := result(body)
	resp["accountName"] = "MOCK MERCHANT"
	resp["qrCode"] = "00020101021230830016A00000067701011201150107536000315080214KB" + body.PartnerTxnUID
	if body.QRType == "4" {
		resp["sof"] = []string{"CC"}
	} else {
		resp["sof"] = []string{"PP"}
	}
	c.JSON(http.StatusOK, resp)
}

func (b *Bank) handleInquiry(c *gin.Context) {
	body, ok := bindQR(c)
	if !ok {
		return
	}
	status, found := inquiryStatuses[c.GetHeader("env-id")]
	if !found {
		status = "REQUESTED"
	}
	resp := result(body)
	resp["txnStatus"] = status
	resp["txnNo"] = "TXN" + body.OrigPartnerTxnUID
	resp["merchantId"] = body.MerchantID
	resp["terminalId"] = body.TerminalID
	resp["qrType"] = "3"
	resp["txnAmount"] = "100.00"
	resp["txnCurrencyCode"] = "THB"
	resp["reference1"] = "INV001"
	resp["reference2"] = ""
	resp["reference3"] = ""
	resp["reference4"] = ""
	if status == "PAID" || status == "VOIDED" {
		resp["channel"] = "MOBILE"
		resp["additionalTxnNo"] = []string{}
	}
	c.JSON(http.StatusOK, resp)
}

func (b *Bank) handleCancel(c *gin.Context) {
	body, ok := bindQR(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result(body))
}

func (b *Bank) handleVoid(c *gin.Context) {
	body, ok := bindQR(c)
	if !ok {
		return
	}
	resp := result(body)
	txnNo := body.TxnNo
	if txnNo == "" {
		txnNo = "TXN" + body.OrigPartnerTxnUID
	}
	resp["txnNo"] = txnNo
	c.JSON(http.StatusOK, resp)
}

func (b *Bank) handleSettlement(c *gin.Context) {
	body, ok := bindQR(c)
	if !ok {
		return
	}
	resp := result(body)
	resp["settlementAmount"] = 1500.50
	resp["settlementCurrencyCode"] = "THB"
	resp["accountNo"] = "1234567890"
	resp["accountName"] = "MOCK MERCHANT"
	c.JSON(http.StatusOK, resp)
}

func (b *Bank) handleSSL(c *gin.Context) {
	if c.Request.TLS == nil || len(c.Request.TLS.PeerCertificates) == 0 {
		c.String(http.StatusUnauthorized, "client certificate required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"certificateObjs": gin.H{
			"subject": strings.TrimSpace(c.Request.TLS.PeerCertificates[0].Subject.String()),
		},
	})
}
