package kbankqr

import (
	"strconv"
	"strings"
)

// StatusCode is the business outcome reported in every QR payment response.
type StatusCode int

const (
	StatusSuccess StatusCode = iota
	StatusError
)

// QRType selects the kind of QR code to generate. Request-side vocabulary.
type QRType int

const (
	QRTypeThaiQR     QRType = 3
	QRTypeCreditCard QRType = 4
)

// ReturnedQRType is a source of funds a generated QR can be paid through.
// Response-side vocabulary, distinct code space from QRType.
type ReturnedQRType int

const (
	ReturnedThaiQR ReturnedQRType = iota + 1
	ReturnedCreditCard
)

// TransactionStatus is the remote state of a QR transaction.
type TransactionStatus int

const (
	TxnPaid TransactionStatus = iota + 1
	TxnCancelled
	TxnExpired
	TxnRequested
	TxnVoided
)

// Enum family names used in InvalidCodeError.
const (
	FamilyStatusCode        = "StatusCode"
	FamilyQRType            = "QRType"
	FamilyReturnedQRType    = "ReturnedQRType"
	FamilyTransactionStatus = "TransactionStatus"
)

var statusCodes = map[StatusCode]string{
	StatusSuccess: "00",
	StatusError:   "10",
}

var qrTypes = map[QRType]string{
	QRTypeThaiQR:     "3",
	QRTypeCreditCard: "4",
}

var returnedQRTypes = map[ReturnedQRType]string{
	ReturnedThaiQR:     "PP",
	ReturnedCreditCard: "CC",
}

var transactionStatuses = map[TransactionStatus]string{
	TxnPaid:      "PAID",
	TxnCancelled: "CANCELLED",
	TxnExpired:   "EXPIRED",
	TxnRequested: "REQUESTED",
	TxnVoided:    "VOIDED",
}

var (
	statusCodesByWire         = invert(statusCodes)
	qrTypesByWire             = invert(qrTypes)
	returnedQRTypesByWire     = invert(returnedQRTypes)
	transactionStatusesByWire = invert(transactionStatuses)
)

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// Code returns the wire code ("00" or "10").
func (s StatusCode) Code() string { return statusCodes[s] }

func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusError:
		return "Error"
	}
	return "StatusCode(" + strconv.Itoa(int(s)) + ")"
}

// ParseStatusCode maps a wire code to a StatusCode. Matching is exact.
func ParseStatusCode(code string) (StatusCode, error) {
	if s, ok := statusCodesByWire[code]; ok {
		return s, nil
	}
	return 0, &InvalidCodeError{Family: FamilyStatusCode, Code: code}
}

// Code returns the decimal wire code ("3" or "4").
func (t QRType) Code() string { return qrTypes[t] }

func (t QRType) String() string {
	switch t {
	case QRTypeThaiQR:
		return "ThaiQR"
	case QRTypeCreditCard:
		return "CreditCard"
	}
	return "QRType(" + strconv.Itoa(int(t)) + ")"
}

// ParseQRType maps a wire code to a QRType. Matching is exact.
func ParseQRType(code string) (QRType, error) {
	if t, ok := qrTypesByWire[code]; ok {
		return t, nil
	}
	return 0, &InvalidCodeError{Family: FamilyQRType, Code: code}
}

// Code returns the two-letter wire tag ("PP" or "CC").
func (t ReturnedQRType) Code() string { return returnedQRTypes[t] }

func (t ReturnedQRType) String() string {
	switch t {
	case ReturnedThaiQR:
		return "ThaiQR"
	case ReturnedCreditCard:
		return "CreditCard"
	}
	return "ReturnedQRType(" + strconv.Itoa(int(t)) + ")"
}

// ParseReturnedQRType maps a wire tag to a ReturnedQRType, ignoring case.
func ParseReturnedQRType(code string) (ReturnedQRType, error) {
	if t, ok := returnedQRTypesByWire[strings.ToUpper(code)]; ok {
		return t, nil
	}
	return 0, &InvalidCodeError{Family: FamilyReturnedQRType, Code: code}
}

// Code returns the uppercase wire word, e.g. "PAID".
func (s TransactionStatus) Code() string { return transactionStatuses[s] }

func (s TransactionStatus) String() string {
	if code := s.Code(); code != "" {
		return code
	}
	return "TransactionStatus(" + strconv.Itoa(int(s)) + ")"
}

// ParseTransactionStatus maps a wire word to a TransactionStatus, ignoring case.
func ParseTransactionStatus(code string) (TransactionStatus, error) {
	if s, ok := transactionStatusesByWire[strings.ToUpper(code)]; ok {
		return s, nil
	}
	return 0, &InvalidCodeError{Family: FamilyTransactionStatus, Code: code}
}

// IsFinal reports whether no further transition can be requested from s.
// Requested can still become Paid, Cancelled or Expired; Paid can still be Voided.
func (s TransactionStatus) IsFinal() bool {
	switch s {
	case TxnCancelled, TxnExpired, TxnVoided:
		return true
	}
	return false
}

// CanTransitionTo reports whether the bank allows s to move to next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TxnRequested:
		return next == TxnPaid || next == TxnCancelled || next == TxnExpired
	case TxnPaid:
		return next == TxnVoided
	}
	return false
}

// GetStatusDescription returns a human-readable description of a transaction status.
func GetStatusDescription(s TransactionStatus) string {
	descriptions := map[TransactionStatus]string{
		TxnPaid:      "Transaction has been paid",
		TxnCancelled: "QR is cancelled and cannot be used",
		TxnExpired:   "QR is expired and cannot be used",
		TxnRequested: "QR is requested but not yet paid or cancelled",
		TxnVoided:    "Transaction is voided after it was paid",
	}
	if desc, ok := descriptions[s]; ok {
		return desc
	}
	return "Unknown status"
}
