package kbankqr

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// SandboxBaseURL is the KBank open API sandbox.
	SandboxBaseURL = "https://openapi-sandbox.kasikornbank.com"
	// ProductionBaseURL is the KBank open API production host.
	ProductionBaseURL = "https://openapi.kasikornbank.com"
)

// Sandbox selector headers.
const (
	HeaderTestMode = "x-test-mode"
	HeaderEnvID    = "env-id"
)

// Documented sandbox scenarios. The sandbox returns a scripted response per
// scenario, selected with the env-id header.
const (
	ScenarioOAuth2 = "OAUTH2"
	ScenarioQR002  = "QR002" // request Thai QR
	ScenarioQR003  = "QR003" // request credit card QR
	ScenarioQR004  = "QR004" // inquiry, REQUESTED
	ScenarioQR005  = "QR005" // inquiry, CANCELLED
	ScenarioQR006  = "QR006" // inquiry, PAID
	ScenarioQR007  = "QR007" // inquiry, VOIDED
	ScenarioQR008  = "QR008" // cancel QR
	ScenarioQR009  = "QR009"
	ScenarioQR010  = "QR010"
	ScenarioQR011  = "QR011"
	ScenarioQR012  = "QR012"
	ScenarioQR013  = "QR013"
	ScenarioQR014  = "QR014"
	ScenarioQR015  = "QR015"
	ScenarioQR016  = "QR016"
)

// RequestMode selects the target environment. It is either Sandbox or Production.
type RequestMode interface {
	isRequestMode()
}

// Sandbox targets the sandbox host. Scenario is the opaque env-id selecting a
// scripted response; it is omitted when empty. BaseURL overrides
// SandboxBaseURL, e.g. to point at a local sandbox double.
type Sandbox struct {
	Scenario string
	BaseURL  string
}

// Production targets BaseURL and adds no headers.
type Production struct {
	BaseURL string
}

func (Sandbox) isRequestMode()    {}
func (Production) isRequestMode() {}

// Endpoint is a resolved mode: where to send requests and which headers to add.
type Endpoint struct {
	BaseURL string
	Headers http.Header
}

// Resolve computes the base URL and selector headers for mode. It never looks
// at a request body.
func Resolve(mode RequestMode) (Endpoint, error) {
	switch m := mode.(type) {
	case Sandbox:
		h := http.Header{}
		h.Set(HeaderTestMode, "true")
		if m.Scenario != "" {
			h.Set(HeaderEnvID, m.Scenario)
		}
		base := SandboxBaseURL
		if m.BaseURL != "" {
			base = m.BaseURL
		}
		return Endpoint{BaseURL: base, Headers: h}, nil
	case Production:
		base := strings.TrimSpace(m.BaseURL)
		if base == "" {
			return Endpoint{}, &ConfigurationError{Reason: "production mode requires a base URL"}
		}
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Endpoint{}, &ConfigurationError{Reason: "invalid base URL: " + base}
		}
		return Endpoint{BaseURL: base, Headers: http.Header{}}, nil
	case nil:
		return Endpoint{}, &ConfigurationError{Reason: "request mode is required"}
	}
	return Endpoint{}, &ConfigurationError{Reason: "unsupported request mode"}
}

// URL joins the base URL with an operation path.
func (e Endpoint) URL(path string) (string, error) {
	joined, err := url.JoinPath(e.BaseURL, path)
	if err != nil {
		return "", &ConfigurationError{Reason: "invalid base URL: " + e.BaseURL}
	}
	return joined, nil
}

// Apply copies the selector headers onto h.
func (e Endpoint) Apply(h http.Header) {
	for k, vs := range e.Headers {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
}
