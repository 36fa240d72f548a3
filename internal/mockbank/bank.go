// Package mockbank is an in-process stand-in for the KBank QR payment
// sandbox. It serves the same endpoints, selects canned responses by the
// env-id header and can be scripted to return raw status/body pairs.
package mockbank

import (
	"encoding/base64"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Reply is a raw scripted response.
type Reply struct {
	Status int
	Body   string
}

// Request is a received request as seen on the wire.
type Request struct {
	Method        string
	Path          string
	EnvID         string
	TestMode      string
	Authorization string
	ContentType   string
	Body          []byte
}

// Bank holds the double's credentials, scripted replies and request log.
type Bank struct {
	consumerID     string
	consumerSecret string
	accessToken    string

	mu       sync.Mutex
	replies  map[string]Reply
	requests []Request
}

// New creates a Bank that accepts consumerID/consumerSecret on the token
// endpoint and issues accessToken.
func New(consumerID, consumerSecret, accessToken string) *Bank {
	return &Bank{
		consumerID:     consumerID,
		consumerSecret: consumerSecret,
		accessToken:    accessToken,
		replies:        make(map[string]Reply),
	}
}

func replyKey(path, envID string) string {
	return strings.TrimPrefix(path, "/") + "|" + envID
}

// Script makes path answer with status/body whenever env-id equals envID. An
// empty envID matches requests without a more specific script.
func (b *Bank) Script(path, envID string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[replyKey(path, envID)] = Reply{Status: status, Body: body}
}

func (b *Bank) scripted(path, envID string) (Reply, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.replies[replyKey(path, envID)]; ok {
		return r, true
	}
	r, ok := b.replies[replyKey(path, "")]
	return r, ok
}

func (b *Bank) record(r Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r)
}

// Requests returns a copy of every request received so far.
func (b *Bank) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request.
func (b *Bank) LastRequest() (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}, false
	}
	return b.requests[len(b.requests)-1], true
}

func (b *Bank) basicCredentials() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(b.consumerID+":"+b.consumerSecret))
}

// Router builds the gin engine serving the sandbox endpoints.
func (b *Bank) Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware())
	router.Use(b.recordMiddleware(), b.scriptMiddleware())

	router.POST("/v2/oauth/token", b.handleToken)

	qr := router.Group("/v1/qrpayment", b.bearerMiddleware())
	qr.POST("/request", b.handleRequestQR)
	qr.POST("/v4/inquiry", b.handleInquiry)
	qr.POST("/cancel", b.handleCancel)
	qr.POST("/void", b.handleVoid)
	qr.POST("/settlement", b.handleSettlement)

	router.GET("/exercise/ssl", b.bearerMiddleware(), b.handleSSL)
	return router
}
