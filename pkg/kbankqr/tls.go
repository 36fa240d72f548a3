package kbankqr

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadClientCertificate loads the certificate used for mutual TLS. A .p12 or
// .pfx file with no keyPath is read as PKCS#12 protected by password;
// anything else is read as a PEM certificate/key pair.
func LoadClientCertificate(certPath, keyPath, password string) (tls.Certificate, error) {
	ext := strings.ToLower(filepath.Ext(certPath))
	if keyPath == "" && (ext == ".p12" || ext == ".pfx") {
		data, err := os.ReadFile(certPath)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to read client certificate: %w", err)
		}
		return ParsePKCS12Certificate(data, password)
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to load client certificate: %w", err)
	}
	return cert, nil
}

// ParsePKCS12Certificate decodes a PKCS#12 bundle holding a certificate and
// its private key.
func ParsePKCS12Certificate(data []byte, password string) (tls.Certificate, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to decode pkcs12: %w", err)
	}
	var pemData []byte
	for _, b := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(b)...)
	}
	cert, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to build key pair from pkcs12: %w", err)
	}
	return cert, nil
}

// NewMutualTLSHTTPClient returns an HTTP client presenting cert to the
// server. rootCAs may be nil to use the system pool.
func NewMutualTLSHTTPClient(cert tls.Certificate, rootCAs *x509.CertPool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      rootCAs,
		MinVersion:   tls.VersionTLS12,
	}
	return &http.Client{Transport: transport}
}
