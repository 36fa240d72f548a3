package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GTDGit/kbank_qr/internal/mockbank"
)

// useMockBank points the harness configuration at an in-process bank.
func useMockBank(t *testing.T) *mockbank.Bank {
	t.Helper()
	bank := mockbank.New("consumer", "secret", "access-token")
	srv := httptest.NewServer(bank.Router())
	t.Cleanup(srv.Close)

	t.Setenv("ENV", "production")
	t.Setenv("KBANK_CONSUMER_ID", "consumer")
	t.Setenv("KBANK_CONSUMER_SECRET", "secret")
	t.Setenv("KBANK_BASE_URL", srv.URL)
	t.Setenv("KBANK_PARTNER_ID", "PTR1")
	t.Setenv("KBANK_PARTNER_SECRET", "psecret")
	t.Setenv("KBANK_MERCHANT_ID", "KB000001")
	t.Setenv("KBANK_TERMINAL_ID", "T001")
	t.Setenv("REDIS_HOST", "")
	return bank
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { runAll = false })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "OAUTH2   Issue an OAuth2 access token\n")
	require.Contains(t, out, "QR002    Request a Thai QR\n")
	require.Contains(t, out, "QR008    Cancel a requested QR\n")
}

func TestRunCommand(t *testing.T) {
	bank := useMockBank(t)

	out, err := execute(t, "run", "QR002", "QR006")
	require.NoError(t, err)
	require.Contains(t, out, "QR002    Success")
	require.Contains(t, out, "txnStatus=PAID")

	last, ok := bank.LastRequest()
	require.True(t, ok)
	require.Equal(t, "QR006", last.EnvID)
}

func TestRunCommandAll(t *testing.T) {
	useMockBank(t)

	out, err := execute(t, "run", "--all")
	require.NoError(t, err)
	require.Contains(t, out, "OAUTH2   Success")
	require.Contains(t, out, "cancelled PARTNERTEST")
}

func TestRunCommandRequiresScenario(t *testing.T) {
	_, err := execute(t, "run")
	require.ErrorContains(t, err, "no scenario given")
}

func TestWatchCommandRejectsNonPositiveInterval(t *testing.T) {
	bank := useMockBank(t)

	_, err := execute(t, "watch", "PARTNERTEST0001", "--interval", "0s")
	require.EqualError(t, err, "--interval must be positive, got 0s")
	require.Empty(t, bank.Requests())
}

func TestWatchCommandTimesOut(t *testing.T) {
	useMockBank(t)

	_, err := execute(t, "watch", "PARTNERTEST0001", "--interval", "1ms", "--max-age", "5ms")
	require.ErrorContains(t, err, "did not reach a final status")
}
