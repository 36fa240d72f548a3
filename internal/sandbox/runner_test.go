package sandbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GTDGit/kbank_qr/internal/cache"
	"github.com/GTDGit/kbank_qr/internal/config"
	"github.com/GTDGit/kbank_qr/internal/mockbank"
	"github.com/GTDGit/kbank_qr/pkg/kbankqr"
)

type fakeTokens struct {
	data *cache.TokenData
	sets int
}

func (f *fakeTokens) Get(_ context.Context, _, _ string) (*cache.TokenData, error) {
	if f.data == nil {
		return nil, cache.ErrMiss
	}
	return f.data, nil
}

func (f *fakeTokens) Set(_ context.Context, _, _ string, data *cache.TokenData) error {
	f.data = data
	f.sets++
	return nil
}

func newRunner(t *testing.T, tokens TokenStore) (*Runner, *mockbank.Bank) {
	t.Helper()
	bank := mockbank.New("consumer", "secret", "access-token")
	srv := httptest.NewServer(bank.Router())
	t.Cleanup(srv.Close)

	client := kbankqr.NewClient(kbankqr.WithHTTPClient(srv.Client()), kbankqr.WithDebug(false))
	r := NewRunner(client,
		config.KBankConfig{ConsumerID: "consumer", ConsumerSecret: "secret", BaseURL: srv.URL},
		config.PartnerConfig{PartnerID: "PTR1", PartnerSecret: "psecret", MerchantID: "KB000001", TerminalID: "T001"},
		tokens,
	)
	return r, bank
}

func TestNewPartnerTxnUID(t *testing.T) {
	a, b := NewPartnerTxnUID(), NewPartnerTxnUID()
	require.Regexp(t, regexp.MustCompile(`^PARTNERTEST[0-9A-F]{12}$`), a)
	require.NotEqual(t, a, b)
}

func TestRunAllAgainstMockBank(t *testing.T) {
	r, bank := newRunner(t, nil)

	outcomes, err := r.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, len(Scenarios()))

	for _, out := range outcomes {
		require.Equal(t, kbankqr.StatusSuccess, out.StatusCode, out.Scenario)
	}
	require.Equal(t, "txnStatus=PAID", outcomes[5].Detail)

	var envIDs []string
	for _, req := range bank.Requests() {
		require.Equal(t, "true", req.TestMode)
		envIDs = append(envIDs, req.EnvID)
	}
	require.Contains(t, envIDs, kbankqr.ScenarioOAuth2)
	require.Contains(t, envIDs, kbankqr.ScenarioQR008)
}

func TestRunUnknownScenario(t *testing.T) {
	r, _ := newRunner(t, nil)
	_, err := r.Run(context.Background(), "QR999")
	require.EqualError(t, err, `unknown scenario "QR999"`)
}

func TestRunInquiryStatusMismatch(t *testing.T) {
	r, bank := newRunner(t, nil)
	bank.Script(kbankqr.PathInquiry, kbankqr.ScenarioQR006, http.StatusOK,
		`{"partnerTxnUid":"P1","partnerId":"PTR1","statusCode":"00","txnStatus":"EXPIRED",
		"merchantId":"KB000001","qrType":"3","txnAmount":"100.00","txnCurrencyCode":"THB","reference1":"INV001"}`)

	_, err := r.Run(context.Background(), kbankqr.ScenarioQR006)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected txnStatus PAID, got EXPIRED")
}

func TestSessionUsesTokenStore(t *testing.T) {
	tokens := &fakeTokens{}
	r, bank := newRunner(t, tokens)
	ctx := context.Background()

	s, err := r.Session(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-token", s.AccessToken())
	require.Equal(t, 1, tokens.sets)

	before := len(bank.Requests())
	s2, err := r.Session(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-token", s2.AccessToken())
	require.Len(t, bank.Requests(), before)
	require.Equal(t, 1, tokens.sets)
}

func TestOAuth2ScenarioCachesToken(t *testing.T) {
	tokens := &fakeTokens{}
	r, _ := newRunner(t, tokens)

	_, err := r.Run(context.Background(), kbankqr.ScenarioOAuth2)
	require.NoError(t, err)
	require.NotNil(t, tokens.data)
	require.WithinDuration(t, time.Now(), tokens.data.IssuedAt, time.Minute)
}

func TestLookupAndIDs(t *testing.T) {
	sc, ok := Lookup(kbankqr.ScenarioQR003)
	require.True(t, ok)
	require.Equal(t, "Request a credit card QR", sc.Description)

	_, ok = Lookup("QR016")
	require.False(t, ok)

	ids := IDs()
	require.Equal(t, kbankqr.ScenarioOAuth2, ids[0])
	require.Equal(t, kbankqr.ScenarioQR008, ids[len(ids)-1])
}
