package devserver

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/auth"
	"teo-client-go/internal/backend"
	"teo-client-go/internal/database"
	"teo-client-go/internal/models"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	srv    *Server
	db     *database.Service
	clock  *testClock
	http   *httptest.Server
	seeded *SeedResult
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	// Client token sources check exp against the wall clock, so the server
	// clock must start at real time.
	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	srv, err := New(models.DevServerConfig{
		JWTSecret:    "test-secret",
		TokenTTL:     200 * time.Hour,
		ChallengeTTL: 5 * time.Minute,
	}, db, WithClock(clock.now))
	require.NoError(t, err)

	seeded, err := SeedDemo(ctx, db, clock.now())
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	return &fixture{srv: srv, db: db, clock: clock, http: hs, seeded: seeded}
}

func (f *fixture) client(t *testing.T, userId string) *backend.Client {
	t.Helper()
	token, err := f.srv.IssueToken(userId)
	require.NoError(t, err)
	c, err := backend.New(f.http.URL, backend.WithTokenSource(auth.NewStatic(token)))
	require.NoError(t, err)
	return c
}

func (f *fixture) get(t *testing.T, path, bearer string) (int, models.APIResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.http.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env models.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func apiError(t *testing.T, err error) *backend.APIError {
	t.Helper()
	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr), "expected *backend.APIError, got %v", err)
	return apiErr
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func link(t *testing.T, c *backend.Client, key *ecdsa.PrivateKey, address string) (*models.WalletLink, error) {
	t.Helper()
	ctx := context.Background()
	ch, err := c.RequestChallenge(ctx, models.PurposeLinkWallet, address)
	require.NoError(t, err)
	sig, err := agent.SignPersonal(key, ch.Message)
	require.NoError(t, err)
	return c.LinkWallet(ctx, address, sig, ch.Nonce)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(models.DevServerConfig{JWTSecret: "s", TokenTTL: time.Hour, ChallengeTTL: time.Minute}, nil)
	assert.Error(t, err)

	f := newFixture(t)
	_, err = New(models.DevServerConfig{TokenTTL: time.Hour, ChallengeTTL: time.Minute}, f.db)
	assert.Error(t, err)
	_, err = New(models.DevServerConfig{JWTSecret: "s", TokenTTL: time.Hour}, f.db)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, env := f.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	c := f.client(t, DemoTeacherId)
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t)

	valid, err := f.srv.IssueToken(DemoTeacherId)
	require.NoError(t, err)
	unknown, err := f.srv.IssueToken("ghost")
	require.NoError(t, err)

	other, err := New(models.DevServerConfig{JWTSecret: "other", TokenTTL: time.Hour, ChallengeTTL: time.Minute}, f.db)
	require.NoError(t, err)
	forged, err := other.IssueToken(DemoTeacherId)
	require.NoError(t, err)

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{name: "valid", bearer: valid, want: http.StatusOK},
		{name: "missing", bearer: "", want: http.StatusUnauthorized},
		{name: "garbage", bearer: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "wrong secret", bearer: forged, want: http.StatusUnauthorized},
		{name: "unknown user", bearer: unknown, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.get(t, "/api/wallet", tt.bearer)
			assert.Equal(t, tt.want, status)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, models.CodeUnauthorized, env.Error)
				assert.False(t, env.Success)
			}
		})
	}

	f.clock.advance(201 * time.Hour)
	status, env := f.get(t, "/api/wallet", valid)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, env.Error)
}

func TestFixtureTokensUsableByClient(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, DemoTeacherId)
	require.True(t, c.Authenticated())

	n, err := c.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	status, env := f.get(t, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, env.Error)
}

func TestLinkWallet(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, DemoTeacherId)
	ctx := context.Background()
	key, address := newKey(t)

	got, err := c.GetWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.WalletUnlinked, got.Status)

	ch, err := c.RequestChallenge(ctx, models.PurposeLinkWallet, address)
	require.NoError(t, err)
	assert.Equal(t, ChallengeMessage(ch.Nonce), ch.Message)

	sig, err := agent.SignPersonal(key, ch.Message)
	require.NoError(t, err)
	linked, err := c.LinkWallet(ctx, crypto.PubkeyToAddress(key.PublicKey).Hex(), sig, ch.Nonce)
	require.NoError(t, err)
	assert.Equal(t, address, linked.Address)
	assert.Equal(t, models.WalletLinked, linked.Status)

	// nonce is single use
	_, err = c.LinkWallet(ctx, address, sig, ch.Nonce)
	assert.Equal(t, models.CodeInvalidChallenge, apiError(t, err).Code)

	got, err = c.GetWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, address, got.Address)

	require.NoError(t, c.UnlinkWallet(ctx))
	got, err = c.GetWallet(ctx)
	require.NoError(t, err)
	assert.False(t, got.IsLinked())
}

func TestLinkWallet_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, DemoTeacherId)
	key, address := newKey(t)
	otherKey, _ := newKey(t)

	t.Run("wrong signer burns the nonce", func(t *testing.T) {
		ch, err := c.RequestChallenge(ctx, models.PurposeLinkWallet, address)
		require.NoError(t, err)
		sig, err := agent.SignPersonal(otherKey, ch.Message)
		require.NoError(t, err)

		_, err = c.LinkWallet(ctx, address, sig, ch.Nonce)
		apiErr := apiError(t, err)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, models.CodeSignatureMismatch, apiErr.Code)

		good, err := agent.SignPersonal(key, ch.Message)
		require.NoError(t, err)
		_, err = c.LinkWallet(ctx, address, good, ch.Nonce)
		assert.Equal(t, models.CodeInvalidChallenge, apiError(t, err).Code)
	})

	t.Run("challenge for another address", func(t *testing.T) {
		_, otherAddress := newKey(t)
		ch, err := c.RequestChallenge(ctx, models.PurposeLinkWallet, otherAddress)
		require.NoError(t, err)
		sig, err := agent.SignPersonal(key, ch.Message)
		require.NoError(t, err)
		_, err = c.LinkWallet(ctx, address, sig, ch.Nonce)
		assert.Equal(t, models.CodeInvalidChallenge, apiError(t, err).Code)
	})

	t.Run("expired challenge", func(t *testing.T) {
		ch, err := c.RequestChallenge(ctx, models.PurposeLinkWallet, address)
		require.NoError(t, err)
		sig, err := agent.SignPersonal(key, ch.Message)
		require.NoError(t, err)
		f.clock.advance(6 * time.Minute)
		_, err = c.LinkWallet(ctx, address, sig, ch.Nonce)
		assert.Equal(t, models.CodeChallengeExpired, apiError(t, err).Code)
	})

	t.Run("address taken", func(t *testing.T) {
		_, err := link(t, c, key, address)
		require.NoError(t, err)

		_, err = f.db.CreateUser(ctx, "teacher-2", "Second", "second@teo.local")
		require.NoError(t, err)
		_, err = link(t, f.client(t, "teacher-2"), key, address)
		apiErr := apiError(t, err)
		assert.True(t, apiErr.IsConflict())
		assert.Equal(t, models.CodeAddressTaken, apiErr.Code)
		assert.NotEmpty(t, apiErr.Message)
	})

	t.Run("bad address", func(t *testing.T) {
		_, err := c.RequestChallenge(ctx, models.PurposeLinkWallet, "0x123")
		assert.Equal(t, http.StatusBadRequest, apiError(t, err).StatusCode)
	})
}

func TestDecisions(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, DemoTeacherId)
	ctx := context.Background()

	raw, err := c.ListPendingSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 4)
	require.NotNil(t, raw[0].PendingDecisionID)
	require.NotNil(t, raw[1].PendingDecisionID)
	assert.Equal(t, *raw[0].PendingDecisionID, *raw[1].PendingDecisionID)
	assert.Nil(t, raw[2].PendingDecisionID)

	count, err := c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	d, err := c.GetDecision(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, d.Decision)
	assert.False(t, d.IsExpired)
	assert.Equal(t, "Algebra I", d.CourseTitle)
	require.NotNil(t, d.EarningsIfAccepted)
	assert.True(t, d.EarningsIfAccepted.Fiat.Equal(decimal.RequireFromString("75.6")), d.EarningsIfAccepted.Fiat.String())
	assert.True(t, d.EarningsIfAccepted.Teo.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, d.EarningsIfDeclined.Fiat.Equal(decimal.NewFromInt(84)))
	assert.True(t, d.EarningsIfDeclined.Teo.IsZero())

	accepted, err := c.AcceptDecision(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionAccepted, accepted.Decision)
	require.NotNil(t, accepted.FinalTeacherTeo)
	assert.True(t, accepted.FinalTeacherTeo.Equal(decimal.RequireFromString("12.5")))

	_, err = c.DeclineDecision(ctx, 1)
	apiErr := apiError(t, err)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, models.CodeAlreadyDecided, apiErr.Code)

	_, err = c.GetDecision(ctx, 999)
	assert.True(t, backend.IsNotFound(err))

	count, err = c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDecisions_Expired(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, DemoTeacherId)
	ctx := context.Background()

	f.clock.advance(demoOfferTTL)

	d, err := c.GetDecision(ctx, 2)
	require.NoError(t, err)
	assert.True(t, d.IsExpired)

	_, err = c.AcceptDecision(ctx, 2)
	assert.Equal(t, models.CodeExpired, apiError(t, err).Code)

	raw, err := c.ListPendingSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestDecisions_ScopedToTeacher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.db.CreateUser(ctx, "teacher-2", "Second", "second@teo.local")
	require.NoError(t, err)
	c := f.client(t, "teacher-2")

	_, err = c.GetDecision(ctx, 1)
	assert.True(t, backend.IsNotFound(err))
	_, err = c.AcceptDecision(ctx, 1)
	assert.True(t, backend.IsNotFound(err))

	raw, err := c.ListPendingSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestBackfill(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, DemoTeacherId)
	ctx := context.Background()

	unlinked := models.SnapshotID(f.seeded.SnapshotIds[2])
	require.NoError(t, c.BackfillDecisions(ctx, []models.SnapshotID{unlinked}))
	require.NoError(t, c.BackfillDecisions(ctx, []models.SnapshotID{unlinked}))

	raw, err := c.ListPendingSnapshots(ctx)
	require.NoError(t, err)
	for _, snap := range raw {
		assert.NotNil(t, snap.PendingDecisionID, "snapshot %d", snap.ID)
	}

	count, err := c.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestWalletOperations(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, DemoTeacherId)
	ctx := context.Background()
	key, address := newKey(t)

	req := models.BurnCreditRequest{Address: address, Amount: decimal.NewFromInt(3), TxHash: "0xabc"}
	_, err := c.CreditBurn(ctx, req)
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, models.CodeForbidden, apiErr.Code)

	_, err = link(t, c, key, address)
	require.NoError(t, err)

	first, err := c.CreditBurn(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.OperationBurnCredit, first.Kind)
	assert.Equal(t, "credited", first.Status)

	again, err := c.CreditBurn(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.Id, again.Id)

	w, err := c.RequestWithdrawal(ctx, models.AmountRequest{Address: address, Amount: decimal.NewFromInt(2), IdempotencyKey: "k1"})
	require.NoError(t, err)
	w2, err := c.RequestWithdrawal(ctx, models.AmountRequest{Address: address, Amount: decimal.NewFromInt(2), IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, w.Id, w2.Id)

	st, err := c.Stake(ctx, models.AmountRequest{Address: address, Amount: decimal.RequireFromString("0.5"), IdempotencyKey: "k2"})
	require.NoError(t, err)
	assert.Equal(t, "staked", st.Status)

	_, err = c.Stake(ctx, models.AmountRequest{Address: address, Amount: decimal.Zero, IdempotencyKey: "k3"})
	assert.Equal(t, http.StatusBadRequest, apiError(t, err).StatusCode)

	_, err = c.CreditBurn(ctx, models.BurnCreditRequest{Address: address, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusBadRequest, apiError(t, err).StatusCode)
}
