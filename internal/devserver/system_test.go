package devserver_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/api"
	"teo-client-go/internal/auth"
	"teo-client-go/internal/backend"
	"teo-client-go/internal/challenge"
	"teo-client-go/internal/database"
	"teo-client-go/internal/devserver"
	"teo-client-go/internal/discount"
	"teo-client-go/internal/events"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
	"teo-client-go/internal/wallet"
)

var localNetwork = models.Network{
	Name:      "local",
	ChainID:   31337,
	ChainName: "Local Dev",
	RPCURL:    "http://127.0.0.1:8545",
	Currency:  models.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if w, ok := e.(events.WalletUpdated); ok {
			out = append(out, w.Reason)
		}
	}
	return out
}

type notes struct {
	confirmed, failed []string
}

func (n *notes) Confirm(msg string) { n.confirmed = append(n.confirmed, msg) }
func (n *notes) Fail(msg string)    { n.failed = append(n.failed, msg) }

func TestSystem_LinkAndDecide(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	defer db.Close()

	srv, err := devserver.New(models.DevServerConfig{
		JWTSecret:    "system-secret",
		TokenTTL:     time.Hour,
		ChallengeTTL: time.Minute,
	}, db)
	require.NoError(t, err)
	seeded, err := devserver.SeedDemo(ctx, db, time.Now())
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	token, err := srv.IssueToken(seeded.UserId)
	require.NoError(t, err)
	client, err := backend.New(hs.URL, backend.WithTokenSource(auth.NewStatic(token)))
	require.NoError(t, err)

	bus := events.NewBus()
	rec := &recorder{}
	bus.Subscribe(events.KindWalletUpdated, rec.handle)
	bus.Subscribe(events.KindNotificationsUpdated, rec.handle)

	signer, err := agent.NewKeystoreAgent("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	session := wallet.NewSession(wallet.SessionConfig{
		Agent:      signer,
		Challenges: challenge.NewClient(client),
		Backend:    client,
		Network:    localNetwork,
		Events:     bus,
		Retry:      retry.None(),
	})

	// link
	link, err := session.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, wallet.StateLinked, session.State())
	assert.Equal(t, signer.Address(), link.Address)
	assert.Equal(t, localNetwork.ChainID, signer.ActiveChain())

	remote, err := client.GetWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), remote.Address)

	// reconnect revalidates without a new signature
	_, err = session.Connect(ctx)
	require.NoError(t, err)

	// pending list collapses the shared decision
	snapshots := discount.NewSnapshotStore(client, retry.None())
	list, err := snapshots.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	badge, err := snapshots.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, badge.Count)
	badge, err = snapshots.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, badge.Count, "unchanged count falls back to the deduplicated list")

	// a snapshot id resolves through backfill
	reconciler := discount.NewReconciler(client, retry.None())
	unlinked := seeded.SnapshotIds[2]
	resolved, err := reconciler.Resolve(ctx, models.DecisionID(unlinked))
	require.NoError(t, err)
	assert.Equal(t, "Physics Lab", resolved.CourseTitle)
	assert.True(t, discount.ActionsEnabled(resolved))

	// accept it
	n := &notes{}
	gateway := discount.NewGateway(client, retry.None(), n, bus)
	outcome, err := gateway.Accept(ctx, resolved.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	require.NotNil(t, outcome.Decision)
	assert.Equal(t, models.DecisionAccepted, outcome.Decision.Decision)
	teo, ok := discount.DisplayTeo(outcome.Decision)
	assert.True(t, ok)
	assert.True(t, teo.Equal(decimal.RequireFromString("9")))
	assert.Len(t, n.confirmed, 1)

	// a second verdict settles on the server state
	outcome, err = gateway.Decline(ctx, resolved.ID)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "This offer has already been decided", outcome.Message)
	assert.Equal(t, models.DecisionAccepted, outcome.Decision.Decision)
	assert.False(t, outcome.View.CanAccept)

	// balance operations go to the linked address
	balances := api.NewBalanceService(client, nil, bus, retry.None())
	result, err := balances.RequestWithdrawal(ctx, signer.Address(), decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, result.Success, result.Error)
	assert.NotEmpty(t, result.ConfirmationId)

	require.NoError(t, session.Unlink(ctx))
	assert.Equal(t, wallet.StateUnlinked, session.State())
	remote, err = client.GetWallet(ctx)
	require.NoError(t, err)
	assert.False(t, remote.IsLinked())

	// linking again needs a fresh challenge and succeeds
	_, err = session.Connect(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"linked", "revalidated", "decision:accept", "withdrawal", "unlinked", "linked"}, rec.reasons())
}
