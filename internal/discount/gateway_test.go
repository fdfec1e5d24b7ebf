package discount

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teo-client-go/internal/backend"
	"teo-client-go/internal/events"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
)

type recordingNotifier struct {
	confirmed []string
	failed    []string
}

func (n *recordingNotifier) Confirm(msg string) { n.confirmed = append(n.confirmed, msg) }
func (n *recordingNotifier) Fail(msg string)    { n.failed = append(n.failed, msg) }

type gatewayHarness struct {
	backend  *fakeBackend
	notifier *recordingNotifier
	kinds    []events.Kind
	gateway  *Gateway
}

func newGatewayHarness() *gatewayHarness {
	h := &gatewayHarness{backend: newFakeBackend(), notifier: &recordingNotifier{}}
	bus := events.NewBus()
	record := func(e events.Event) { h.kinds = append(h.kinds, e.Kind()) }
	bus.Subscribe(events.KindNotificationsUpdated, record)
	bus.Subscribe(events.KindWalletUpdated, record)
	h.gateway = NewGateway(h.backend, retry.None(), h.notifier, bus)
	return h
}

func TestAcceptSuccess(t *testing.T) {
	h := newGatewayHarness()
	h.backend.decisions[5] = &models.DiscountDecision{ID: 5, Decision: models.DecisionPending, OfferedTeacherTeo: teo("7")}
	h.backend.onAction = func(f *fakeBackend, id models.DecisionID, v Verdict) {
		d := f.decisions[id]
		d.Decision = models.DecisionAccepted
		d.FinalTeacherTeo = d.OfferedTeacherTeo
	}

	out, err := h.gateway.Accept(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Len(t, h.notifier.confirmed, 1)
	assert.Empty(t, h.notifier.failed)

	assert.Equal(t, []string{"accept:5", "get:5"}, h.backend.callLog())
	require.NotNil(t, out.Decision)
	assert.Equal(t, models.DecisionAccepted, out.Decision.Decision)
	require.NotNil(t, out.View.Teo)
	assert.Equal(t, "7", out.View.Teo.String())
	assert.False(t, out.View.CanAccept)

	assert.Equal(t, []events.Kind{events.KindNotificationsUpdated, events.KindWalletUpdated}, h.kinds)
}

func TestDeclineSuccess(t *testing.T) {
	h := newGatewayHarness()
	h.backend.decisions[8] = &models.DiscountDecision{ID: 8, Decision: models.DecisionPending}
	h.backend.onAction = func(f *fakeBackend, id models.DecisionID, v Verdict) {
		f.decisions[id].Decision = models.DecisionDeclined
	}

	out, err := h.gateway.Decline(context.Background(), 8)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "Discount declined.", out.Message)
	assert.Equal(t, models.DecisionDeclined, out.View.Status)
	assert.Len(t, h.kinds, 2)
}

func TestAcceptAlreadyDeclined(t *testing.T) {
	h := newGatewayHarness()
	h.backend.decisions[5] = &models.DiscountDecision{ID: 5, Decision: models.DecisionDeclined}
	h.backend.actionErr = &backend.APIError{
		StatusCode: http.StatusConflict,
		Code:       models.CodeAlreadyDecided,
		Message:    "This discount has already been declined",
	}

	out, err := h.gateway.Accept(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.True(t, out.Conflict)
	assert.Equal(t, "This discount has already been declined", out.Message)
	assert.Equal(t, []string{"This discount has already been declined"}, h.notifier.failed)

	assert.Equal(t, []string{"accept:5", "get:5"}, h.backend.callLog())
	assert.Equal(t, models.DecisionDeclined, out.Decision.Decision)
	assert.False(t, out.View.CanAccept)
	assert.False(t, out.View.CanDecline)
	assert.Empty(t, h.kinds)
}

func TestActionFailureWithoutMessage(t *testing.T) {
	h := newGatewayHarness()
	h.backend.decisions[5] = &models.DiscountDecision{ID: 5, Decision: models.DecisionPending}
	h.backend.actionErr = errBoom

	out, err := h.gateway.Decline(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.False(t, out.Conflict)
	assert.Equal(t, GenericActionFailure, out.Message)
	assert.True(t, out.View.CanDecline)
}

func TestActionRefreshFailure(t *testing.T) {
	h := newGatewayHarness()
	h.backend.decisions[5] = &models.DiscountDecision{ID: 5, Decision: models.DecisionPending}
	h.backend.getErr[5] = errBoom

	out, err := h.gateway.Accept(context.Background(), 5)
	assert.ErrorIs(t, err, errBoom)
	require.NotNil(t, out)
	assert.True(t, out.Success)
	assert.Nil(t, out.Decision)
	assert.Len(t, h.kinds, 2)
}
