package discount

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"teo-client-go/internal/backend"
	"teo-client-go/internal/events"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
)

// GenericActionFailure is shown when the backend gives no message.
const GenericActionFailure = "Unable to record your decision. Please try again."

// Verdict is the teacher's action on a decision.
type Verdict string

const (
	VerdictAccept  Verdict = "accept"
	VerdictDecline Verdict = "decline"
)

// Notifier shows the user the outcome of an action.
type Notifier interface {
	Confirm(message string)
	Fail(message string)
}

// ActionOutcome is the result of one accept or decline. Decision and View hold the
// record re-read after the action, whether it succeeded or not.
type ActionOutcome struct {
	Verdict  Verdict
	Success  bool
	// Conflict is set when the server refused the verdict because the
	// decision is no longer open.
	Conflict bool
	Message  string
	Decision *models.DiscountDecision
	View     *View
}

// Gateway submits verdicts and propagates the resulting state.
type Gateway struct {
	backend  Backend
	retry    retry.Policy
	notifier Notifier
	events   events.Publisher
}

func NewGateway(b Backend, p retry.Policy, n Notifier, pub events.Publisher) *Gateway {
	return &Gateway{backend: b, retry: p, notifier: n, events: pub}
}

func (g *Gateway) Accept(ctx context.Context, id models.DecisionID) (*ActionOutcome, error) {
	return g.act(ctx, id, VerdictAccept)
}

func (g *Gateway) Decline(ctx context.Context, id models.DecisionID) (*ActionOutcome, error) {
	return g.act(ctx, id, VerdictDecline)
}

// act posts the verdict once, never retrying, then always re-reads the decision
// so a rejection such as already_decided settles on the server's state.
// The returned error is non-nil only when that re-read fails.
func (g *Gateway) act(ctx context.Context, id models.DecisionID, verdict Verdict) (*ActionOutcome, error) {
	zap.L().Info("Submitting discount decision",
		zap.Int64("decision_id", int64(id)),
		zap.String("verdict", string(verdict)))

	var err error
	switch verdict {
	case VerdictAccept:
		_, err = g.backend.AcceptDecision(ctx, id)
	case VerdictDecline:
		_, err = g.backend.DeclineDecision(ctx, id)
	default:
		return nil, fmt.Errorf("unknown verdict %q", verdict)
	}

	out := &ActionOutcome{Verdict: verdict, Success: err == nil, Conflict: backend.IsConflict(err)}
	if err == nil {
		out.Message = confirmation(verdict)
		zap.L().Info("Discount decision recorded",
			zap.Int64("decision_id", int64(id)),
			zap.String("verdict", string(verdict)))
		g.confirm(out.Message)
	} else {
		out.Message = GenericActionFailure
		if msg, ok := backend.MessageOf(err); ok {
			out.Message = msg
		}
		zap.L().Warn("Discount decision rejected",
			zap.Int64("decision_id", int64(id)),
			zap.String("verdict", string(verdict)),
			zap.Error(err))
		g.fail(out.Message)
	}

	d, ferr := retry.Do(ctx, g.retry, "get_decision", func(ctx context.Context) (*models.DiscountDecision, error) {
		return g.backend.GetDecision(ctx, id)
	})
	if ferr == nil {
		view := ViewOf(d)
		out.Decision = d
		out.View = &view
	}

	if out.Success && g.events != nil {
		g.events.Publish(events.NotificationsUpdated{Source: "decision:" + string(verdict)})
		g.events.Publish(events.WalletUpdated{Reason: "decision:" + string(verdict)})
	}

	if ferr != nil {
		return out, fmt.Errorf("refreshing decision %d: %w", id, ferr)
	}
	return out, nil
}

func (g *Gateway) confirm(msg string) {
	if g.notifier != nil {
		g.notifier.Confirm(msg)
	}
}

func (g *Gateway) fail(msg string) {
	if g.notifier != nil {
		g.notifier.Fail(msg)
	}
}

func confirmation(v Verdict) string {
	if v == VerdictAccept {
		return "Discount accepted. Your TEO balance will update shortly."
	}
	return "Discount declined."
}
