package backend

import (
	"context"
	"fmt"
	"net/http"

	"teo-client-go/internal/models"
)

// GetDecision fetches one decision. A missing record yields an *APIError with IsNotFound.
func (c *Client) GetDecision(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	if id <= 0 {
		return nil, fmt.Errorf("decision ID must be positive")
	}

	var resp models.DiscountDecision
	endpoint := fmt.Sprintf("/api/discount-decisions/%d", id)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting decision %d: %w", id, err)
	}
	return &resp, nil
}

// ListPendingSnapshots returns the raw, undeduplicated pending list.
func (c *Client) ListPendingSnapshots(ctx context.Context) ([]models.DiscountSnapshot, error) {
	var resp []models.DiscountSnapshot
	if err := c.doRequest(ctx, http.MethodGet, "/api/discount-decisions/pending", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing pending snapshots: %w", err)
	}
	return resp, nil
}

// PendingCount returns the badge count from the dedicated count endpoint.
func (c *Client) PendingCount(ctx context.Context) (int, error) {
	var resp models.CountResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/discount-decisions/pending/count", nil, &resp); err != nil {
		return 0, fmt.Errorf("getting pending count: %w", err)
	}
	return resp.Count, nil
}

// BackfillDecisions asks the backend to materialize decisions from snapshot data.
func (c *Client) BackfillDecisions(ctx context.Context, snapshotIDs []models.SnapshotID) error {
	if len(snapshotIDs) == 0 {
		return fmt.Errorf("at least one snapshot ID is required")
	}

	req := models.BackfillRequest{SnapshotIds: snapshotIDs}

	var resp models.BackfillResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/discount-decisions/backfill", req, &resp); err != nil {
		return fmt.Errorf("backfilling decisions: %w", err)
	}
	return nil
}

// AcceptDecision records the teacher's acceptance.
func (c *Client) AcceptDecision(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	return c.decide(ctx, id, "accept")
}

// DeclineDecision records the teacher's refusal.
func (c *Client) DeclineDecision(ctx context.Context, id models.DecisionID) (*models.DiscountDecision, error) {
	return c.decide(ctx, id, "decline")
}

func (c *Client) decide(ctx context.Context, id models.DecisionID, verb string) (*models.DiscountDecision, error) {
	if id <= 0 {
		return nil, fmt.Errorf("decision ID must be positive")
	}

	var resp models.DiscountDecision
	endpoint := fmt.Sprintf("/api/discount-decisions/%d/%s", id, verb)
	if err := c.doRequest(ctx, http.MethodPost, endpoint, struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("%s decision %d: %w", verb, id, err)
	}
	return &resp, nil
}
