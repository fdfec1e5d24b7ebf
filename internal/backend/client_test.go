package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"teo-client-go/internal/models"
)

type staticTokens string

func (s staticTokens) Token() (string, error) {
	if s == "" {
		return "", errors.New("no token")
	}
	return string(s), nil
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, resp models.APIResponse) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := New(server.URL, WithTokenSource(staticTokens("tok-1")))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid URL", baseURL: "http://localhost:8080"},
		{name: "URL without scheme", baseURL: "localhost:8080"},
		{name: "empty URL", baseURL: "", wantErr: true},
		{name: "invalid URL", baseURL: "://invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && c == nil {
				t.Error("New() returned nil client")
			}
		})
	}
}

func TestAuthenticated(t *testing.T) {
	c, _ := New("http://localhost")
	if c.Authenticated() {
		t.Error("client without token source must not be authenticated")
	}
	c, _ = New("http://localhost", WithTokenSource(staticTokens("")))
	if c.Authenticated() {
		t.Error("empty token must not be authenticated")
	}
	c, _ = New("http://localhost", WithTokenSource(staticTokens("x")))
	if !c.Authenticated() {
		t.Error("expected authenticated")
	}
}

func TestRequestChallenge_SendsBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/wallet/challenge" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		var req models.ChallengeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Address != "0xabc" || req.Purpose != models.PurposeLinkWallet {
			t.Errorf("request = %+v", req)
		}
		writeEnvelope(t, w, http.StatusOK, models.APIResponse{
			Success: true,
			Data:    models.Challenge{Nonce: "n1", Message: "Sign to link wallet. Nonce: n1"},
		})
	})

	ch, err := c.RequestChallenge(context.Background(), models.PurposeLinkWallet, "0xabc")
	if err != nil {
		t.Fatalf("RequestChallenge: %v", err)
	}
	if ch.Nonce != "n1" || ch.Message != "Sign to link wallet. Nonce: n1" {
		t.Errorf("challenge = %+v", ch)
	}
}

func TestGetDecision_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusNotFound, models.APIResponse{
			Success: false, Error: models.CodeNotFound, Message: "decision not found",
		})
	})

	_, err := c.GetDecision(context.Background(), 42)
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound = false for %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != models.CodeNotFound {
		t.Fatalf("want APIError with not_found code, got %v", err)
	}
}

func TestDoRequest_ErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      string
		wantMessage   string
		wantTransient bool
		wantConflict  bool
		wantUnauth    bool
	}{
		{
			name:        "conflict envelope",
			status:      http.StatusConflict,
			body:        `{"success":false,"error":"already_decided","message":"Decision already declined"}`,
			wantCode:     models.CodeAlreadyDecided,
			wantMessage:  "Decision already declined",
			wantConflict: true,
		},
		{
			name:        "expired session",
			status:      http.StatusUnauthorized,
			body:        `{"success":false,"error":"unauthorized","message":"Session expired. Please sign in again."}`,
			wantCode:    models.CodeUnauthorized,
			wantMessage: "Session expired. Please sign in again.",
			wantUnauth:  true,
		},
		{
			name:          "raw 502",
			status:        http.StatusBadGateway,
			body:          "bad gateway",
			wantCode:      "HTTP_502",
			wantMessage:   "bad gateway",
			wantTransient: true,
		},
		{
			name:        "200 with failure envelope",
			status:      http.StatusOK,
			body:        `{"success":false,"error":"bad_request","message":"nope"}`,
			wantCode:    models.CodeBadRequest,
			wantMessage: "nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.AcceptDecision(context.Background(), 5)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("want *APIError, got %v", err)
			}
			if apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMessage {
				t.Errorf("got code=%q message=%q", apiErr.Code, apiErr.Message)
			}
			if apiErr.Transient() != tt.wantTransient {
				t.Errorf("Transient() = %v", apiErr.Transient())
			}
			if IsConflict(err) != tt.wantConflict {
				t.Errorf("IsConflict() = %v", IsConflict(err))
			}
			if IsUnauthorized(err) != tt.wantUnauth {
				t.Errorf("IsUnauthorized() = %v", IsUnauthorized(err))
			}
			if msg, ok := MessageOf(err); !ok || msg != tt.wantMessage {
				t.Errorf("MessageOf = %q, %v", msg, ok)
			}
		})
	}
}

func TestListPendingSnapshots(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/discount-decisions/pending" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"id":1,"pendingDecisionId":11,"courseTitle":"Go","studentLabel":"s1","offeredTeacherTeo":"12.5"},
			{"id":2,"courseTitle":"Rust","studentLabel":"s2"}]}`))
	})

	snaps, err := c.ListPendingSnapshots(context.Background())
	if err != nil {
		t.Fatalf("ListPendingSnapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("len = %d", len(snaps))
	}
	if snaps[0].PendingDecisionID == nil || *snaps[0].PendingDecisionID != 11 {
		t.Errorf("first pendingDecisionId = %v", snaps[0].PendingDecisionID)
	}
	if snaps[0].OfferedTeacherTeo == nil || snaps[0].OfferedTeacherTeo.String() != "12.5" {
		t.Errorf("offeredTeacherTeo = %v", snaps[0].OfferedTeacherTeo)
	}
	if snaps[1].PendingDecisionID != nil {
		t.Errorf("second should have no decision id")
	}
}

func TestPendingCountAndBackfill(t *testing.T) {
	var backfilled []models.SnapshotID
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/discount-decisions/pending/count":
			_, _ = w.Write([]byte(`{"success":true,"data":{"count":3}}`))
		case "/api/discount-decisions/backfill":
			var req models.BackfillRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			backfilled = req.SnapshotIds
			_, _ = w.Write([]byte(`{"success":true,"data":{"created":1}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	n, err := c.PendingCount(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("PendingCount = %d, %v", n, err)
	}
	if err := c.BackfillDecisions(context.Background(), []models.SnapshotID{42}); err != nil {
		t.Fatalf("BackfillDecisions: %v", err)
	}
	if len(backfilled) != 1 || backfilled[0] != 42 {
		t.Errorf("backfilled = %v", backfilled)
	}
	if err := c.BackfillDecisions(context.Background(), nil); err == nil {
		t.Error("expected error for empty backfill")
	}
}

func TestGetWallet_DefaultsToUnlinked(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	})
	link, err := c.GetWallet(context.Background())
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if link.Status != models.WalletUnlinked || link.IsLinked() {
		t.Errorf("link = %+v", link)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{name: "healthy", statusCode: http.StatusOK},
		{name: "unhealthy", statusCode: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			})
			if err := c.HealthCheck(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
