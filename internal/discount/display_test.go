package discount

import (
	"testing"

	"teo-client-go/internal/models"
)

func TestDisplayTeoPicksOneSource(t *testing.T) {
	tests := []struct {
		name   string
		d      models.DiscountDecision
		want   string
		wantOK bool
	}{
		{"pending reads offered", models.DiscountDecision{Decision: models.DecisionPending, OfferedTeacherTeo: teo("5"), FinalTeacherTeo: teo("9")}, "5", true},
		{"accepted reads final", models.DiscountDecision{Decision: models.DecisionAccepted, OfferedTeacherTeo: teo("5"), FinalTeacherTeo: teo("9")}, "9", true},
		{"accepted without final", models.DiscountDecision{Decision: models.DecisionAccepted, OfferedTeacherTeo: teo("5")}, "", false},
		{"pending without offered", models.DiscountDecision{Decision: models.DecisionPending, FinalTeacherTeo: teo("9")}, "", false},
		{"declined reads nothing", models.DiscountDecision{Decision: models.DecisionDeclined, OfferedTeacherTeo: teo("5"), FinalTeacherTeo: teo("9")}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DisplayTeo(&tt.d)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestActionsEnabledAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		d          models.DiscountDecision
		wantStatus models.DecisionState
		wantActive bool
	}{
		{"pending", models.DiscountDecision{Decision: models.DecisionPending}, models.DecisionPending, true},
		{"pending but expired", models.DiscountDecision{Decision: models.DecisionPending, IsExpired: true}, models.DecisionExpired, false},
		{"accepted", models.DiscountDecision{Decision: models.DecisionAccepted}, models.DecisionAccepted, false},
		{"declined", models.DiscountDecision{Decision: models.DecisionDeclined}, models.DecisionDeclined, false},
		{"declined flagged expired", models.DiscountDecision{Decision: models.DecisionDeclined, IsExpired: true}, models.DecisionDeclined, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(&tt.d); got != tt.wantStatus {
				t.Errorf("status = %s, want %s", got, tt.wantStatus)
			}
			if got := ActionsEnabled(&tt.d); got != tt.wantActive {
				t.Errorf("actions = %v, want %v", got, tt.wantActive)
			}
			v := ViewOf(&tt.d)
			if v.CanAccept != tt.wantActive || v.CanDecline != tt.wantActive {
				t.Errorf("view buttons = %v/%v, want %v", v.CanAccept, v.CanDecline, tt.wantActive)
			}
		})
	}
}
