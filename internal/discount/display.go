package discount

import (
	"github.com/shopspring/decimal"

	"teo-client-go/internal/models"
)

// StatusOf folds IsExpired into the verdict. Only pending records can expire.
func StatusOf(d *models.DiscountDecision) models.DecisionState {
	if d.Decision == models.DecisionPending && d.IsExpired {
		return models.DecisionExpired
	}
	return d.Decision
}

// DisplayTeo picks the one TEO amount that is authoritative for the
// decision's state: offered while pending, final once accepted, none otherwise.
func DisplayTeo(d *models.DiscountDecision) (decimal.Decimal, bool) {
	switch d.Decision {
	case models.DecisionPending:
		if d.OfferedTeacherTeo != nil {
			return *d.OfferedTeacherTeo, true
		}
	case models.DecisionAccepted:
		if d.FinalTeacherTeo != nil {
			return *d.FinalTeacherTeo, true
		}
	}
	return decimal.Decimal{}, false
}

// ActionsEnabled reports whether accept and decline may be offered.
func ActionsEnabled(d *models.DiscountDecision) bool {
	return d.Decision == models.DecisionPending && !d.IsExpired
}

// View is what a decision card shows.
type View struct {
	ID           models.DecisionID
	Status       models.DecisionState
	CourseTitle  string
	StudentLabel string
	Teo          *decimal.Decimal
	CanAccept    bool
	CanDecline   bool
	IfAccepted   *models.Earnings
	IfDeclined   *models.Earnings
}

func ViewOf(d *models.DiscountDecision) View {
	v := View{
		ID:           d.ID,
		Status:       StatusOf(d),
		CourseTitle:  d.CourseTitle,
		StudentLabel: d.StudentLabel,
		CanAccept:    ActionsEnabled(d),
		CanDecline:   ActionsEnabled(d),
		IfAccepted:   d.EarningsIfAccepted,
		IfDeclined:   d.EarningsIfDeclined,
	}
	if teo, ok := DisplayTeo(d); ok {
		v.Teo = &teo
	}
	return v
}
