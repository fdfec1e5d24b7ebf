package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// DecisionID identifies an authoritative discount decision record
type DecisionID int64

func (id DecisionID) String() string { return strconv.FormatInt(int64(id), 10) }

// SnapshotID identifies a cached pending-offer snapshot. It lives in a
// different namespace from DecisionID even when the numbers collide.
type SnapshotID int64

func (id SnapshotID) String() string { return strconv.FormatInt(int64(id), 10) }

// DecisionState is the server-side verdict of a discount decision
type DecisionState string

const (
	DecisionPending  DecisionState = "pending"
	DecisionAccepted DecisionState = "accepted"
	DecisionDeclined DecisionState = "declined"
	// DecisionExpired is derived from IsExpired; the backend never sends it as a verdict.
	DecisionExpired DecisionState = "expired"
)

// DiscountSnapshot is the list-display view of a pending offer. PendingDecisionID
// is nil until the backend has materialized the decision row.
type DiscountSnapshot struct {
	ID                SnapshotID       `json:"id"`
	PendingDecisionID *DecisionID      `json:"pendingDecisionId,omitempty"`
	CourseTitle       string           `json:"courseTitle"`
	StudentLabel      string           `json:"studentLabel"`
	OfferedTeacherTeo *decimal.Decimal `json:"offeredTeacherTeo,omitempty"`
	TeacherTeo        *decimal.Decimal `json:"teacherTeo,omitempty"`
}

// Earnings is a server-computed projection, opaque to the client
type Earnings struct {
	Fiat decimal.Decimal `json:"fiat"`
	Teo  decimal.Decimal `json:"teo"`
}

// DiscountDecision is the authoritative record of a discount offer outcome.
// OfferedTeacherTeo is meaningful only while pending, FinalTeacherTeo only once accepted.
type DiscountDecision struct {
	ID                    DecisionID       `json:"id"`
	Decision              DecisionState    `json:"decision"`
	IsExpired             bool             `json:"isExpired"`
	CourseTitle           string           `json:"courseTitle,omitempty"`
	StudentLabel          string           `json:"studentLabel,omitempty"`
	OfferedTeacherTeo     *decimal.Decimal `json:"offeredTeacherTeo,omitempty"`
	FinalTeacherTeo       *decimal.Decimal `json:"finalTeacherTeo,omitempty"`
	CoursePrice           decimal.Decimal  `json:"coursePrice"`
	DiscountPercentage    decimal.Decimal  `json:"discountPercentage"`
	TeacherCommissionRate decimal.Decimal  `json:"teacherCommissionRate"`
	TeacherStakingTier    string           `json:"teacherStakingTier,omitempty"`
	EarningsIfAccepted    *Earnings        `json:"earningsIfAccepted,omitempty"`
	EarningsIfDeclined    *Earnings        `json:"earningsIfDeclined,omitempty"`
}
