package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a reference-backend account
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// ChallengeRecord is a stored challenge with its consumption state
type ChallengeRecord struct {
	Nonce     string    `db:"nonce"`
	UserId    string    `db:"user_id"`
	Address   string    `db:"address"`
	Purpose   string    `db:"purpose"`
	Message   string    `db:"message"`
	Used      bool      `db:"used"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// SnapshotRecord is a stored pending-offer snapshot
type SnapshotRecord struct {
	Id                int64            `db:"id"`
	TeacherId         string           `db:"teacher_id"`
	PendingDecisionId *int64           `db:"pending_decision_id"`
	CourseTitle       string           `db:"course_title"`
	StudentLabel      string           `db:"student_label"`
	CoursePrice       decimal.Decimal  `db:"course_price"`
	DiscountPct       decimal.Decimal  `db:"discount_percentage"`
	CommissionRate    decimal.Decimal  `db:"teacher_commission_rate"`
	StakingTier       string           `db:"teacher_staking_tier"`
	OfferedTeacherTeo decimal.Decimal  `db:"offered_teacher_teo"`
	TeacherTeo        *decimal.Decimal `db:"teacher_teo"`
	ExpiresAt         time.Time        `db:"expires_at"`
	CreatedAt         time.Time        `db:"created_at"`
}

// DecisionRecord is a stored authoritative decision. The course fields are
// read from the originating snapshot.
type DecisionRecord struct {
	Id                int64            `db:"id"`
	SnapshotId        int64            `db:"snapshot_id"`
	TeacherId         string           `db:"teacher_id"`
	Decision          string           `db:"decision"`
	OfferedTeacherTeo decimal.Decimal  `db:"offered_teacher_teo"`
	FinalTeacherTeo   *decimal.Decimal `db:"final_teacher_teo"`
	ExpiresAt         time.Time        `db:"expires_at"`
	DecidedAt         *time.Time       `db:"decided_at"`
	CreatedAt         time.Time        `db:"created_at"`

	CourseTitle    string          `db:"course_title"`
	StudentLabel   string          `db:"student_label"`
	CoursePrice    decimal.Decimal `db:"course_price"`
	DiscountPct    decimal.Decimal `db:"discount_percentage"`
	CommissionRate decimal.Decimal `db:"teacher_commission_rate"`
	StakingTier    string          `db:"teacher_staking_tier"`
}

// WalletOperation is a recorded burn credit, withdrawal request or stake
type WalletOperation struct {
	Id             string          `db:"id"`
	UserId         string          `db:"user_id"`
	Kind           string          `db:"kind"`
	Address        string          `db:"address"`
	Amount         decimal.Decimal `db:"amount"`
	TxHash         string          `db:"tx_hash"`
	IdempotencyKey string          `db:"idempotency_key"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
}
