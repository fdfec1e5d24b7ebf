/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// User queries
	queryGetUsers = `
		SELECT id, name, email, created_at
		FROM users
		ORDER BY created_at, id`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at
		FROM users
		WHERE id = ?`

	// Challenge queries
	queryInsertChallenge = `
		INSERT INTO challenges (nonce, user_id, address, purpose, message, used, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`

	queryGetChallenge = `
		SELECT nonce, user_id, address, purpose, message, used, expires_at, created_at
		FROM challenges
		WHERE nonce = ?`

	queryMarkChallengeUsed = `
		UPDATE challenges SET used = 1 WHERE nonce = ?`

	// Wallet link queries
	queryGetLinkOwner = `
		SELECT user_id FROM wallet_links WHERE address = ?`

	queryUpsertWalletLink = `
		INSERT INTO wallet_links (user_id, address, linked_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET address = excluded.address, linked_at = excluded.linked_at`

	queryDeleteWalletLink = `
		DELETE FROM wallet_links WHERE user_id = ?`

	queryGetWalletLink = `
		SELECT address, linked_at FROM wallet_links WHERE user_id = ?`

	// Snapshot queries
	queryInsertSnapshot = `
		INSERT INTO snapshots (teacher_id, pending_decision_id, course_title, student_label, course_price,
			discount_percentage, teacher_commission_rate, teacher_staking_tier, offered_teacher_teo,
			teacher_teo, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	snapshotColumns = `
		s.id, s.teacher_id, s.pending_decision_id, s.course_title, s.student_label, s.course_price,
		s.discount_percentage, s.teacher_commission_rate, s.teacher_staking_tier, s.offered_teacher_teo,
		s.teacher_teo, s.expires_at, s.created_at`

	queryGetSnapshot = `
		SELECT ` + snapshotColumns + `
		FROM snapshots s
		WHERE s.id = ? AND s.teacher_id = ?`

	// A snapshot is pending while it has no decision yet, or its decision is
	// still pending and unexpired.
	queryListPendingSnapshots = `
		SELECT ` + snapshotColumns + `
		FROM snapshots s
		LEFT JOIN decisions d ON d.id = s.pending_decision_id
		WHERE s.teacher_id = ?
		  AND s.expires_at > ?
		  AND (s.pending_decision_id IS NULL OR (d.decision = 'pending' AND d.expires_at > ?))
		ORDER BY s.id`

	queryLinkSnapshot = `
		UPDATE snapshots SET pending_decision_id = ? WHERE id = ? AND pending_decision_id IS NULL`

	// Decision queries
	queryInsertDecision = `
		INSERT INTO decisions (snapshot_id, teacher_id, decision, offered_teacher_teo, expires_at, created_at)
		VALUES (?, ?, 'pending', ?, ?, ?)`

	queryCountPendingDecisions = `
		SELECT COUNT(*)
		FROM decisions
		WHERE teacher_id = ? AND decision = 'pending' AND expires_at > ?`

	queryGetDecision = `
		SELECT d.id, d.snapshot_id, d.teacher_id, d.decision, d.offered_teacher_teo, d.final_teacher_teo,
			d.expires_at, d.decided_at, d.created_at,
			s.course_title, s.student_label, s.course_price, s.discount_percentage,
			s.teacher_commission_rate, s.teacher_staking_tier
		FROM decisions d
		JOIN snapshots s ON s.id = d.snapshot_id
		WHERE d.id = ? AND d.teacher_id = ?`

	queryUpdateDecision = `
		UPDATE decisions
		SET decision = ?, final_teacher_teo = ?, decided_at = ?
		WHERE id = ? AND decision = 'pending'`

	// Wallet operation queries
	queryInsertWalletOperation = `
		INSERT INTO wallet_operations (id, user_id, kind, address, amount, tx_hash, idempotency_key, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`

	walletOperationColumns = `id, user_id, kind, address, amount, tx_hash, idempotency_key, status, created_at`

	queryGetOperationByKey = `
		SELECT ` + walletOperationColumns + `
		FROM wallet_operations
		WHERE user_id = ? AND idempotency_key = ?`

	queryGetOperationByTxHash = `
		SELECT ` + walletOperationColumns + `
		FROM wallet_operations
		WHERE tx_hash = ?`

	queryGetOperationById = `
		SELECT ` + walletOperationColumns + `
		FROM wallet_operations
		WHERE id = ?`
)
