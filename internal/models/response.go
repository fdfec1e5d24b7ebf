package models

// APIResponse is the envelope every backend response uses. Error carries the
// machine-readable code, Message the human-readable text.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Error codes shared by the backend and the client.
const (
	CodeNotFound          = "not_found"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeBadRequest        = "bad_request"
	CodeInvalidChallenge  = "invalid_challenge"
	CodeChallengeExpired  = "challenge_expired"
	CodeSignatureMismatch = "signature_mismatch"
	CodeAddressTaken      = "address_taken"
	CodeAlreadyDecided    = "already_decided"
	CodeExpired           = "expired"
	CodeInternal          = "internal_error"
)

// LinkWalletRequest submits the signed challenge
type LinkWalletRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

// ChallengeRequest asks for a fresh challenge scoped to an address
type ChallengeRequest struct {
	Address string           `json:"address"`
	Purpose ChallengePurpose `json:"purpose"`
}

// BackfillRequest names snapshots whose decisions should be materialized
type BackfillRequest struct {
	SnapshotIds []SnapshotID `json:"snapshotIds"`
}

// BackfillResult reports how many decisions the backend created
type BackfillResult struct {
	Created int `json:"created"`
}

// CountResponse carries the pending-decision badge count
type CountResponse struct {
	Count int `json:"count"`
}
