package models

import "time"

// WalletStatus is the backend's view of a user's wallet link
type WalletStatus string

const (
	WalletUnlinked WalletStatus = "unlinked"
	WalletLinked   WalletStatus = "linked"
)

// WalletLink is replaced wholesale on every link/unlink, never mutated in place
type WalletLink struct {
	Address  string       `json:"address,omitempty"` // lowercase hex
	Status   WalletStatus `json:"status"`
	LinkedAt time.Time    `json:"linkedAt,omitempty"`
}

// IsLinked reports whether the link carries a usable address
func (w *WalletLink) IsLinked() bool {
	return w != nil && w.Status == WalletLinked && w.Address != ""
}

// ChallengePurpose scopes a challenge to one backend flow
type ChallengePurpose string

const PurposeLinkWallet ChallengePurpose = "link_wallet"

// Challenge is a single-use nonce/message pair issued by the backend.
// Message must be signed byte-for-byte as received.
type Challenge struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}
