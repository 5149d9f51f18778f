package rewards

import (
	"encoding/json"
	"time"
)

// Withdrawal lifecycle. Rows are created REQUESTED, bulk promoted to PENDING
// by the sweeper, and bulk completed once old enough. There is no failure
// status and no path back from COMPLETE.
const (
	StatusRequested = "REQUESTED"
	StatusPending   = "PENDING"
	StatusComplete  = "COMPLETE"
)

// Networks withdrawals can be requested on. Matching is case sensitive.
var Networks = []string{
	"Ethereum",
	"Bitcoin",
	"Litecoin",
	"Solana",
	"Base",
	"Arbitrum",
	"Optimism",
}

// NetworkIsValid returns true if the network is on the allow list.
func NetworkIsValid(network string) bool {
	for _, n := range Networks {
		if n == network {
			return true
		}
	}
	return false
}

// User is an account row. APIToken is an opaque bearer credential generated at
// registration and compared byte for byte on every privileged user call. It is
// not schema-unique. Approved gates login, AllowWithdraw gates withdrawals,
// independently.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Password       string    `db:"password" json:"-"`
	License        *string   `db:"license" json:"license,omitempty"`
	Approved       bool      `db:"approved" json:"approved"`
	AllowWithdraw  bool      `db:"allow_withdraw" json:"allow_withdraw"`
	MiningInfo     string    `db:"mining_info" json:"-"`
	APIToken       string    `db:"api_token" json:"-"`
	TotalWithdrawn float64   `db:"total_withdrawn" json:"total_withdrawn"`
	DateCreated    time.Time `db:"date_created" json:"date_created"`
	DateModified   time.Time `db:"date_modified" json:"date_modified"`
}

// MiningInfo is the simulated progress aggregate. It is client supplied,
// trusted as-is, stored as opaque JSON text, and only ever replaced wholesale.
type MiningInfo struct {
	DailyBlocks    int64   `json:"daily_blocks"`
	SharesAccepted int64   `json:"shares_accepted"`
	ActiveRigs     int64   `json:"active_rigs"`
	TotalVolume    float64 `json:"total_volume"`
}

// Encode serializes the aggregate for storage.
func (m MiningInfo) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeMiningInfo deserializes a stored aggregate.
func DecodeMiningInfo(raw string) (MiningInfo, error) {
	result := MiningInfo{}
	err := json.Unmarshal([]byte(raw), &result)
	return result, err
}

// DefaultMiningInfo is the aggregate assigned to new accounts.
func DefaultMiningInfo() string {
	encoded, _ := MiningInfo{}.Encode()
	return encoded
}

// Withdrawal is a ledger row. Status is the only field that changes after
// creation. DateCreated drives the completion sweep.
type Withdrawal struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	RequestedAt time.Time `db:"requested_at" json:"requested_at"`
	Network     string    `db:"network" json:"network"`
	Address     string    `db:"address" json:"address"`
	Amount      float64   `db:"amount" json:"amount"`
	Status      string    `db:"status" json:"status"`
	DateCreated time.Time `db:"date_created" json:"date_created"`
}
