package rewards

import (
	"context"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"

	"github.com/pkg/errors"
)

const (
	WithdrawalColumns = `
		w.id,
		w.user_id,
		w.requested_at,
		w.network,
		w.address,
		w.amount,
		w.status,
		w.date_created`

	// MinAddressLength is the minimum accepted destination address length.
	MinAddressLength = 12
)

// WithdrawalRequest is the caller supplied portion of a withdrawal.
type WithdrawalRequest struct {
	Network     string
	Address     string
	Amount      float64
	RequestedAt time.Time
}

// SubmitWithdrawal validates and records a withdrawal request. The ledger
// insert and the total_withdrawn increment are committed in one transaction so
// the accumulator can never drift from the ledger. The accumulator grows at
// request time, not completion time; eligibility, not settlement, is what it
// tracks.
func SubmitWithdrawal(ctx context.Context, dbConn *db.DB, userID int64, token string,
	request WithdrawalRequest, now time.Time) (*Withdrawal, error) {

	if len(request.Address) < MinAddressLength {
		return nil, ErrInvalidParameters
	}

	if request.Amount <= 0 {
		return nil, ErrInvalidParameters
	}

	if !NetworkIsValid(request.Network) {
		return nil, ErrUnknownNetwork
	}

	user, err := FetchUser(ctx, dbConn, userID)
	if err != nil {
		return nil, err
	}

	if user.APIToken != token {
		return nil, ErrUnauthorized
	}

	if !user.AllowWithdraw {
		return nil, ErrNotVIPApproved
	}

	requestedAt := request.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = now
	}

	withdrawal := &Withdrawal{
		UserID:      userID,
		RequestedAt: requestedAt,
		Network:     request.Network,
		Address:     request.Address,
		Amount:      request.Amount,
		Status:      StatusRequested,
		DateCreated: now,
	}

	if err := dbConn.BeginTransaction(); err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}

	insertSQL := `INSERT
		INTO withdraws (
		    user_id,
		    requested_at,
		    network,
		    address,
		    amount,
		    status,
		    date_created
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := dbConn.Insert(ctx, insertSQL,
		withdrawal.UserID,
		withdrawal.RequestedAt,
		withdrawal.Network,
		withdrawal.Address,
		withdrawal.Amount,
		withdrawal.Status,
		withdrawal.DateCreated)
	if err != nil {
		dbConn.Rollback()
		return nil, errors.Wrap(err, "insert withdrawal")
	}

	accumSQL := `UPDATE users SET total_withdrawn = total_withdrawn + ?, date_modified=? WHERE id=?`
	if err := dbConn.Execute(ctx, accumSQL, withdrawal.Amount, now, userID); err != nil {
		dbConn.Rollback()
		return nil, errors.Wrap(err, "increment total withdrawn")
	}

	if err := dbConn.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	withdrawal.ID = id
	return withdrawal, nil
}

// ListWithdrawals returns the withdrawal history for an account in insertion
// order. The supplied token must match the stored token.
func ListWithdrawals(ctx context.Context, dbConn *db.DB, userID int64, token string) ([]Withdrawal, error) {
	user, err := FetchUser(ctx, dbConn, userID)
	if err != nil {
		return nil, err
	}

	if user.APIToken != token {
		return nil, ErrUnauthorized
	}

	sql := `SELECT ` + WithdrawalColumns + `
		FROM
			withdraws w
		WHERE
			w.user_id=?
		ORDER BY
			w.id`

	withdrawals := []Withdrawal{}
	err = dbConn.Select(ctx, &withdrawals, sql, userID)
	return withdrawals, err
}

// PromoteRequested bulk flips every REQUESTED row to PENDING, unconditional on
// age. A single idempotent statement, safe to run concurrently with itself.
func PromoteRequested(ctx context.Context, dbConn *db.DB) (int64, error) {
	sql := `UPDATE withdraws SET status=? WHERE status=?`
	return dbConn.ExecuteCount(ctx, sql, StatusPending, StatusRequested)
}

// CompleteAged bulk flips PENDING rows created at or before olderThan to
// COMPLETE. There is no path back from COMPLETE.
func CompleteAged(ctx context.Context, dbConn *db.DB, olderThan time.Time) (int64, error) {
	sql := `UPDATE withdraws SET status=? WHERE status=? AND date_created<=?`
	return dbConn.ExecuteCount(ctx, sql, StatusComplete, StatusPending, olderThan)
}
