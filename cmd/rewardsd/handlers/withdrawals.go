package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Withdrawals serves withdrawal submission, eligibility and history.
type Withdrawals struct {
	MasterDB *db.DB
}

// Approval reports withdrawal eligibility when called with an empty body and
// submits a withdrawal request when called with one.
func (wd *Withdrawals) Approval(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Withdrawals.Approval")
	defer span.End()

	userID, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return web.NewRequestError(errors.New("invalid user id"), http.StatusBadRequest)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	token := r.Header.Get(TokenHeader)

	dbConn := wd.MasterDB.Copy()
	defer dbConn.Close()

	if len(bytes.TrimSpace(body)) == 0 {
		return wd.eligibility(ctx, w, dbConn, userID, token)
	}

	var requestData struct {
		Datetime time.Time `json:"datetime"`
		Network  string    `json:"network"`
		Address  string    `json:"address"`
		Amount   float64   `json:"amount"`
	}

	if err := web.Unmarshal(bytes.NewReader(body), &requestData); err != nil {
		return translate(errors.Wrap(err, "unmarshal request"))
	}

	request := rewards.WithdrawalRequest{
		Network:     requestData.Network,
		Address:     requestData.Address,
		Amount:      requestData.Amount,
		RequestedAt: requestData.Datetime,
	}

	withdrawal, err := rewards.SubmitWithdrawal(ctx, dbConn, userID, token, request,
		time.Now().UTC())
	if err != nil {
		return translate(errors.Wrap(err, "submit withdrawal"))
	}

	response := struct {
		Status     string             `json:"status"`
		Withdrawal rewards.Withdrawal `json:"withdrawal"`
	}{
		Status:     withdrawal.Status,
		Withdrawal: *withdrawal,
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}

// eligibility is the empty body branch of Approval.
func (wd *Withdrawals) eligibility(ctx context.Context, w http.ResponseWriter,
	dbConn *db.DB, userID int64, token string) error {

	user, err := rewards.FetchUser(ctx, dbConn, userID)
	if err != nil {
		return translate(errors.Wrap(err, "fetch user"))
	}

	if user.APIToken != token {
		return translate(rewards.ErrUnauthorized)
	}

	response := struct {
		AllowWithdraw bool `json:"allow_withdraw"`
	}{
		AllowWithdraw: user.AllowWithdraw,
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}

// History returns every ledger row for the account in insertion order.
func (wd *Withdrawals) History(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Withdrawals.History")
	defer span.End()

	userID, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return web.NewRequestError(errors.New("invalid user id"), http.StatusBadRequest)
	}

	dbConn := wd.MasterDB.Copy()
	defer dbConn.Close()

	token := r.Header.Get(TokenHeader)

	withdrawals, err := rewards.ListWithdrawals(ctx, dbConn, userID, token)
	if err != nil {
		return translate(errors.Wrap(err, "list withdrawals"))
	}

	response := struct {
		Withdrawals []rewards.Withdrawal `json:"withdrawals"`
	}{
		Withdrawals: withdrawals,
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}
