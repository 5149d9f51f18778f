package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// TokenHeader carries the account API token on privileged user calls.
const TokenHeader = "user-api-token"

// Mining serves the simulated progress aggregate.
type Mining struct {
	MasterDB *db.DB
}

// Read returns the stored aggregate for an approved account. The path
// parameter accepts a numeric id or an email.
func (m *Mining) Read(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Mining.Read")
	defer span.End()

	dbConn := m.MasterDB.Copy()
	defer dbConn.Close()

	info, err := rewards.FetchMiningInfo(ctx, dbConn, params["id"])
	if err != nil {
		// The route reports the approval gate as a client error.
		if errors.Cause(err) == rewards.ErrNotApproved {
			return web.NewRequestError(rewards.ErrNotApproved, http.StatusBadRequest)
		}
		return translate(errors.Wrap(err, "fetch mining info"))
	}

	response := struct {
		MiningInfo rewards.MiningInfo `json:"mining_info"`
	}{
		MiningInfo: info,
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}

// Replace overwrites the stored aggregate wholesale. Gated by the API token
// header, not by approval.
func (m *Mining) Replace(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Mining.Replace")
	defer span.End()

	userID, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return web.NewRequestError(errors.New("invalid user id"), http.StatusBadRequest)
	}

	var requestData struct {
		MiningInfo *rewards.MiningInfo `json:"miningInfo" validate:"required"`
	}

	if err := web.Unmarshal(r.Body, &requestData); err != nil {
		return translate(errors.Wrap(err, "unmarshal request"))
	}

	dbConn := m.MasterDB.Copy()
	defer dbConn.Close()

	token := r.Header.Get(TokenHeader)
	if err := rewards.ReplaceMiningInfo(ctx, dbConn, userID, token,
		*requestData.MiningInfo); err != nil {
		return translate(errors.Wrap(err, "replace mining info"))
	}

	response := struct {
		Status string `json:"status"`
	}{
		Status: "Mining info updated",
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}
