package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Admin provides the operator approval and account management operations. The
// dashboard itself carries no authentication; destructive operations are gated
// by the date derived access code, which is a cosmetic gate only.
type Admin struct {
	MasterDB *db.DB

	// Now is injected so the access code check is testable.
	Now func() time.Time
}

// Approve grants login approval. Updating a missing identifier affects
// nothing and still redirects.
func (a *Admin) Approve(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {
	return a.setApproval(ctx, "handlers.Admin.Approve", w, r, params, true)
}

// Revoke removes login approval.
func (a *Admin) Revoke(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {
	return a.setApproval(ctx, "handlers.Admin.Revoke", w, r, params, false)
}

func (a *Admin) setApproval(ctx context.Context, spanName string, w http.ResponseWriter,
	r *http.Request, params map[string]string, approved bool) error {

	ctx, span := trace.StartSpan(ctx, spanName)
	defer span.End()

	userID, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return web.NewRequestError(errors.New("invalid user id"), http.StatusBadRequest)
	}

	dbConn := a.MasterDB.Copy()
	defer dbConn.Close()

	if err := rewards.UpdateApproval(ctx, dbConn, userID, approved); err != nil {
		return translate(errors.Wrap(err, "update approval"))
	}

	web.Redirect(ctx, w, r, "/", http.StatusFound)
	return nil
}

// ApproveWithdrawal grants the withdrawal privilege, independent of login
// approval.
func (a *Admin) ApproveWithdrawal(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {
	return a.setWithdrawal(ctx, "handlers.Admin.ApproveWithdrawal", w, r, params, true)
}

// RevokeWithdrawal removes the withdrawal privilege.
func (a *Admin) RevokeWithdrawal(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {
	return a.setWithdrawal(ctx, "handlers.Admin.RevokeWithdrawal", w, r, params, false)
}

func (a *Admin) setWithdrawal(ctx context.Context, spanName string, w http.ResponseWriter,
	r *http.Request, params map[string]string, allowed bool) error {

	ctx, span := trace.StartSpan(ctx, spanName)
	defer span.End()

	userID, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return web.NewRequestError(errors.New("invalid user id"), http.StatusBadRequest)
	}

	dbConn := a.MasterDB.Copy()
	defer dbConn.Close()

	if err := rewards.UpdateWithdrawalPrivilege(ctx, dbConn, userID, allowed); err != nil {
		return translate(errors.Wrap(err, "update withdrawal privilege"))
	}

	web.Redirect(ctx, w, r, "/", http.StatusFound)
	return nil
}

// Delete removes an account. Gated by the access code. Withdrawal history is
// left behind.
func (a *Admin) Delete(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Admin.Delete")
	defer span.End()

	if !rewards.CheckAccessCode(a.Now(), params["accessCode"]) {
		return translate(rewards.ErrBadAccessCode)
	}

	userID, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return web.NewRequestError(errors.New("invalid user id"), http.StatusBadRequest)
	}

	dbConn := a.MasterDB.Copy()
	defer dbConn.Close()

	if err := rewards.DeleteUser(ctx, dbConn, userID); err != nil {
		return translate(errors.Wrap(err, "delete user"))
	}

	response := struct {
		Status string `json:"status"`
	}{
		Status: "User deleted",
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}

// CreateLicense issues a license keyed account. Gated by the access code.
func (a *Admin) CreateLicense(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Admin.CreateLicense")
	defer span.End()

	if !rewards.CheckAccessCode(a.Now(), params["accessCode"]) {
		return translate(rewards.ErrBadAccessCode)
	}

	var requestData struct {
		Email string `json:"email" validate:"required"`
	}

	if err := web.Unmarshal(r.Body, &requestData); err != nil {
		return translate(errors.Wrap(err, "unmarshal request"))
	}

	dbConn := a.MasterDB.Copy()
	defer dbConn.Close()

	user, err := rewards.CreateLicenseUser(ctx, dbConn, requestData.Email,
		time.Now().UTC())
	if err != nil {
		return translate(errors.Wrap(err, "create license user"))
	}

	response := struct {
		UserID  int64  `json:"user_id"`
		Email   string `json:"email"`
		License string `json:"license"`
	}{
		UserID:  user.ID,
		Email:   user.Email,
		License: *user.License,
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}
