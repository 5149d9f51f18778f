package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Auth provides the combined register-or-login endpoint.
type Auth struct {
	Config   *web.Config
	MasterDB *db.DB
}

// profile is the account view returned on login.
type profile struct {
	ID             int64              `json:"id"`
	Email          string             `json:"email"`
	Approved       bool               `json:"approved"`
	AllowWithdraw  bool               `json:"allow_withdraw"`
	TotalWithdrawn float64            `json:"total_withdrawn"`
	MiningInfo     rewards.MiningInfo `json:"mining_info"`
}

// Authenticate registers the credential when unknown, otherwise logs in. The
// branch is reported in the response message so clients can retry as login
// after registering.
func (a *Auth) Authenticate(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Auth.Authenticate")
	defer span.End()

	var requestData struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password"`
		License  string `json:"license"`
	}

	if err := web.Unmarshal(r.Body, &requestData); err != nil {
		return translate(errors.Wrap(err, "unmarshal request"))
	}

	dbConn := a.MasterDB.Copy()
	defer dbConn.Close()

	result, err := rewards.Authenticate(ctx, dbConn, requestData.Email, requestData.Password,
		requestData.License, time.Now().UTC())
	if err != nil {
		return translate(errors.Wrap(err, "authenticate"))
	}

	if result.Status == rewards.AuthRegistered {
		response := struct {
			Message string `json:"message"`
			User    struct {
				ID    int64  `json:"id"`
				Email string `json:"email"`
			} `json:"user"`
			Token *string `json:"token"`
		}{
			Message: "User registered successfully click again to login",
		}
		response.User.ID = result.User.ID
		response.User.Email = result.User.Email

		// The token is withheld until first login.
		web.Respond(ctx, w, response, http.StatusOK)
		return nil
	}

	response := struct {
		Message string  `json:"message"`
		User    profile `json:"user"`
		Token   string  `json:"token"`
	}{
		Message: "Login successful",
		User: profile{
			ID:             result.User.ID,
			Email:          result.User.Email,
			Approved:       result.User.Approved,
			AllowWithdraw:  result.User.AllowWithdraw,
			TotalWithdrawn: result.User.TotalWithdrawn,
			MiningInfo:     result.Mining,
		},
		Token: result.User.APIToken,
	}

	web.Respond(ctx, w, response, http.StatusOK)
	return nil
}
