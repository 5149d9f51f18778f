package handlers

import (
	"net/http"

	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/pkg/errors"
)

// translate transforms domain errors into web errors carrying the right
// status. Anything unrecognized propagates and becomes a generic 500.
func translate(err error) error {
	switch errors.Cause(err) {
	case rewards.ErrDuplicateCredential,
		rewards.ErrInvalidParameters,
		rewards.ErrUnknownNetwork:
		return web.NewRequestError(errors.Cause(err), http.StatusBadRequest)

	case rewards.ErrInvalidCredentials,
		rewards.ErrNotApproved:
		return web.NewRequestError(errors.Cause(err), http.StatusUnauthorized)

	case rewards.ErrUnauthorized,
		rewards.ErrNotVIPApproved,
		rewards.ErrBadAccessCode:
		return web.NewRequestError(errors.Cause(err), http.StatusForbidden)

	case db.ErrNotFound:
		return web.ErrNotFound
	}

	return err
}
