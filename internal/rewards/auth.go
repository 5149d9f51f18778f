package rewards

import (
	"context"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"

	"github.com/pkg/errors"
)

// AuthStatus tags the outcome of an Authenticate call. The single auth
// operation deliberately conflates signup and login, branching on whether the
// credential already exists.
type AuthStatus string

const (
	AuthRegistered AuthStatus = "registered"
	AuthLoggedIn   AuthStatus = "logged_in"
)

// AuthResult is the tagged outcome of Authenticate.
type AuthResult struct {
	Status AuthStatus
	User   User

	// Mining is decoded only on login.
	Mining MiningInfo
}

// Authenticate looks an account up by license when one is supplied, otherwise
// by email. A missing email credential registers a new unapproved account. An
// existing unapproved account is rejected before any secondary credential
// check, so credential correctness is never revealed for unapproved accounts.
func Authenticate(ctx context.Context, dbConn *db.DB, email, password, license string,
	now time.Time) (*AuthResult, error) {

	if len(license) > 0 {
		return authenticateLicense(ctx, dbConn, email, license)
	}

	user, err := FetchUserByEmail(ctx, dbConn, email)
	if errors.Cause(err) == db.ErrNotFound {
		// Credential unknown, perform registration.
		user := NewUser(email, password, now)
		if err := CreateUser(ctx, dbConn, user); err != nil {
			return nil, errors.Wrap(err, "register user")
		}

		return &AuthResult{Status: AuthRegistered, User: *user}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetch user")
	}

	if !user.Approved {
		return nil, ErrNotApproved
	}

	// Re-validate with the secondary credential.
	verified := User{}
	sql := `SELECT ` + UserColumns + ` FROM users u WHERE u.email=? AND u.password=?`
	if err := dbConn.Get(ctx, &verified, sql, email, password); err != nil {
		if errors.Cause(err) == db.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "verify credentials")
	}

	return loginResult(verified)
}

func authenticateLicense(ctx context.Context, dbConn *db.DB, email, license string) (*AuthResult, error) {
	user, err := FetchUserByLicense(ctx, dbConn, license)
	if errors.Cause(err) == db.ErrNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetch user")
	}

	if !user.Approved {
		return nil, ErrNotApproved
	}

	// The registered email is the secondary credential for license accounts.
	if user.Email != email {
		return nil, ErrInvalidCredentials
	}

	return loginResult(user)
}

func loginResult(user User) (*AuthResult, error) {
	mining, err := DecodeMiningInfo(user.MiningInfo)
	if err != nil {
		return nil, errors.Wrap(err, "decode mining info")
	}

	return &AuthResult{Status: AuthLoggedIn, User: user, Mining: mining}, nil
}
