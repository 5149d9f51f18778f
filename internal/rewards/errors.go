package rewards

import (
	"github.com/pkg/errors"
)

var (
	// ErrDuplicateCredential is returned when registration violates the email
	// or license uniqueness constraint.
	ErrDuplicateCredential = errors.New("Credential already registered")

	// ErrInvalidCredentials is returned when a secondary credential check
	// fails for an existing account.
	ErrInvalidCredentials = errors.New("Invalid credentials")

	// ErrNotApproved gates login and mining info reads until an operator
	// approves the account.
	ErrNotApproved = errors.New("User not approved")

	// ErrNotVIPApproved gates withdrawals. Withdrawal eligibility is a
	// separate privilege from login approval.
	ErrNotVIPApproved = errors.New("Withdrawals not enabled for user")

	// ErrUnauthorized is returned when the supplied API token does not match
	// the stored token for the account.
	ErrUnauthorized = errors.New("Invalid API token")

	// ErrUnknownNetwork is returned for networks off the allow list.
	ErrUnknownNetwork = errors.New("Unknown network")

	// ErrInvalidParameters is returned for malformed withdrawal requests.
	ErrInvalidParameters = errors.New("Invalid parameters")

	// ErrBadAccessCode is returned when the supplied admin access code does
	// not match the code derived from the current date.
	ErrBadAccessCode = errors.New("Invalid access code")
)
