package rewards

import (
	"context"
	"strconv"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	UserColumns = `
		u.id,
		u.email,
		u.password,
		u.license,
		u.approved,
		u.allow_withdraw,
		u.mining_info,
		u.api_token,
		u.total_withdrawn,
		u.date_created,
		u.date_modified`
)

// CreateUser inserts an account into the database and assigns its identifier.
func CreateUser(ctx context.Context, dbConn *db.DB, user *User) error {
	sql := `INSERT
		INTO users (
		    email,
		    password,
		    license,
		    approved,
		    allow_withdraw,
		    mining_info,
		    api_token,
		    total_withdrawn,
		    date_created,
		    date_modified
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := dbConn.Insert(ctx, sql,
		user.Email,
		user.Password,
		user.License,
		user.Approved,
		user.AllowWithdraw,
		user.MiningInfo,
		user.APIToken,
		user.TotalWithdrawn,
		user.DateCreated,
		user.DateModified)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCredential
		}
		return err
	}

	user.ID = id
	return nil
}

// NewUser builds an unapproved account with default counters and a fresh
// token.
func NewUser(email, password string, now time.Time) *User {
	return &User{
		Email:        email,
		Password:     password,
		MiningInfo:   DefaultMiningInfo(),
		APIToken:     GenerateAPIToken(),
		DateCreated:  now,
		DateModified: now,
	}
}

// CreateLicenseUser creates an account keyed by a freshly issued license
// instead of a password. The account still requires operator approval before
// login.
func CreateLicenseUser(ctx context.Context, dbConn *db.DB, email string, now time.Time) (*User, error) {
	license, err := GenerateLicenseKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate license")
	}

	user := &User{
		Email:        email,
		License:      &license,
		MiningInfo:   DefaultMiningInfo(),
		APIToken:     GenerateAPIToken(),
		DateCreated:  now,
		DateModified: now,
	}

	if err := CreateUser(ctx, dbConn, user); err != nil {
		return nil, err
	}

	return user, nil
}

func FetchUser(ctx context.Context, dbConn *db.DB, id int64) (User, error) {
	sql := `SELECT ` + UserColumns + `
		FROM
			users u
		WHERE
			u.id=?`

	user := User{}
	err := dbConn.Get(ctx, &user, sql, id)
	return user, err
}

func FetchUserByEmail(ctx context.Context, dbConn *db.DB, email string) (User, error) {
	sql := `SELECT ` + UserColumns + `
		FROM
			users u
		WHERE
			u.email=?`

	user := User{}
	err := dbConn.Get(ctx, &user, sql, email)
	return user, err
}

func FetchUserByLicense(ctx context.Context, dbConn *db.DB, license string) (User, error) {
	sql := `SELECT ` + UserColumns + `
		FROM
			users u
		WHERE
			u.license=?`

	user := User{}
	err := dbConn.Get(ctx, &user, sql, license)
	return user, err
}

// ListUsers returns every account for the dashboard.
func ListUsers(ctx context.Context, dbConn *db.DB) ([]User, error) {
	sql := `SELECT ` + UserColumns + `
		FROM
			users u
		ORDER BY
			u.id`

	users := []User{}
	err := dbConn.Select(ctx, &users, sql)
	return users, err
}

// UpdateApproval flips the login approval flag. Idempotent; updating a missing
// identifier affects nothing and is not an error.
func UpdateApproval(ctx context.Context, dbConn *db.DB, id int64, approved bool) error {
	sql := `UPDATE users SET approved=?, date_modified=? WHERE id=?`
	return dbConn.Execute(ctx, sql, approved, time.Now().UTC(), id)
}

// UpdateWithdrawalPrivilege flips the withdrawal privilege flag, independent
// of login approval.
func UpdateWithdrawalPrivilege(ctx context.Context, dbConn *db.DB, id int64, allowed bool) error {
	sql := `UPDATE users SET allow_withdraw=?, date_modified=? WHERE id=?`
	return dbConn.Execute(ctx, sql, allowed, time.Now().UTC(), id)
}

// DeleteUser removes an account. Withdrawal history is deliberately left in
// place. Returns db.ErrNotFound when no row matched.
func DeleteUser(ctx context.Context, dbConn *db.DB, id int64) error {
	sql := `DELETE FROM users WHERE id=?`

	count, err := dbConn.ExecuteCount(ctx, sql, id)
	if err != nil {
		return err
	}

	if count == 0 {
		return db.ErrNotFound
	}

	return nil
}

// FetchMiningInfo returns the decoded progress aggregate for an account
// identified by numeric id or email. Requires the account to be approved.
func FetchMiningInfo(ctx context.Context, dbConn *db.DB, identifier string) (MiningInfo, error) {
	var user User
	var err error

	if id, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil {
		user, err = FetchUser(ctx, dbConn, id)
	} else {
		user, err = FetchUserByEmail(ctx, dbConn, identifier)
	}
	if err != nil {
		return MiningInfo{}, err
	}

	if !user.Approved {
		return MiningInfo{}, ErrNotApproved
	}

	info, err := DecodeMiningInfo(user.MiningInfo)
	if err != nil {
		return MiningInfo{}, errors.Wrap(err, "decode mining info")
	}

	return info, nil
}

// ReplaceMiningInfo overwrites the stored aggregate wholesale. The supplied
// token must match the stored token byte for byte. No merging and no
// consistency validation of the aggregate is performed.
func ReplaceMiningInfo(ctx context.Context, dbConn *db.DB, id int64, token string,
	info MiningInfo) error {

	user, err := FetchUser(ctx, dbConn, id)
	if err != nil {
		return err
	}

	if user.APIToken != token {
		return ErrUnauthorized
	}

	encoded, err := info.Encode()
	if err != nil {
		return errors.Wrap(err, "encode mining info")
	}

	sql := `UPDATE users SET mining_info=?, date_modified=? WHERE id=?`
	return dbConn.Execute(ctx, sql, encoded, time.Now().UTC(), id)
}

// isUniqueViolation reports whether the error is a sqlite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	sqliteErr, ok := errors.Cause(err).(sqlite3.Error)
	if !ok {
		return false
	}

	return sqliteErr.Code == sqlite3.ErrConstraint
}
