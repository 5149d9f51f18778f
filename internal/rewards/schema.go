package rewards

import (
	"context"

	"github.com/hashmine/miner-rewards/internal/platform/db"

	"github.com/pkg/errors"
)

// Schema is created at startup if missing, matching the lifecycle of the
// embedded database file itself.
//
// license is nullable so email/password accounts do not collide on the unique
// index. Withdrawal rows are not cascaded on user delete; orphans remain.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE,
		password TEXT,
		license TEXT UNIQUE,
		approved BOOLEAN NOT NULL DEFAULT 0,
		allow_withdraw BOOLEAN NOT NULL DEFAULT 0,
		mining_info TEXT NOT NULL,
		api_token TEXT NOT NULL,
		total_withdrawn REAL NOT NULL DEFAULT 0,
		date_created TIMESTAMP NOT NULL,
		date_modified TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS withdraws (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		requested_at TIMESTAMP NOT NULL,
		network TEXT NOT NULL,
		address TEXT NOT NULL,
		amount REAL NOT NULL,
		status TEXT NOT NULL,
		date_created TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_withdraws_user ON withdraws (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_withdraws_status ON withdraws (status)`,
}

// EnsureSchema creates the users and withdraws tables if they do not exist.
func EnsureSchema(ctx context.Context, dbConn *db.DB) error {
	for _, stmt := range schemaStatements {
		if err := dbConn.Execute(ctx, stmt); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}

	return nil
}
