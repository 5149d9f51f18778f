package db

import (
	"context"
	sqldb "database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrInvalidDBProvided is returned in the event that an uninitialized db is
	// used to perform actions against.
	ErrInvalidDBProvided = errors.New("Invalid DB provided")

	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Entity not found")
)

// DB wraps access to the underlying database. The service runs against an
// embedded single file database, so there is exactly one writer and the
// database serializes writes internally.
type DB struct {
	database  Database
	session   Database
	sessionTx DatabaseTx
}

// DBConfig geared towards relational database.
type DBConfig struct {
	Driver string
	URL    string
}

// New returns a new DB value based on a registered master session.
func New(dbc *DBConfig) (*DB, error) {
	var newDB Database
	if dbc != nil {
		conn, err := sqlx.Connect(dbc.Driver, dbc.URL)
		if err != nil {
			return nil, err
		}

		if err = conn.Ping(); err != nil {
			return nil, err
		}

		newDB = &db{conn}
	}

	result := DB{
		database:  newDB,
		session:   nil,
		sessionTx: nil,
	}

	return &result, nil
}

// StatusCheck validates the DB status good.
func (db *DB) StatusCheck(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "platform.DB.StatusCheck")
	defer span.End()

	if db.database != nil {
		if err := db.database.Ping(); err != nil {
			return err
		}
	}

	return nil
}

// Close closes a DB value. If a session is available this should be closed
// instead of the master instance, instead we flag it as closed as a signal to
// prevent further incorrect use.
func (db *DB) Close() {
	if db.session != nil {
		db.session = nil
		return
	}

	if db.database != nil {
		db.database.Close()
	}
}

// Copy returns a new DB value for use within the app based on master session.
// The session is only needed for use with transactions.
func (db *DB) Copy() *DB {
	newDB := DB{
		database:  db.database,
		session:   db.database,
		sessionTx: nil,
	}

	return &newDB
}

// GetActiveDB returns a database object dependant on whether a transaction is active.
func (db *DB) GetActiveDB() Querier {
	if db.sessionTx != nil {
		return db.sessionTx
	}

	if db.session != nil {
		return db.session
	}

	return db.database
}

// Execute is used to execute SQL commands.
func (db *DB) Execute(ctx context.Context, sql string, args ...interface{}) error {
	ctx, span := trace.StartSpan(ctx, "platform.DB.Execute")
	defer span.End()

	_, err := db.exec(ctx, sql, args...)
	return err
}

// ExecuteCount executes a SQL command and returns the number of affected rows.
func (db *DB) ExecuteCount(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	ctx, span := trace.StartSpan(ctx, "platform.DB.ExecuteCount")
	defer span.End()

	result, err := db.exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Insert executes an INSERT command and returns the identifier assigned to the
// new row.
func (db *DB) Insert(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	ctx, span := trace.StartSpan(ctx, "platform.DB.Insert")
	defer span.End()

	result, err := db.exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

func (db *DB) exec(ctx context.Context, sql string, args ...interface{}) (sqldb.Result, error) {
	activeDB := db.GetActiveDB()
	if activeDB == nil {
		return nil, errors.Wrap(ErrInvalidDBProvided, "database == nil")
	}

	stmt, err := activeDB.Prepare(activeDB.Rebind(sql))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	if len(args) == 0 {
		// cannot pass empty args to Exec.
		return stmt.Exec()
	}

	return stmt.Exec(args...)
}

// Query provides raw row access for the value.
func (db *DB) Query(ctx context.Context, sql string, args ...interface{}) (*sqlx.Rows, error) {
	ctx, span := trace.StartSpan(ctx, "platform.DB.Query")
	defer span.End()

	activeDB := db.GetActiveDB()
	if activeDB == nil {
		return nil, errors.Wrap(ErrInvalidDBProvided, "database == nil")
	}

	rows, err := activeDB.Queryx(activeDB.Rebind(sql), args...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Select using this DB. Any placeholder parameters are replaced with supplied args.
func (db *DB) Select(ctx context.Context, model interface{}, sql string, args ...interface{}) error {
	ctx, span := trace.StartSpan(ctx, "platform.DB.Select")
	defer span.End()

	activeDB := db.GetActiveDB()
	if activeDB == nil {
		return errors.Wrap(ErrInvalidDBProvided, "database == nil")
	}

	if err := activeDB.Select(model, activeDB.Rebind(sql), args...); err != nil {
		if err == sqldb.ErrNoRows {
			err = ErrNotFound
		}

		return err
	}

	return nil
}

// Get using this DB. Any placeholder parameters are replaced with supplied
// args. An error is returned if the result set is empty.
func (db *DB) Get(ctx context.Context, model interface{}, sql string, args ...interface{}) error {
	ctx, span := trace.StartSpan(ctx, "platform.DB.Get")
	defer span.End()

	activeDB := db.GetActiveDB()
	if activeDB == nil {
		return errors.Wrap(ErrInvalidDBProvided, "database == nil")
	}

	if err := activeDB.Get(model, activeDB.Rebind(sql), args...); err != nil {
		if err == sqldb.ErrNoRows {
			err = ErrNotFound
		}

		return err
	}

	return nil
}

// -------------------------------------------------------------------------
// Database Transactions

// BeginTransaction starts a new database transaction.
func (db *DB) BeginTransaction() error {
	if db.session == nil {
		panic("Attempt to perform transaction on master instance, you must create a Copy() first")
	}

	tx, err := db.session.Beginx()
	if err != nil {
		return err
	}

	db.sessionTx = tx
	return nil
}

// Commit the pending transaction to the database.
func (db *DB) Commit() error {
	err := db.sessionTx.Commit()
	db.sessionTx = nil
	return err
}

// Rollback the pending transaction.
func (db *DB) Rollback() error {
	err := db.sessionTx.Rollback()
	db.sessionTx = nil
	return err
}
