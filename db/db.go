package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the durable local storage for the client. Each store writes its own
// keys under a namespace; there is no cross-namespace transaction, so readers
// must tolerate partial state (a half-written session reads as logged out).
type DB struct {
	db *sql.DB
}

const (
	sqlCreateKvTable = `CREATE TABLE IF NOT EXISTS kv(
                        store varchar(100) NOT NULL,
                        key varchar(100) NOT NULL,
                        value blob,
                        updated_at timestamp default current_timestamp,
                        PRIMARY KEY (store, key)
                        )`
	sqlUpsertKv = `INSERT INTO kv(store, key, value, updated_at) VALUES (?, ?, ?, ?)
                        ON CONFLICT(store, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	sqlSelectKv = `SELECT value FROM kv WHERE store = ? AND key = ?`
	sqlDeleteKv = `DELETE FROM kv WHERE store = ? AND key = ?`
)

// Open opens (and if necessary creates) the local database at path. Use
// ":memory:" for tests.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(time.Hour)

	// Try to enable WAL mode; in-memory databases report "memory" here
	var journalMode string
	if err := sqldb.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
		log.Printf("Warning: Failed to enable WAL mode: %v", err)
	} else {
		log.Printf("Database journal mode: %s", journalMode)
	}

	sqldb.Exec("PRAGMA synchronous = NORMAL")
	sqldb.Exec("PRAGMA temp_store = MEMORY")
	sqldb.Exec("PRAGMA busy_timeout = 5000")
	sqldb.Exec("PRAGMA foreign_keys = ON")

	d := &DB{db: sqldb}
	if err := d.createSchema(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return d, nil
}

// Handle exposes the underlying connection for packages that manage their
// own tables (the mock server).
func (db *DB) Handle() *sql.DB {
	return db.db
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) createSchema() error {
	return db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlCreateKvTable)
		return err
	})
}

// Put stores a raw value under (store, key).
func (db *DB) Put(store, key string, value []byte) error {
	return db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertKv, store, key, value, time.Now())
		return err
	})
}

// Get returns the value under (store, key), or (nil, false, nil) if absent.
func (db *DB) Get(store, key string) ([]byte, bool, error) {
	row := db.db.QueryRow(sqlSelectKv, store, key)
	var value []byte
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Delete removes the value under (store, key). Absent keys are a no-op.
func (db *DB) Delete(store, key string) error {
	return db.WrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteKv, store, key)
		return err
	})
}

// PutJSON marshals v and stores it under (store, key).
func (db *DB) PutJSON(store, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return db.Put(store, key, buf)
}

// GetJSON loads (store, key) into v, returning false if the key is absent.
func (db *DB) GetJSON(store, key string, v any) (bool, error) {
	buf, ok, err := db.Get(store, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return false, err
	}
	return true, nil
}

// WrapTransaction runs the given function within a transaction, retrying
// while the database is busy.
func (db *DB) WrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			log.Printf("error in transaction: %s", err)
			tx.Rollback()
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}
