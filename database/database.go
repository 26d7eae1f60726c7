// /home/krylon/go/src/github.com/blicero/ariadne/database/database.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-21 18:27:44 krylon>

// Package database is the server's storage backend, keeping the
// authoritative copy of all notifications, sessions, and settings
// in an SQLite database.
package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/database/query"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
	"github.com/blicero/ariadne/objects/frequency"
	"github.com/blicero/krylib"
	_ "github.com/mattn/go-sqlite3" // Import the database driver
)

var (
	openLock sync.Mutex
	idCnt    int64
)

// ErrTxInProgress indicates that an attempt was made to initiate a
// transaction while one is already in progress.
var ErrTxInProgress = fmt.Errorf("A Transaction is already in progress")

// ErrNoTxInProgress indicates that an attempt was made to finish a
// transaction when none was active.
var ErrNoTxInProgress = fmt.Errorf("There is no transaction in progress")

// If a query returns an error and the error text is matched by this
// regex, we consider the error as transient and try again after a
// short delay.
var retryPat = regexp.MustCompile("(?i)database is (?:locked|busy)")

// worthARetry returns true if an error returned from the database
// is matched by the retryPat regex.
func worthARetry(e error) bool {
	return retryPat.MatchString(e.Error())
} // func worthARetry(e error) bool

// retryDelay is the amount of time we wait before we repeat a failed
// database operation.
const retryDelay = 25 * time.Millisecond

func waitForRetry() {
	time.Sleep(retryDelay)
} // func waitForRetry()

// Database is the storage backend for the server.
//
// It is not safe to share a Database instance between goroutines,
// use a Pool to hand out connections instead.
type Database struct {
	id        int64
	db        *sql.DB
	tx        *sql.Tx
	log       *log.Logger
	path      string
	stmtTable map[query.ID]*sql.Stmt
}

// Open opens a Database. If the database specified by the path does
// not exist, yet, it is created and initialized.
func Open(path string) (*Database, error) {
	var (
		err      error
		dbExists bool
		db       = &Database{
			path:      path,
			stmtTable: make(map[query.ID]*sql.Stmt),
		}
	)

	openLock.Lock()
	defer openLock.Unlock()
	idCnt++
	db.id = idCnt

	if db.log, err = common.GetLogger(logdomain.Database); err != nil {
		return nil, err
	}

	var connstring = fmt.Sprintf("%s?_locking_mode=NORMAL&_busy_timeout=100&_journal_mode=WAL&_fk=1",
		path)

	if dbExists, err = krylib.Fexists(path); err != nil {
		db.log.Printf("[ERROR] Failed to check if %s exists: %s\n",
			path,
			err.Error())
		return nil, err
	} else if db.db, err = sql.Open("sqlite3", connstring); err != nil {
		db.log.Printf("[ERROR] Failed to open %s: %s\n",
			path,
			err.Error())
		return nil, err
	}

	if !dbExists {
		if err = db.initialize(); err != nil {
			var e2 error
			if e2 = db.db.Close(); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to close database: %s\n",
					e2.Error())
				return nil, e2
			} else if e2 = os.Remove(path); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to remove database file %s: %s\n",
					db.path,
					e2.Error())
			}
			return nil, err
		}
		db.log.Printf("[INFO] Database at %s has been initialized\n",
			path)
	}

	return db, nil
} // func Open(path string) (*Database, error)

func (db *Database) initialize() error {
	var err error
	var tx *sql.Tx

	if tx, err = db.db.Begin(); err != nil {
		db.log.Printf("[ERROR] Cannot begin transaction: %s\n",
			err.Error())
		return err
	}

	for _, q := range initQueries {
		db.log.Printf("[TRACE] Execute init query:\n%s\n",
			q)
		if _, err = tx.Exec(q); err != nil {
			db.log.Printf("[ERROR] Cannot execute init query: %s\n%s\n",
				err.Error(),
				q)
			if rbErr := tx.Rollback(); rbErr != nil {
				db.log.Printf("[CANTHAPPEN] Cannot rollback transaction: %s\n",
					rbErr.Error())
				return rbErr
			}
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		db.log.Printf("[CANTHAPPEN] Failed to commit init transaction: %s\n",
			err.Error())
		return err
	}

	return nil
} // func (db *Database) initialize() error

// Close closes the database.
// If there is a pending transaction, it is rolled back.
func (db *Database) Close() error {
	// I wonder if would make more snese to panic() if something goes
	// wrong here, because if the Close() fails, it is probably not
	// a good idea to continue using the Database.
	var err error

	if db.tx != nil {
		if err = db.tx.Rollback(); err != nil {
			db.log.Printf("[CRITICAL] Cannot roll back pending transaction: %s\n",
				err.Error())
			return err
		}
		db.tx = nil
	}

	for key, stmt := range db.stmtTable {
		if err = stmt.Close(); err != nil {
			db.log.Printf("[CRITICAL] Cannot close statement handle %s: %s\n",
				key,
				err.Error())
			return err
		}
		delete(db.stmtTable, key)
	}

	if err = db.db.Close(); err != nil {
		db.log.Printf("[CRITICAL] Cannot close database: %s\n",
			err.Error())
	}

	db.db = nil
	return nil
} // func (db *Database) Close() error

func (db *Database) getQuery(id query.ID) (*sql.Stmt, error) {
	var (
		stmt *sql.Stmt
		ok   bool
		err  error
	)

	if stmt, ok = db.stmtTable[id]; ok {
		return stmt, nil
	}

PREPARE_QUERY:
	if stmt, err = db.db.Prepare(dbQueries[id]); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto PREPARE_QUERY
		}

		db.log.Printf("[ERROR] Cannot parse query %s: %s\n%s\n",
			id,
			err.Error(),
			dbQueries[id])
		return nil, err
	}

	db.stmtTable[id] = stmt

	return stmt, nil
} // func (db *Database) getQuery(query.ID) (*sql.Stmt, error)

// Begin begins an explicit database transaction.
// Only one transaction can be in progress at once, attempting to start
// one, while another transaction is already in progress will yield
// ErrTxInProgress.
func (db *Database) Begin() error {
	var err error

	if db.tx != nil {
		return ErrTxInProgress
	}

BEGIN_TX:
	for db.tx == nil {
		if db.tx, err = db.db.Begin(); err != nil {
			if worthARetry(err) {
				waitForRetry()
				continue BEGIN_TX
			}

			db.log.Printf("[ERROR] Failed to start transaction: %s\n",
				err.Error())
			return err
		}
	}

	return nil
} // func (db *Database) Begin() error

// Commit ends the active transaction, making any changes made during
// that transaction permanent and visible to other connections.
func (db *Database) Commit() error {
	var err error

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Commit(); err != nil {
		db.log.Printf("[ERROR] Failed to commit transaction: %s\n",
			err.Error())
		return err
	}

	db.tx = nil
	return nil
} // func (db *Database) Commit() error

// Rollback terminates a pending transaction, undoing any changes made
// during that transaction.
func (db *Database) Rollback() error {
	var err error

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Rollback(); err != nil {
		db.log.Printf("[ERROR] Failed to roll back transaction: %s\n",
			err.Error())
		return err
	}

	db.tx = nil
	return nil
} // func (db *Database) Rollback() error

// SessionAdd registers a session token for the given user.
func (db *Database) SessionAdd(token string, user int64) error {
	const qid query.ID = query.SessionAdd
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(token, user, time.Now().Unix()); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot register session for user %d: %s\n",
			user,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) SessionAdd(token string, user int64) error

// SessionGetUser looks up the user a session token belongs to.
// If the token is unknown, it returns 0 and no error.
func (db *Database) SessionGetUser(token string) (int64, error) {
	const qid query.ID = query.SessionGetUser
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return 0, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(token); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot look up session: %s\n",
			err.Error())
		return 0, err
	}

	defer rows.Close() // nolint: errcheck

	if rows.Next() {
		var user int64

		if err = rows.Scan(&user); err != nil {
			db.log.Printf("[ERROR] Cannot scan session row: %s\n",
				err.Error())
			return 0, err
		}

		return user, nil
	}

	return 0, nil
} // func (db *Database) SessionGetUser(token string) (int64, error)

// SessionDelete removes a session token.
func (db *Database) SessionDelete(token string) error {
	const qid query.ID = query.SessionDelete
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(token); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete session: %s\n",
			err.Error())
		return err
	}

	return nil
} // func (db *Database) SessionDelete(token string) error

// SettingsGet loads the alert policy for the given user. If the user
// has never stored a policy, the default policy is returned.
func (db *Database) SettingsGet(user int64) (*objects.Settings, error) {
	const qid query.ID = query.SettingsGet
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(user); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query settings for user %d: %s\n",
			user,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	var set = &objects.Settings{
		SoundAlerts:       true,
		PushNotifications: true,
		Frequency:         frequency.All,
	}

	if rows.Next() {
		var freq uint8

		if err = rows.Scan(&set.SoundAlerts, &set.PushNotifications, &freq); err != nil {
			db.log.Printf("[ERROR] Cannot scan settings row: %s\n",
				err.Error())
			return nil, err
		}

		set.Frequency = frequency.Frequency(freq)
	}

	return set, nil
} // func (db *Database) SettingsGet(user int64) (*objects.Settings, error)

// SettingsUpdate stores the alert policy for the given user.
func (db *Database) SettingsUpdate(user int64, set *objects.Settings) error {
	const qid query.ID = query.SettingsUpdate
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(user, set.SoundAlerts, set.PushNotifications, uint8(set.Frequency)); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot update settings for user %d: %s\n",
			user,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) SettingsUpdate(user int64, set *objects.Settings) error

// NotificationAdd stores a new Notification for the given user.
// On success, the Notification's ID is filled in.
func (db *Database) NotificationAdd(user int64, n *objects.Notification) error {
	const qid query.ID = query.NotificationAdd
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	if n.UUID == "" {
		n.UUID = common.GetUUID()
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var res sql.Result

EXEC_QUERY:
	if res, err = stmt.Exec(
		user,
		n.Title,
		n.Body,
		n.CreatedAt.Unix(),
		n.SenderID,
		n.TaskID,
		n.ProjectID,
		n.PlaySound,
		n.SendPush,
		n.UUID); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot add Notification %q for user %d: %s\n",
			n.Title,
			user,
			err.Error())
		return err
	}

	if n.ID, err = res.LastInsertId(); err != nil {
		db.log.Printf("[CANTHAPPEN] Cannot get ID of freshly added Notification %q: %s\n",
			n.Title,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) NotificationAdd(user int64, n *objects.Notification) error

// NotificationDelete removes a Notification.
func (db *Database) NotificationDelete(user, id int64) error {
	const qid query.ID = query.NotificationDelete
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(user, id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete Notification %d: %s\n",
			id,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) NotificationDelete(user, id int64) error

// NotificationGetByID looks up a single Notification.
// If no such Notification exists, it returns nil and no error.
func (db *Database) NotificationGetByID(user, id int64) (*objects.Notification, error) {
	const qid query.ID = query.NotificationGetByID
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(user, id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query Notification %d: %s\n",
			id,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	if rows.Next() {
		var (
			stamp int64
			n     = &objects.Notification{ID: id}
		)

		if err = rows.Scan(
			&n.Title,
			&n.Body,
			&n.Read,
			&stamp,
			&n.SenderID,
			&n.TaskID,
			&n.ProjectID,
			&n.PlaySound,
			&n.SendPush,
			&n.UUID); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return nil, err
		}

		n.CreatedAt = time.Unix(stamp, 0)
		return n, nil
	}

	return nil, nil
} // func (db *Database) NotificationGetByID(user, id int64) (*objects.Notification, error)

func (db *Database) notificationQuery(qid query.ID, args ...any) ([]objects.Notification, error) {
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(args...); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot execute query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	var list = make([]objects.Notification, 0, 64)

	for rows.Next() {
		var (
			stamp int64
			n     objects.Notification
		)

		if err = rows.Scan(
			&n.ID,
			&n.Title,
			&n.Body,
			&n.Read,
			&stamp,
			&n.SenderID,
			&n.TaskID,
			&n.ProjectID,
			&n.PlaySound,
			&n.SendPush,
			&n.UUID); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return nil, err
		}

		n.CreatedAt = time.Unix(stamp, 0)
		list = append(list, n)
	}

	return list, nil
} // func (db *Database) notificationQuery(qid query.ID, args ...any) ([]objects.Notification, error)

// NotificationGetRecent loads the user's most recent Notifications,
// read or unread, newest first.
func (db *Database) NotificationGetRecent(user int64, limit int) ([]objects.Notification, error) {
	return db.notificationQuery(query.NotificationGetRecent, user, limit)
} // func (db *Database) NotificationGetRecent(user int64, limit int) ([]objects.Notification, error)

// NotificationGetPage loads one page of the user's Notifications,
// newest first. If read is non-nil, only entries with the matching
// read flag are returned. Page counting starts at 1.
func (db *Database) NotificationGetPage(user int64, page, pageSize int, read *bool) ([]objects.Notification, error) {
	if page < 1 {
		page = 1
	}

	var offset = (page - 1) * pageSize

	if read == nil {
		return db.notificationQuery(query.NotificationGetPage, user, pageSize, offset)
	}

	return db.notificationQuery(query.NotificationGetPageRead, user, *read, pageSize, offset)
} // func (db *Database) NotificationGetPage(...) ([]objects.Notification, error)

// NotificationGetSince loads all of the user's Notifications created
// after the given point in time, newest first.
func (db *Database) NotificationGetSince(user int64, since time.Time) ([]objects.Notification, error) {
	return db.notificationQuery(query.NotificationGetSince, user, since.Unix())
} // func (db *Database) NotificationGetSince(user int64, since time.Time) ([]objects.Notification, error)

// NotificationMarkRead marks a single Notification as read.
func (db *Database) NotificationMarkRead(user, id int64) error {
	const qid query.ID = query.NotificationMarkRead
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(user, id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot mark Notification %d as read: %s\n",
			id,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) NotificationMarkRead(user, id int64) error

// NotificationMarkAllRead marks all of the user's Notifications as read.
// Calling it when no unread Notifications exist is harmless.
func (db *Database) NotificationMarkAllRead(user int64) error {
	const qid query.ID = query.NotificationMarkAllRead
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

EXEC_QUERY:
	if _, err = stmt.Exec(user); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot mark Notifications of user %d as read: %s\n",
			user,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) NotificationMarkAllRead(user int64) error

// NotificationUnreadCount returns the number of unread Notifications
// the given user has.
func (db *Database) NotificationUnreadCount(user int64) (int64, error) {
	const qid query.ID = query.NotificationUnreadCount
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return 0, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(user); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot count unread Notifications for user %d: %s\n",
			user,
			err.Error())
		return 0, err
	}

	defer rows.Close() // nolint: errcheck

	var cnt int64

	if rows.Next() {
		if err = rows.Scan(&cnt); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return 0, err
		}
	}

	return cnt, nil
} // func (db *Database) NotificationUnreadCount(user int64) (int64, error)
