// /home/krylon/go/src/github.com/blicero/ariadne/database/initqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-15 17:58:46 krylon>

package database

var initQueries = []string{
	`
CREATE TABLE session (
    token   TEXT PRIMARY KEY,
    user_id INTEGER NOT NULL,
    created INTEGER NOT NULL
)
`,
	"CREATE INDEX session_user_idx ON session (user_id)",
	`
CREATE TABLE settings (
    user_id            INTEGER PRIMARY KEY,
    sound_alerts       INTEGER NOT NULL DEFAULT 1,
    push_notifications INTEGER NOT NULL DEFAULT 1,
    frequency          INTEGER NOT NULL DEFAULT 0,
    CHECK (frequency BETWEEN 0 AND 2)
)
`,
	`
CREATE TABLE notification (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER NOT NULL,
    title      TEXT NOT NULL,
    body       TEXT NOT NULL DEFAULT '',
    read       INTEGER NOT NULL DEFAULT 0,
    created    INTEGER NOT NULL,
    sender_id  INTEGER NOT NULL DEFAULT 0,
    task_id    INTEGER NOT NULL DEFAULT 0,
    project_id INTEGER NOT NULL DEFAULT 0,
    play_sound INTEGER NOT NULL DEFAULT 0,
    send_push  INTEGER NOT NULL DEFAULT 0,
    uuid       TEXT UNIQUE NOT NULL
)
`,
	"CREATE INDEX notification_user_idx ON notification (user_id)",
	"CREATE INDEX notification_read_idx ON notification (read)",
	"CREATE INDEX notification_created_idx ON notification (created)",
}
