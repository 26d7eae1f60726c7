// /home/krylon/go/src/github.com/blicero/ariadne/database/dbqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-15 18:05:33 krylon>

package database

import "github.com/blicero/ariadne/database/query"

var dbQueries = map[query.ID]string{
	query.SessionAdd: `
INSERT INTO session (token, user_id, created)
VALUES              (    ?,       ?,       ?)
`,
	query.SessionGetUser: "SELECT user_id FROM session WHERE token = ?",
	query.SessionDelete:  "DELETE FROM session WHERE token = ?",
	query.SettingsGet: `
SELECT
    sound_alerts,
    push_notifications,
    frequency
FROM settings
WHERE user_id = ?
`,
	query.SettingsUpdate: `
INSERT INTO settings (user_id, sound_alerts, push_notifications, frequency)
VALUES               (      ?,            ?,                  ?,         ?)
ON CONFLICT (user_id) DO UPDATE SET
    sound_alerts       = excluded.sound_alerts,
    push_notifications = excluded.push_notifications,
    frequency          = excluded.frequency
`,
	query.NotificationAdd: `
INSERT INTO notification (user_id, title, body, created, sender_id, task_id, project_id, play_sound, send_push, uuid)
VALUES                   (      ?,     ?,    ?,       ?,         ?,       ?,          ?,          ?,         ?,    ?)
`,
	query.NotificationDelete: "DELETE FROM notification WHERE user_id = ? AND id = ?",
	query.NotificationGetByID: `
SELECT
    title,
    body,
    read,
    created,
    sender_id,
    task_id,
    project_id,
    play_sound,
    send_push,
    uuid
FROM notification
WHERE user_id = ? AND id = ?
`,
	query.NotificationGetRecent: `
SELECT
    id,
    title,
    body,
    read,
    created,
    sender_id,
    task_id,
    project_id,
    play_sound,
    send_push,
    uuid
FROM notification
WHERE user_id = ?
ORDER BY created DESC, id DESC
LIMIT ?
`,
	query.NotificationGetPage: `
SELECT
    id,
    title,
    body,
    read,
    created,
    sender_id,
    task_id,
    project_id,
    play_sound,
    send_push,
    uuid
FROM notification
WHERE user_id = ?
ORDER BY created DESC, id DESC
LIMIT ? OFFSET ?
`,
	query.NotificationGetPageRead: `
SELECT
    id,
    title,
    body,
    read,
    created,
    sender_id,
    task_id,
    project_id,
    play_sound,
    send_push,
    uuid
FROM notification
WHERE user_id = ? AND read = ?
ORDER BY created DESC, id DESC
LIMIT ? OFFSET ?
`,
	query.NotificationGetSince: `
SELECT
    id,
    title,
    body,
    read,
    created,
    sender_id,
    task_id,
    project_id,
    play_sound,
    send_push,
    uuid
FROM notification
WHERE user_id = ? AND created > ?
ORDER BY created DESC, id DESC
`,
	query.NotificationMarkRead: `
UPDATE notification
SET read = 1
WHERE user_id = ? AND id = ?
`,
	query.NotificationMarkAllRead: `
UPDATE notification
SET read = 1
WHERE user_id = ? AND read = 0
`,
	query.NotificationUnreadCount: `
SELECT COUNT(id)
FROM notification
WHERE user_id = ? AND read = 0
`,
}
