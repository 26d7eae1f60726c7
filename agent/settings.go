// /home/krylon/go/src/github.com/blicero/ariadne/agent/settings.go
// -*- mode: go; coding: utf-8; -*-
// Created on 25. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-23 19:55:08 krylon>

package agent

import (
	"sync"

	"github.com/blicero/ariadne/objects"
	"github.com/blicero/ariadne/objects/frequency"
)

// SettingsStore holds the user's notification settings for the
// lifetime of a session. It is the admission gate for inbound events:
// every pushed notification is checked against the stored settings
// before it may trigger any alert.
type SettingsStore struct {
	lock   sync.RWMutex
	set    *objects.Settings
	loaded bool
}

// Load stores freshly fetched settings. Called once per session, right
// after login.
func (s *SettingsStore) Load(set *objects.Settings) {
	s.lock.Lock()
	s.set = set
	s.loaded = true
	s.lock.Unlock()
} // func (s *SettingsStore) Load(set *objects.Settings)

// Clear drops the stored settings, on logout.
func (s *SettingsStore) Clear() {
	s.lock.Lock()
	s.set = nil
	s.loaded = false
	s.lock.Unlock()
} // func (s *SettingsStore) Clear()

// Loaded tells whether settings have been loaded for the current
// session.
func (s *SettingsStore) Loaded() bool {
	s.lock.RLock()
	var l = s.loaded
	s.lock.RUnlock()

	return l
} // func (s *SettingsStore) Loaded() bool

// Current returns a copy of the stored settings. Before Load has been
// called, it returns the defaults.
func (s *SettingsStore) Current() objects.Settings {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.set == nil {
		return objects.Settings{
			SoundAlerts:       true,
			PushNotifications: true,
			Frequency:         frequency.All,
		}
	}

	return *s.set
} // func (s *SettingsStore) Current() objects.Settings

// Admit decides whether an inbound event passes the user's frequency
// setting. Until settings have been loaded, nothing is admitted, we
// would rather miss an alert than play one the user turned off.
func (s *SettingsStore) Admit(n *objects.Notification) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if !s.loaded || s.set == nil {
		return false
	}

	return s.set.Admit(n)
} // func (s *SettingsStore) Admit(n *objects.Notification) bool
