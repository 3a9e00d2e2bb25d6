/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package prefs persists per-listener key/value settings.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/airwave/internal/models"
)

// Store is the gorm-backed settings table.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db. The user_settings table must be migrated.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ForUser scopes the store to one listener.
func (s *Store) ForUser(userID string) *UserStore {
	return &UserStore{db: s.db, userID: userID}
}

// UserStore reads and writes one listener's settings.
type UserStore struct {
	db     *gorm.DB
	userID string
}

// Get returns the value for key and whether it exists.
func (u *UserStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row models.UserSetting
	err := u.db.WithContext(ctx).
		Where("user_id = ? AND setting_key = ?", u.userID, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load setting %s: %w", key, err)
	}
	return row.Value, true, nil
}

// Set upserts key.
func (u *UserStore) Set(ctx context.Context, key, value string) error {
	row := models.UserSetting{UserID: u.userID, Key: key, Value: value}
	err := u.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// MemoryStore keeps settings in process. Used when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

// ForUser scopes the store to one listener.
func (m *MemoryStore) ForUser(userID string) *MemoryUserStore {
	return &MemoryUserStore{parent: m, userID: userID}
}

// MemoryUserStore is one listener's view of a MemoryStore.
type MemoryUserStore struct {
	parent *MemoryStore
	userID string
}

// Get returns the value for key and whether it exists.
func (u *MemoryUserStore) Get(_ context.Context, key string) (string, bool, error) {
	u.parent.mu.RLock()
	defer u.parent.mu.RUnlock()
	v, ok := u.parent.data[u.userID][key]
	return v, ok, nil
}

// Set stores key.
func (u *MemoryUserStore) Set(_ context.Context, key, value string) error {
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	m, ok := u.parent.data[u.userID]
	if !ok {
		m = make(map[string]string)
		u.parent.data[u.userID] = m
	}
	m[key] = value
	return nil
}
