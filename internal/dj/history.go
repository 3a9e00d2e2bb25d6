/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package dj

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/airwave/internal/models"
)

// MaxHistory caps History queries.
const MaxHistory = 200

// AnnouncementStore keeps the append-only announcement log.
type AnnouncementStore interface {
	Save(ctx context.Context, a *models.Announcement) error
	Recent(ctx context.Context, stationID string, limit int) ([]models.Announcement, error)
	MarkDropped(ctx context.Context, id string) error
}

// GormHistory stores announcements in the announcements table.
type GormHistory struct {
	db *gorm.DB
}

// NewGormHistory wraps db.
func NewGormHistory(db *gorm.DB) *GormHistory {
	return &GormHistory{db: db}
}

// Save inserts a.
func (h *GormHistory) Save(ctx context.Context, a *models.Announcement) error {
	if err := h.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("save announcement: %w", err)
	}
	return nil
}

// MarkDropped flags the announcement id as never played.
func (h *GormHistory) MarkDropped(ctx context.Context, id string) error {
	err := h.db.WithContext(ctx).Model(&models.Announcement{}).Where("id = ?", id).Update("dropped", true).Error
	if err != nil {
		return fmt.Errorf("mark announcement dropped: %w", err)
	}
	return nil
}

// Recent returns up to limit announcements, newest first. An empty
// stationID returns every station.
func (h *GormHistory) Recent(ctx context.Context, stationID string, limit int) ([]models.Announcement, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	q := h.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if stationID != "" {
		q = q.Where("station_id = ?", stationID)
	}

	var rows []models.Announcement
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return rows, nil
}
