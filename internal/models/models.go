/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"encoding/json"
	"time"
)

// UserSetting is one persisted key/value pair for a listener
// (visit counter, last visit, taste profile).
type UserSetting struct {
	UserID    string `gorm:"type:varchar(64);primaryKey"`
	Key       string `gorm:"column:setting_key;type:varchar(64);primaryKey"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (UserSetting) TableName() string {
	return "user_settings"
}

// AnnouncementSegment is one spoken part of an announcement.
type AnnouncementSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Announcement records a planned DJ break. Append-only apart from Dropped,
// which is set when playback never started.
type Announcement struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	StationID   string `gorm:"type:varchar(64);index:idx_announcement_station_time"`
	UserID      string `gorm:"type:varchar(64);index"`
	Primary     string `gorm:"column:primary_type;type:varchar(32)"`
	Segments    string `gorm:"type:text"`
	SongsBefore int
	Manual      bool
	Dropped     bool
	CreatedAt   time.Time `gorm:"index:idx_announcement_station_time"`
}

// TableName returns the table name for GORM.
func (Announcement) TableName() string {
	return "announcements"
}

// SetSegments stores segs as JSON.
func (a *Announcement) SetSegments(segs []AnnouncementSegment) error {
	data, err := json.Marshal(segs)
	if err != nil {
		return err
	}
	a.Segments = string(data)
	return nil
}

// DecodeSegments returns the stored segments. Corrupt rows yield nil.
func (a *Announcement) DecodeSegments() []AnnouncementSegment {
	var segs []AnnouncementSegment
	if err := json.Unmarshal([]byte(a.Segments), &segs); err != nil {
		return nil
	}
	return segs
}
