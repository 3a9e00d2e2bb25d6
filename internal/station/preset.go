/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPreset indicates a share token that cannot be decoded.
var ErrInvalidPreset = errors.New("invalid preset token")

// Preset is a shareable station + theme pairing.
type Preset struct {
	StationID string `json:"s"`
	ThemeID   string `json:"t"`
}

// EncodePreset returns a URL-safe share token for p.
func EncodePreset(p Preset) string {
	data, _ := json.Marshal(p)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodePreset parses a token produced by EncodePreset.
func DecodePreset(token string) (Preset, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Preset{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return p, nil
}
