/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/friendsincode/airwave/internal/telemetry"
)

// FadeStepCount is the number of volume-set calls per fade.
const FadeStepCount = 5

// FadeSteps returns the FadeStepCount linear volume levels from fromPct to
// toPct, excluding the start and ending exactly at toPct.
func FadeSteps(fromPct, toPct int) []int {
	steps := make([]int, FadeStepCount)
	for i := 1; i <= FadeStepCount; i++ {
		v := float64(fromPct) + float64(toPct-fromPct)*float64(i)/FadeStepCount
		steps[i-1] = clampPercent(int(math.Round(v)))
	}
	return steps
}

// ToPercent converts a [0,1] volume to an integer percent.
func ToPercent(v float64) int {
	return clampPercent(int(math.Round(v * 100)))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// errSuperseded ends a fade whose envelope has been replaced by a newer one.
var errSuperseded = errors.New("envelope superseded")

// fade walks the volume from fromPct to toPct. Failed steps are logged and
// skipped. Cancellation and supersession by a newer envelope are checked
// between steps; the step in flight always completes. Returns the last level
// attempted and the reason when cut short.
func (c *Coordinator) fade(ctx context.Context, gen uint64, h PlaybackHandle, fromPct, toPct int, d time.Duration) (int, error) {
	level := fromPct
	delay := d / FadeStepCount
	for _, v := range FadeSteps(fromPct, toPct) {
		if err := ctx.Err(); err != nil {
			return level, err
		}
		if !c.current(gen) {
			return level, errSuperseded
		}
		level = v
		if err := c.volume.SetVolume(ctx, h.AuthToken, h.DeviceID, v); err != nil {
			telemetry.VolumeStepFailuresTotal.Inc()
			c.logger.Warn().Err(err).Int("percent", v).Msg("volume step failed, continuing fade")
		}
		if err := c.sleep(ctx, delay); err != nil {
			return level, err
		}
	}
	return level, nil
}
