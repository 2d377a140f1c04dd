/*
	Roadtrip Map
	Copyright (c) 2025 Roadtrip Map contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package trip

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ClockState is the playback state of the timeline clock.
type ClockState int

const (
	// ClockIdle means timeline mode is off; viewers see the whole trip.
	ClockIdle ClockState = iota
	// ClockPaused means timeline mode is on and playback is stopped.
	ClockPaused
	// ClockPlaying means playback ticks are advancing the position.
	ClockPlaying
)

func (s ClockState) String() string {
	switch s {
	case ClockIdle:
		return "idle"
	case ClockPaused:
		return "paused"
	case ClockPlaying:
		return "playing"
	}
	return "unknown"
}

const (
	maxPosition = 100

	// A full traversal at 1x speed takes this long in wall-clock time,
	// regardless of how many weeks the trip itself covers.
	playbackSeconds = 30

	// ticksPerSecond is the simulated animation frame rate.
	ticksPerSecond = 30

	defaultStepPercent = 5
)

// speedMultipliers are the allowed playback speeds, in cycling order.
var speedMultipliers = []int{1, 2, 4, 8}

// ClockSnapshot is an immutable copy of the clock's state at one instant,
// safe to hand to subscribers without holding the clock's lock.
type ClockSnapshot struct {
	State    string  `json:"state"`
	Position float64 `json:"position"`
	Speed    int     `json:"speed"`
	Playing  bool    `json:"playing"`
}

// Clock is the scrub/playback position controller that drives the reveal
// engine. Its position is a percentage of the trip duration in [0,100] and
// is the single source of truth for "current time" while timeline mode is
// active.
//
// All event sources (HTTP handlers, the tick scheduler) are serialized
// through one mutex; at most one scheduled tick exists at any moment, and
// pause/deactivate/play cancel the outstanding one before doing anything
// else, so ticks can never overlap or double-advance.
type Clock struct {
	mu       sync.Mutex
	state    ClockState
	position float64
	speed    int

	pendingTick *time.Timer // the one scheduled playback tick, if any

	// change notification is coalesced to at most once per frame so that
	// a high-frequency slider drag does not trigger a full reveal
	// recomputation per input event ("latest wins, cancel previous")
	pendingNotify *time.Timer
	onChange      func(ClockSnapshot)

	// tests drive ticks by hand
	scheduleTicks bool

	log *zap.Logger
}

// NewClock returns a clock in the Idle state.
func NewClock() *Clock {
	return &Clock{
		speed:         speedMultipliers[0],
		scheduleTicks: true,
		log:           Log.Named("clock"),
	}
}

// OnChange registers fn to be called after every applied position change.
// Calls are coalesced to at most one per frame during seeks; playback
// ticks notify on each tick (they are already frame-paced).
func (c *Clock) OnChange(fn func(ClockSnapshot)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot returns a copy of the current clock state.
func (c *Clock) Snapshot() ClockSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Clock) snapshotLocked() ClockSnapshot {
	return ClockSnapshot{
		State:    c.state.String(),
		Position: c.position,
		Speed:    c.speed,
		Playing:  c.state == ClockPlaying,
	}
}

// Position returns the current scrub position in [0,100].
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Active reports whether timeline mode is on.
func (c *Clock) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != ClockIdle
}

// Activate turns timeline mode on, paused at the start of the trip.
// No-op if already active.
func (c *Clock) Activate() {
	c.mu.Lock()
	if c.state != ClockIdle {
		c.mu.Unlock()
		return
	}
	c.state = ClockPaused
	c.position = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notifyNow(snap)
}

// Deactivate turns timeline mode off from any state, cancelling any
// scheduled tick. Viewers then see the full, unfiltered trip.
func (c *Clock) Deactivate() {
	c.mu.Lock()
	c.cancelTickLocked()
	c.cancelNotifyLocked()
	c.state = ClockIdle
	c.position = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notifyNow(snap)
}

// Seek sets the position directly, clamped to [0,100]. Valid in any
// active state; does not change play/pause, and a seek while playing
// simply lets the next tick continue from the new position. Out-of-range
// values are clamped silently, never an error.
func (c *Clock) Seek(position float64) {
	c.mu.Lock()
	if c.state == ClockIdle {
		c.mu.Unlock()
		return
	}
	c.position = clampPosition(position)
	c.mu.Unlock()
	c.scheduleNotify()
}

// Play begins playback. No-op unless paused, and no-op at the end of the
// trip: a finished playback must be rewound (Seek to 0) to replay.
func (c *Clock) Play() {
	c.mu.Lock()
	if c.state != ClockPaused || c.position >= maxPosition {
		c.mu.Unlock()
		return
	}
	c.cancelTickLocked() // enforce the single-pending-tick invariant
	c.state = ClockPlaying
	c.scheduleTickLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.log.Info("playback started", zap.Float64("position", snap.Position), zap.Int("speed", snap.Speed))
	c.notifyNow(snap)
}

// Pause stops playback, cancelling the pending tick.
func (c *Clock) Pause() {
	c.mu.Lock()
	if c.state != ClockPlaying {
		c.mu.Unlock()
		return
	}
	c.cancelTickLocked()
	c.state = ClockPaused
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.log.Info("playback paused", zap.Float64("position", snap.Position))
	c.notifyNow(snap)
}

// SetSpeed sets the playback speed multiplier if it is one of the allowed
// values; unknown values are ignored. Takes effect on the next tick; it
// does not rescale progress already made.
func (c *Clock) SetSpeed(multiplier int) {
	for _, s := range speedMultipliers {
		if s == multiplier {
			c.mu.Lock()
			c.speed = multiplier
			c.mu.Unlock()
			return
		}
	}
}

// CycleSpeed advances to the next speed multiplier (1 → 2 → 4 → 8 → 1)
// and returns the new value.
func (c *Clock) CycleSpeed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range speedMultipliers {
		if s == c.speed {
			c.speed = speedMultipliers[(i+1)%len(speedMultipliers)]
			return c.speed
		}
	}
	c.speed = speedMultipliers[0]
	return c.speed
}

// StepForward jumps the position forward by deltaPercent (default 5 if
// zero or negative), clamped to bounds. Independent of play state.
func (c *Clock) StepForward(deltaPercent float64) {
	c.step(deltaPercent, 1)
}

// StepBackward jumps the position backward by deltaPercent (default 5 if
// zero or negative), clamped to bounds. Independent of play state.
func (c *Clock) StepBackward(deltaPercent float64) {
	c.step(deltaPercent, -1)
}

func (c *Clock) step(deltaPercent, direction float64) {
	if deltaPercent <= 0 {
		deltaPercent = defaultStepPercent
	}
	c.mu.Lock()
	if c.state == ClockIdle {
		c.mu.Unlock()
		return
	}
	c.position = clampPosition(c.position + direction*deltaPercent)
	c.mu.Unlock()
	c.scheduleNotify()
}

// tick advances the position by one frame's worth of progress and
// reschedules itself while playback continues. Reaching the end clamps to
// 100 and auto-stops; there is no wraparound.
func (c *Clock) tick() {
	c.mu.Lock()
	if c.state != ClockPlaying {
		// a pause or deactivate raced with the timer firing; the state
		// change already cancelled playback, so do nothing
		c.mu.Unlock()
		return
	}
	c.position += tickIncrement(c.speed)
	if c.position >= maxPosition {
		c.position = maxPosition
		c.state = ClockPaused
		c.cancelTickLocked()
		c.log.Info("playback finished")
	} else {
		c.scheduleTickLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notifyNow(snap)
}

// tickIncrement is the per-frame position advance such that a full 0→100
// traversal at 1x completes in playbackSeconds of wall-clock time.
func tickIncrement(speed int) float64 {
	return float64(speed) * maxPosition / (playbackSeconds * ticksPerSecond)
}

func (c *Clock) scheduleTickLocked() {
	if !c.scheduleTicks {
		return
	}
	if c.pendingTick != nil {
		c.pendingTick.Stop()
	}
	c.pendingTick = time.AfterFunc(time.Second/ticksPerSecond, c.tick)
}

func (c *Clock) cancelTickLocked() {
	if c.pendingTick != nil {
		c.pendingTick.Stop()
		c.pendingTick = nil
	}
}

func (c *Clock) cancelNotifyLocked() {
	if c.pendingNotify != nil {
		c.pendingNotify.Stop()
		c.pendingNotify = nil
	}
}

// notifyNow invokes the change callback immediately (ticks and state
// transitions are already frame-paced or rare).
func (c *Clock) notifyNow(snap ClockSnapshot) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// scheduleNotify defers the change callback to the next frame boundary,
// replacing any callback already pending. The position itself is updated
// immediately by the caller; only the downstream recomputation is
// deferred, so dragging the slider costs at most one reveal recomputation
// per frame no matter how many seek events arrive.
func (c *Clock) scheduleNotify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onChange == nil {
		return
	}
	if !c.scheduleTicks {
		// tests apply notifications synchronously
		fn, snap := c.onChange, c.snapshotLocked()
		go func() { fn(snap) }()
		return
	}
	c.cancelNotifyLocked()
	c.pendingNotify = time.AfterFunc(time.Second/ticksPerSecond, func() {
		c.mu.Lock()
		fn, snap := c.onChange, c.snapshotLocked()
		c.pendingNotify = nil
		c.mu.Unlock()
		if fn != nil {
			fn(snap)
		}
	})
}

func clampPosition(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > maxPosition {
		return maxPosition
	}
	return p
}
