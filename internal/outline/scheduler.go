package outline

import (
	"context"
	"time"
)

// SchedulerState is the state of the auto-update loop.
type SchedulerState int

const (
	// SchedulerIdle means no observer is attached.
	SchedulerIdle SchedulerState = iota
	// SchedulerObserving means the observer is attached and nothing is due.
	SchedulerObserving
	// SchedulerPending means a debounced refresh is due.
	SchedulerPending
	// SchedulerPostGeneration means a forced rebuild is due after a
	// generation finished.
	SchedulerPostGeneration
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "idle"
	case SchedulerObserving:
		return "observing"
	case SchedulerPending:
		return "pending"
	case SchedulerPostGeneration:
		return "post_generation"
	}
	return "unknown"
}

type scheduler struct {
	state      SchedulerState
	active     bool
	disconnect func()

	debounceAt time.Time
	postGenAt  time.Time
	fallbackAt time.Time
	fallback   bool

	wasGenerating    bool
	postGenScheduled bool
	lastChange       time.Time

	wake chan struct{}
}

// SetActive attaches or detaches the auto-update loop. Activation also
// refreshes once so a freshly opened panel shows current content.
func (m *Manager) SetActive(active bool) {
	m.mu.Lock()
	m.sched.active = active
	changed := false
	if active {
		changed = m.refreshLocked(false, nil)
	}
	m.syncSchedulerLocked()
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}

// StopAutoUpdate detaches the observer and clears every pending deadline.
func (m *Manager) StopAutoUpdate() {
	m.mu.Lock()
	m.stopLocked()
	m.mu.Unlock()
}

func (m *Manager) syncSchedulerLocked() {
	run := m.sched.active && m.settings.Enabled && m.settings.AutoUpdate
	switch {
	case run && m.sched.state == SchedulerIdle:
		m.startLocked()
	case !run && m.sched.state != SchedulerIdle:
		m.stopLocked()
	}
}

func (m *Manager) startLocked() {
	m.sched.state = SchedulerObserving
	m.sched.wasGenerating = m.adapter.IsGenerating()
	if m.source != nil {
		m.sched.disconnect = m.source.Observe(m.NotifyMutation)
	}
	m.log.Debug("auto update started")
	m.wakeLocked()
}

func (m *Manager) stopLocked() {
	if m.sched.disconnect != nil {
		m.sched.disconnect()
		m.sched.disconnect = nil
	}
	if m.sched.state != SchedulerIdle {
		m.log.Debug("auto update stopped", "state", m.sched.state.String())
	}
	m.sched.state = SchedulerIdle
	m.sched.debounceAt = time.Time{}
	m.sched.postGenAt = time.Time{}
	m.sched.fallbackAt = time.Time{}
	m.sched.fallback = false
	m.sched.postGenScheduled = false
	m.wakeLocked()
}

// NotifyMutation is the observer callback. It never extracts or rebuilds;
// it only schedules a debounced refresh. Mutations arriving while a
// refresh is already due are coalesced into it.
func (m *Manager) NotifyMutation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sched.state != SchedulerObserving {
		return
	}
	m.sched.state = SchedulerPending
	m.sched.debounceAt = m.clock.Now().Add(m.timings.Debounce)
	m.wakeLocked()
}

// NotifyGenerationStart tells the scheduler content is streaming.
func (m *Manager) NotifyGenerationStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sched.wasGenerating = true
}

// NotifyGenerationComplete tells the scheduler streaming stopped; a forced
// rebuild follows after the post-generation delay.
func (m *Manager) NotifyGenerationComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sched.state == SchedulerIdle || m.sched.postGenScheduled {
		return
	}
	m.sched.wasGenerating = false
	m.enterPostGenerationLocked(m.clock.Now())
}

func (m *Manager) enterPostGenerationLocked(now time.Time) {
	m.sched.postGenScheduled = true
	m.sched.state = SchedulerPostGeneration
	m.sched.debounceAt = time.Time{}
	m.sched.postGenAt = now.Add(m.timings.PostGeneration)
	m.wakeLocked()
}

func (m *Manager) armFallbackLocked(now time.Time) {
	if m.sched.state == SchedulerIdle {
		return
	}
	m.sched.fallback = true
	m.sched.fallbackAt = now.Add(m.timings.Fallback)
	m.wakeLocked()
}

// SchedulerState reports the current scheduler state.
func (m *Manager) SchedulerState() SchedulerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.state
}

// PostGenerationScheduled reports whether a post-generation rebuild is due.
func (m *Manager) PostGenerationScheduled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.postGenScheduled
}

// LastChange is when the outline content last changed.
func (m *Manager) LastChange() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.lastChange
}

// NextDeadline returns the earliest pending scheduler deadline.
func (m *Manager) NextDeadline() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextDeadlineLocked()
}

func (m *Manager) nextDeadlineLocked() (time.Time, bool) {
	var next time.Time
	consider := func(t time.Time) {
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	switch m.sched.state {
	case SchedulerPending:
		consider(m.sched.debounceAt)
	case SchedulerPostGeneration:
		consider(m.sched.postGenAt)
	}
	if m.sched.fallback {
		consider(m.sched.fallbackAt)
	}
	return next, !next.IsZero()
}

// Tick runs every scheduler transition that is due at the clock's current
// time. It is the only place deadlines fire.
func (m *Manager) Tick() {
	m.mu.Lock()
	now := m.clock.Now()
	changed := false

	if m.sched.state == SchedulerPending && !now.Before(m.sched.debounceAt) {
		m.sched.state = SchedulerObserving
		m.sched.debounceAt = time.Time{}
		changed = m.executeAutoUpdateLocked(now)
	}

	if m.sched.state == SchedulerPostGeneration && !now.Before(m.sched.postGenAt) {
		m.sched.state = SchedulerObserving
		m.sched.postGenAt = time.Time{}
		m.sched.postGenScheduled = false
		m.treeKey = ""
		changed = m.refreshLocked(true, nil) || changed
	}

	if m.sched.fallback && !now.Before(m.sched.fallbackAt) {
		m.sched.fallback = false
		m.sched.fallbackAt = time.Time{}
		m.treeKey = ""
		changed = m.refreshLocked(true, nil) || changed
	}
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}

// executeAutoUpdateLocked runs when the debounce fires. A transition from
// generating to idle defers to a forced post-generation rebuild.
func (m *Manager) executeAutoUpdateLocked(now time.Time) bool {
	generating := m.adapter.IsGenerating()
	if m.sched.wasGenerating && !generating && !m.sched.postGenScheduled {
		m.sched.wasGenerating = false
		m.enterPostGenerationLocked(now)
		return false
	}
	m.sched.wasGenerating = generating
	return m.refreshLocked(false, nil)
}

func (m *Manager) wakeLocked() {
	select {
	case m.sched.wake <- struct{}{}:
	default:
	}
}

// Run drives Tick on the wall clock until ctx is done. A single timer is
// re-armed to the earliest deadline; with nothing due no timer runs.
func (m *Manager) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if next, ok := m.NextDeadline(); ok {
			timer.Reset(max(time.Until(next), 0))
		} else {
			timer.Stop()
		}

		select {
		case <-ctx.Done():
			m.StopAutoUpdate()
			return ctx.Err()
		case <-m.sched.wake:
		case <-timer.C:
			m.Tick()
		}
	}
}
