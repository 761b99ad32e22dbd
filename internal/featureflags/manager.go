// Package featureflags implements a lightweight feature flag manager.
//
// Flags are parsed from a comma-separated string of the form
// "name=value,other=50%". A percentage value enables the flag for a stable
// bucket of users based on an FNV hash of the user ID.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
)

type flag struct {
	enabled bool
	percent int // 0-100, only meaningful when rollout is true
	rollout bool
}

// Manager evaluates feature flags.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]flag
}

// NewManager parses spec and returns a Manager. Malformed entries are skipped.
func NewManager(spec string) *Manager {
	m := &Manager{flags: make(map[string]flag)}
	m.Load(spec)
	return m
}

// Load replaces the current flag set with the one parsed from spec.
func (m *Manager) Load(spec string) {
	flags := make(map[string]flag)

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !found {
			// Bare name means enabled.
			flags[name] = flag{enabled: true}
			continue
		}

		value = strings.TrimSpace(value)
		if pct, ok := strings.CutSuffix(value, "%"); ok {
			n, err := strconv.Atoi(pct)
			if err != nil || n < 0 || n > 100 {
				continue
			}
			flags[name] = flag{percent: n, rollout: true}
			continue
		}

		enabled, err := strconv.ParseBool(value)
		if err != nil {
			continue
		}
		flags[name] = flag{enabled: enabled}
	}

	m.mu.Lock()
	m.flags = flags
	m.mu.Unlock()
}

// Enabled reports whether the flag is on globally. Percentage rollouts count
// as enabled only at 100%.
func (m *Manager) Enabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.flags[name]
	if !ok {
		return false
	}
	if f.rollout {
		return f.percent >= 100
	}
	return f.enabled
}

// EnabledForUser reports whether the flag is on for the given user, taking
// percentage rollouts into account. The same user always lands in the same
// bucket for a given flag.
func (m *Manager) EnabledForUser(name string, userID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.flags[name]
	if !ok {
		return false
	}
	if !f.rollout {
		return f.enabled
	}
	return rolloutBucket(name, userID) < f.percent
}

// rolloutBucket maps (flag, user) to a stable bucket in [0, 100).
func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
