package tracker

import (
	"time"
)

// TabInfo describes the tab the host reports as focused.
type TabInfo struct {
	TabID int
	URL   string
}

// Session is the interval during which one domain is focused.
// A nil *Session means no domain is being tracked.
type Session struct {
	Domain    string
	StartedAt time.Time
	TabID     int
}

// Snapshot is a point-in-time view of the tracker.
type Snapshot struct {
	Domain          string     `json:"domain,omitempty"`
	TabID           int        `json:"tab_id,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	PendingMS       int64      `json:"pending_ms"`
	TrackingEnabled bool       `json:"tracking_enabled"`
}

const (
	flushFocus    = "focus"
	flushIdle     = "idle"
	flushShutdown = "shutdown"
)
