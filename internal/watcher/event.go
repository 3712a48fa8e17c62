package watcher

import "time"

// EventType classifies a change in the watched folder.
type EventType int

const (
	// EventAdded is emitted once a finished file is present: after the
	// writer closes it on Linux, after the settle delay elsewhere.
	EventAdded EventType = iota
	// EventRemoved is emitted when a file is deleted or moved away.
	EventRemoved
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one observed change in the drop folder. Size and ModTime
// are only set for added files.
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}
