package models

// SyncState is the per-device sync cursor. It anchors a future
// bidirectional sync processor: the core initializes the row once at
// startup and only the processor advances the cursors.
type SyncState struct {
	// ID is the cursor key; the device-wide cursor uses "device".
	ID string `json:"id"`

	// EntityType scopes a cursor to one collection, empty for the
	// device-wide row.
	EntityType string `json:"entityType"`

	// LastPulledAt / LastPushedAt are Unix milliseconds of the last
	// successful pull/push, zero until the first sync.
	LastPulledAt int64 `json:"lastPulledAt"`
	LastPushedAt int64 `json:"lastPushedAt"`

	// DeviceID identifies this installation to the server.
	DeviceID string `json:"deviceId"`
}

// DeviceStateID is the SyncState row holding the device-wide cursor.
const DeviceStateID = "device"
