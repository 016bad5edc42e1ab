package events

// Event type constants for kelindar/event.
const (
	TypeLightStateChanged uint32 = iota + 1
	TypeFrequencyChanged
	TypeConfigReloaded
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// LightStateChangedEvent is published after the light is switched or recolored.
// This is the host notification the adapter emits for every state change.
type LightStateChangedEvent struct {
	Name      string   `json:"name" example:"PiDioder" doc:"Light name"`
	On        bool     `json:"on" example:"true" doc:"Whether the light is on"`
	RGB       [3]uint8 `json:"rgb" doc:"Current color as red, green, blue (0-255)"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LightStateChangedEvent.
func (e LightStateChangedEvent) Type() uint32 { return TypeLightStateChanged }

// FrequencyChangedEvent is published when the PWM base frequency is reprogrammed.
type FrequencyChangedEvent struct {
	Hz        float64 `json:"hz" example:"1000" doc:"Requested PWM frequency"`
	Prescale  uint8   `json:"prescale" example:"5" doc:"Value written to PRE_SCALE"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrequencyChangedEvent.
func (e FrequencyChangedEvent) Type() uint32 { return TypeFrequencyChanged }

// ConfigReloadedEvent is published after the config file is re-read.
type ConfigReloadedEvent struct {
	Path      string `json:"path" example:"config.toml" doc:"Config file path"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConfigReloadedEvent.
func (e ConfigReloadedEvent) Type() uint32 { return TypeConfigReloaded }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"light" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
