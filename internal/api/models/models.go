package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Light models
type LightData struct {
	Name          string   `json:"name" example:"PiDioder" doc:"Light name"`
	On            bool     `json:"on" example:"true" doc:"Whether the light is on"`
	RGB           [3]uint8 `json:"rgb" doc:"Current color as red, green, blue (0-255)"`
	FrequencyHz   float64  `json:"frequency_hz" example:"1000" doc:"PWM base frequency"`
	Available     bool     `json:"available" example:"true" doc:"Whether the light can be controlled"`
	SupportsColor bool     `json:"supports_color" example:"true" doc:"Whether the light accepts a color"`
}

type LightResponse struct {
	Body LightData
}

// TurnOnRequestData selects the color. When both are given hs wins.
type TurnOnRequestData struct {
	RGB []int     `json:"rgb,omitempty" minItems:"3" maxItems:"3" doc:"Color as red, green, blue (0-255)"`
	HS  []float64 `json:"hs,omitempty" minItems:"2" maxItems:"2" doc:"Color as hue (0-360) and saturation (0-100), shown at full brightness"`
}

type TurnOnRequest struct {
	Body *TurnOnRequestData `required:"false"`
}

type ChannelRequest struct {
	Channel int `path:"channel" example:"0" doc:"PCA9685 output (0-15)"`
	Body    struct {
		Duty float64 `json:"duty" example:"0.5" doc:"Duty cycle between 0 and 1"`
	}
}

type ChannelData struct {
	Channel int     `json:"channel" example:"0" doc:"PCA9685 output"`
	Duty    float64 `json:"duty" example:"0.5" doc:"Duty cycle written"`
}

type ChannelResponse struct {
	Body ChannelData
}

type FrequencyRequest struct {
	Body struct {
		Hz float64 `json:"hz" example:"1000" doc:"PWM base frequency in Hz (about 24-1526)"`
	}
}

type FrequencyData struct {
	Hz       float64 `json:"hz" example:"1000" doc:"PWM base frequency"`
	Prescale uint8   `json:"prescale" example:"5" doc:"Value written to PRE_SCALE"`
}

type FrequencyResponse struct {
	Body FrequencyData
}

// Log models
type LogsData struct {
	Lines []string `json:"lines" doc:"Buffered log lines, oldest first"`
	Count int      `json:"count" example:"42" doc:"Number of lines"`
	Last  uint64   `json:"last" example:"1234" doc:"Sequence number of the newest buffered entry; pass as after to fetch only newer lines"`
}

type LogsRequest struct {
	After uint64 `query:"after" doc:"Only return entries with a sequence number greater than this"`
}

type LogsResponse struct {
	Body LogsData
}
