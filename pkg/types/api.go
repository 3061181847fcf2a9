package types

// UpdateParamRequest is the payload for POST /params.
type UpdateParamRequest struct {
	// Which reading or policy value to update. One of: ammonia, nitrite,
	// nitrate, ph, feed_interval_sec, clean_interval_days.
	// example: ammonia
	Kind string `json:"kind" example:"ammonia"`
	// New value. Clamped to the parameter's documented valid range.
	// example: 0.25
	Value float64 `json:"value" example:"0.25"`
}

// EventRequest is the payload for POST /events (feed/clean button presses).
type EventRequest struct {
	// Event kind: "feed" or "clean".
	// example: feed
	Kind string `json:"kind" example:"feed"`
}

// CategoryRequest is the payload for POST /category (manual override).
type CategoryRequest struct {
	// Category value in {0,1,2}: 0=HAPPY, 1=SAD, 2=ANGRY.
	// example: 2
	Category int `json:"category" example:"2"`
}

// AdviceResponse wraps the text returned by the cloud advice requester.
type AdviceResponse struct {
	// Advice text from the hosted model.
	Advice string `json:"advice"`
}

// DayCount is one day's event tally from the history store.
type DayCount struct {
	// Day in YYYY-MM-DD form, local time.
	// example: 2026-08-26
	Day string `json:"day" example:"2026-08-26"`
	// Number of events logged that day.
	// example: 3
	Count int `json:"count" example:"3"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// PipelineStatus summarizes the frame pipeline counters for /status.
type PipelineStatus struct {
	// Frames successfully loaded and published by the producer.
	// example: 42
	FramesLoaded uint64 `json:"frames_loaded" example:"42"`
	// Load attempts that failed (asset missing, short read).
	// example: 0
	LoadFailures uint64 `json:"load_failures" example:"0"`
	// Requests dropped because both buffer slots were still occupied.
	// example: 0
	DroppedBusy uint64 `json:"dropped_busy" example:"0"`
	// Requests overwritten by a newer request before being serviced.
	// example: 1
	DroppedOverwritten uint64 `json:"dropped_overwritten" example:"1"`
	// Loads discarded because the category generation changed mid-load.
	// example: 0
	StaleDiscards uint64 `json:"stale_discards" example:"0"`
	// Current invalidation generation.
	// example: 3
	Generation uint64 `json:"generation" example:"3"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall daemon state (e.g., ready).
	// example: ready
	State string `json:"state" example:"ready"`
	// Current animation category.
	Category Category `json:"category" example:"HAPPY"`
	// Frame within the current category's sequence, in [0,8).
	// example: 3
	FrameInCategory int `json:"frame_in_category" example:"3"`
	// Generation counter of the displayed frame; increments on every swap.
	// example: 128
	DisplayGeneration uint64 `json:"display_generation" example:"128"`
	// Frame pipeline counters.
	Pipeline PipelineStatus `json:"pipeline"`
	// Latest mood evaluation.
	Mood MoodResult `json:"mood"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
