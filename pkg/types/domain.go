package types

import (
	"encoding/json"
	"fmt"
)

// Category is one of the three mood classifications driving which animation
// sequence plays.
type Category uint8

const (
	CategoryHappy Category = 0
	CategorySad   Category = 1
	CategoryAngry Category = 2

	// NumCategories is the number of mood categories with frame sequences.
	NumCategories = 3
)

// Valid reports whether c is one of the three defined categories.
func (c Category) Valid() bool { return c <= CategoryAngry }

func (c Category) String() string {
	switch c {
	case CategoryHappy:
		return "HAPPY"
	case CategorySad:
		return "SAD"
	case CategoryAngry:
		return "ANGRY"
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// MarshalJSON encodes the category as its name so remote dashboards get
// "HAPPY"/"SAD"/"ANGRY" rather than a bare number.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either the name or the numeric value.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch s {
		case "HAPPY":
			*c = CategoryHappy
		case "SAD":
			*c = CategorySad
		case "ANGRY":
			*c = CategoryAngry
		default:
			return fmt.Errorf("unknown category %q", s)
		}
		return nil
	}
	var n uint8
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	cat := Category(n)
	if !cat.Valid() {
		return fmt.Errorf("category out of range: %d", n)
	}
	*c = cat
	return nil
}

// Params is an immutable snapshot of the tank readings and care policy used
// by the mood evaluator. Times are unix seconds so a snapshot round-trips
// through JSON without losing the wall-clock anchor.
type Params struct {
	// Ammonia in ppm. 0 is ideal, anything at or above 0.5 is critical.
	// example: 0.0
	AmmoniaPPM float64 `json:"ammonia_ppm" example:"0.0"`
	// Nitrite in ppm. 0 is ideal, anything at or above 0.5 is critical.
	// example: 0.0
	NitritePPM float64 `json:"nitrite_ppm" example:"0.0"`
	// Nitrate in ppm. Below 20 is safe, above 80 is critical.
	// example: 10.0
	NitratePPM float64 `json:"nitrate_ppm" example:"10.0"`
	// pH of the water. 6.5-7.5 is the target band.
	// example: 7.0
	PH float64 `json:"ph" example:"7.0"`
	// Unix time of the last feeding.
	LastFeedUnix int64 `json:"last_feed_unix" example:"1700000000"`
	// Unix time of the last water change.
	LastCleanUnix int64 `json:"last_clean_unix" example:"1700000000"`
	// Planned interval between feedings, in seconds.
	// example: 28800
	FeedIntervalSec int64 `json:"feed_interval_sec" example:"28800"`
	// Planned interval between water changes, in days.
	// example: 7
	CleanIntervalDays int64 `json:"clean_interval_days" example:"7"`
}

// MoodResult is the output of one mood evaluation: six bounded per-parameter
// scores, their sum, the category the override rules settled on, and a
// human-readable reason.
type MoodResult struct {
	// Each score is in [-2, +2].
	AmmoniaScore int `json:"ammonia_score" example:"2"`
	NitriteScore int `json:"nitrite_score" example:"2"`
	NitrateScore int `json:"nitrate_score" example:"2"`
	PHScore      int `json:"ph_score" example:"2"`
	FeedScore    int `json:"feed_score" example:"2"`
	CleanScore   int `json:"clean_score" example:"2"`
	// Sum of the six scores, in [-12, +12].
	Total int `json:"total" example:"12"`
	// Category the override rules decided on.
	Category Category `json:"category" example:"HAPPY"`
	// Human-readable explanation naming the deciding parameters.
	Reason string `json:"reason" example:"All parameters in a healthy range"`
}

// Snapshot is a point-in-time view of the whole dashboard state, published
// to external sinks (cloud advice, mobile bridge, history log). It is a
// value, not a stream: sinks get the state as of TakenAtUnix and nothing
// mutates it afterwards.
type Snapshot struct {
	TakenAtUnix int64      `json:"taken_at_unix" example:"1700000000"`
	Params      Params     `json:"params"`
	Mood        MoodResult `json:"mood"`
	// Derived durations, precomputed so sinks need no clock of their own.
	SecondsSinceFeed  int64 `json:"seconds_since_feed" example:"3600"`
	SecondsSinceClean int64 `json:"seconds_since_clean" example:"86400"`
}
