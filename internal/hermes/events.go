package hermes

import (
	"encoding/json"
	"time"
)

// WeightsUpdatedEvent is published whenever the persisted weight pair changes.
type WeightsUpdatedEvent struct {
	P         float64   `json:"p"`
	R         float64   `json:"r"`
	Source    string    `json:"source"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ForeignWeightUpdates adapts fn into a SubjectWeightsUpdated handler that
// skips events published by origin and malformed payloads.
func ForeignWeightUpdates(origin string, fn func(WeightsUpdatedEvent)) func(string, []byte) {
	return func(_ string, data []byte) {
		var evt WeightsUpdatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return
		}
		if origin != "" && evt.Origin == origin {
			return
		}
		fn(evt)
	}
}

// RenderCompletedEvent summarizes one finished plot render.
type RenderCompletedEvent struct {
	RenderID   string    `json:"render_id"`
	Variant    string    `json:"variant"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	WeightP    float64   `json:"weight_p"`
	WeightR    float64   `json:"weight_r"`
	Levels     int       `json:"levels"`
	Labels     []float64 `json:"labels"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
