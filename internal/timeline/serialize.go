package timeline

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ivlev/animkit/internal/scene"
)

// Wire documents. Field names are fixed: saved files round-trip with the
// curve-editing surface and with foreign files it may load.

type document struct {
	Duration     float64         `json:"duration"`
	FPS          float64         `json:"fps"`
	LoopMode     int             `json:"loop_mode"`
	SnapMode     int             `json:"snap_mode"`
	SnapInterval float64         `json:"snap_interval"`
	LoopIn       *float64        `json:"loop_in,omitempty"`
	LoopOut      *float64        `json:"loop_out,omitempty"`
	Tracks       []trackDoc      `json:"tracks"`
	Interpolator json.RawMessage `json:"interpolator,omitempty"`
}

type trackDoc struct {
	ID        uint32      `json:"id"`
	Name      string      `json:"name"`
	Color     scene.Color `json:"color"`
	Visible   bool        `json:"visible"`
	Locked    bool        `json:"locked"`
	Keyframes []markerDoc `json:"keyframes"`
}

type markerDoc struct {
	Time float64 `json:"t"`
}

// Serialize encodes the timeline configuration and tracks, embedding the
// attached interpolator's document when one is set.
func (tl *Timeline) Serialize() ([]byte, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	doc := document{
		Duration:     tl.duration,
		FPS:          tl.fps,
		LoopMode:     int(tl.loopMode),
		SnapMode:     int(tl.snapMode),
		SnapInterval: tl.snapInterval,
		Tracks:       make([]trackDoc, 0, len(tl.tracks)),
	}
	if tl.hasLoopRegion {
		in, out := tl.loopIn, tl.loopOut
		doc.LoopIn = &in
		doc.LoopOut = &out
	}
	for i := range tl.tracks {
		tr := &tl.tracks[i]
		td := trackDoc{
			ID:        tr.ID,
			Name:      tr.Name,
			Color:     tr.Color,
			Visible:   tr.Visible,
			Locked:    tr.Locked,
			Keyframes: make([]markerDoc, 0, len(tr.Keyframes)),
		}
		for _, m := range tr.Keyframes {
			td.Keyframes = append(td.Keyframes, markerDoc{Time: m.Time})
		}
		doc.Tracks = append(doc.Tracks, td)
	}
	if tl.interp != nil {
		raw, err := tl.interp.Serialize()
		if err != nil {
			return nil, fmt.Errorf("serialize interpolator: %w", err)
		}
		doc.Interpolator = raw
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize timeline: %w", err)
	}
	return data, nil
}

// Deserialize replaces the timeline configuration and tracks from data.
// On any error the timeline (and its attached interpolator) keep their
// prior state. The playback state is not part of the document; the
// playhead survives but is clamped to the restored duration.
func (tl *Timeline) Deserialize(data []byte) error {
	doc := document{
		Duration:     10,
		FPS:          60,
		SnapMode:     int(SnapFrame),
		SnapInterval: 0.1,
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("deserialize timeline: %w", err)
	}
	if doc.Duration < 0 {
		return fmt.Errorf("deserialize timeline: negative duration %g", doc.Duration)
	}
	if doc.FPS < 1 {
		doc.FPS = 1
	}

	tracks := make([]Track, 0, len(doc.Tracks))
	var maxID uint32
	for _, td := range doc.Tracks {
		tr := Track{
			ID:      td.ID,
			Name:    td.Name,
			Color:   td.Color,
			Visible: td.Visible,
			Locked:  td.Locked,
		}
		for _, md := range td.Keyframes {
			tr.Keyframes = append(tr.Keyframes, Marker{Time: md.Time, TrackID: td.ID})
		}
		sort.SliceStable(tr.Keyframes, func(i, j int) bool {
			return tr.Keyframes[i].Time < tr.Keyframes[j].Time
		})
		tracks = append(tracks, tr)
		if td.ID > maxID {
			maxID = td.ID
		}
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	// Restore the embedded interpolator first: its failure must leave
	// the timeline untouched too.
	if tl.interp != nil && doc.Interpolator != nil {
		if err := tl.interp.Deserialize(doc.Interpolator); err != nil {
			return fmt.Errorf("deserialize timeline: %w", err)
		}
	}

	tl.duration = doc.Duration
	tl.fps = doc.FPS
	tl.loopMode = LoopMode(doc.LoopMode)
	tl.snapMode = SnapMode(doc.SnapMode)
	tl.snapInterval = doc.SnapInterval
	if tl.snapInterval < 0.001 {
		tl.snapInterval = 0.001
	}
	if doc.LoopIn != nil && doc.LoopOut != nil && *doc.LoopOut > *doc.LoopIn {
		tl.loopIn = *doc.LoopIn
		tl.loopOut = *doc.LoopOut
		tl.hasLoopRegion = true
	} else {
		tl.hasLoopRegion = false
		tl.loopIn = 0
		tl.loopOut = 0
	}
	tl.tracks = tracks
	tl.nextTrackID = maxID + 1
	tl.viewStart = 0
	tl.viewEnd = tl.duration
	tl.clampPlayhead()
	return nil
}
