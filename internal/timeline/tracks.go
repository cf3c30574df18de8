package timeline

import (
	"sort"

	"github.com/ivlev/animkit/internal/curve"
	"github.com/ivlev/animkit/internal/scene"
)

// Marker is a visual keyframe on a track. It carries no value; for
// animated tracks the value lives in the interpolator channel that
// shares the track's id.
type Marker struct {
	Time     float64
	TrackID  uint32
	Selected bool
}

// Track is a horizontal lane of markers.
type Track struct {
	ID        uint32
	Name      string
	Color     scene.Color
	Visible   bool
	Locked    bool
	Expanded  bool
	Keyframes []Marker
}

// ─── Track CRUD ───

// AddTrack appends a visible, unlocked track and returns its id.
func (tl *Timeline) AddTrack(name string, color scene.Color) uint32 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.addTrack(name, color)
}

func (tl *Timeline) addTrack(name string, color scene.Color) uint32 {
	id := tl.nextTrackID
	tl.nextTrackID++
	tl.tracks = append(tl.tracks, Track{
		ID:      id,
		Name:    name,
		Color:   color,
		Visible: true,
	})
	return id
}

// RemoveTrack deletes a track and all its markers.
func (tl *Timeline) RemoveTrack(id uint32) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for i := range tl.tracks {
		if tl.tracks[i].ID == id {
			tl.tracks = append(tl.tracks[:i], tl.tracks[i+1:]...)
			return true
		}
	}
	return false
}

func (tl *Timeline) RenameTrack(id uint32, name string) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tr := tl.findTrack(id); tr != nil {
		tr.Name = name
		return true
	}
	return false
}

// Track returns a copy of the track with the given id.
func (tl *Timeline) Track(id uint32) (Track, bool) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tr := tl.findTrack(id); tr != nil {
		out := *tr
		out.Keyframes = append([]Marker(nil), tr.Keyframes...)
		return out, true
	}
	return Track{}, false
}

// Tracks returns copies of all tracks in creation order.
func (tl *Timeline) Tracks() []Track {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	out := make([]Track, len(tl.tracks))
	for i := range tl.tracks {
		out[i] = tl.tracks[i]
		out[i].Keyframes = append([]Marker(nil), tl.tracks[i].Keyframes...)
	}
	return out
}

func (tl *Timeline) TrackCount() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.tracks)
}

func (tl *Timeline) SetTrackVisible(id uint32, visible bool) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tr := tl.findTrack(id); tr != nil {
		tr.Visible = visible
		return true
	}
	return false
}

func (tl *Timeline) SetTrackLocked(id uint32, locked bool) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tr := tl.findTrack(id); tr != nil {
		tr.Locked = locked
		return true
	}
	return false
}

// ─── Markers ───

// AddKeyframe places a marker on a track. Silently rejected when the
// track is locked, missing, or already has a marker at that exact time.
func (tl *Timeline) AddKeyframe(trackID uint32, time float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.addMarker(trackID, time)
}

func (tl *Timeline) addMarker(trackID uint32, time float64) bool {
	tr := tl.findTrack(trackID)
	if tr == nil || tr.Locked {
		return false
	}
	for i := range tr.Keyframes {
		if tr.Keyframes[i].Time == time {
			return false
		}
	}
	tr.Keyframes = append(tr.Keyframes, Marker{Time: time, TrackID: trackID})
	sort.SliceStable(tr.Keyframes, func(i, j int) bool {
		return tr.Keyframes[i].Time < tr.Keyframes[j].Time
	})
	if tl.onKeyframeAdded != nil {
		tl.onKeyframeAdded(trackID, time)
	}
	return true
}

// RemoveKeyframe deletes the marker at the exact time. Locked tracks
// reject the removal.
func (tl *Timeline) RemoveKeyframe(trackID uint32, time float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tr := tl.findTrack(trackID)
	if tr == nil || tr.Locked {
		return
	}
	for i := range tr.Keyframes {
		if tr.Keyframes[i].Time == time {
			tr.Keyframes = append(tr.Keyframes[:i], tr.Keyframes[i+1:]...)
			if tl.onKeyframeRemoved != nil {
				tl.onKeyframeRemoved(trackID, time)
			}
			return
		}
	}
}

// MoveKeyframe repositions a marker, clamping the destination to
// [0, duration] and re-sorting the track.
func (tl *Timeline) MoveKeyframe(trackID uint32, oldTime, newTime float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tr := tl.findTrack(trackID)
	if tr == nil || tr.Locked {
		return
	}
	for i := range tr.Keyframes {
		if tr.Keyframes[i].Time == oldTime {
			if newTime < 0 {
				newTime = 0
			}
			if newTime > tl.duration {
				newTime = tl.duration
			}
			tr.Keyframes[i].Time = newTime
			sort.SliceStable(tr.Keyframes, func(a, b int) bool {
				return tr.Keyframes[a].Time < tr.Keyframes[b].Time
			})
			return
		}
	}
}

// ClearKeyframes removes every marker from a track, even a locked one.
func (tl *Timeline) ClearKeyframes(trackID uint32) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tr := tl.findTrack(trackID); tr != nil {
		tr.Keyframes = nil
	}
}

func (tl *Timeline) TotalKeyframeCount() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	n := 0
	for i := range tl.tracks {
		n += len(tl.tracks[i].Keyframes)
	}
	return n
}

// ─── Selection ───

func (tl *Timeline) SelectKeyframe(trackID uint32, time float64) {
	tl.setMarkerSelected(trackID, time, true)
}

func (tl *Timeline) DeselectKeyframe(trackID uint32, time float64) {
	tl.setMarkerSelected(trackID, time, false)
}

func (tl *Timeline) setMarkerSelected(trackID uint32, time float64, sel bool) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tr := tl.findTrack(trackID)
	if tr == nil {
		return
	}
	for i := range tr.Keyframes {
		if tr.Keyframes[i].Time == time {
			tr.Keyframes[i].Selected = sel
			tl.fireSelectionChange()
			return
		}
	}
}

// SelectAll marks every marker on every track selected.
func (tl *Timeline) SelectAll() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for i := range tl.tracks {
		for j := range tl.tracks[i].Keyframes {
			tl.tracks[i].Keyframes[j].Selected = true
		}
	}
	tl.fireSelectionChange()
}

func (tl *Timeline) DeselectAll() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for i := range tl.tracks {
		for j := range tl.tracks[i].Keyframes {
			tl.tracks[i].Keyframes[j].Selected = false
		}
	}
	tl.fireSelectionChange()
}

// SelectRange selects every marker whose time lies in [tmin, tmax],
// across all tracks, replacing the previous selection.
func (tl *Timeline) SelectRange(tmin, tmax float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for i := range tl.tracks {
		for j := range tl.tracks[i].Keyframes {
			t := tl.tracks[i].Keyframes[j].Time
			tl.tracks[i].Keyframes[j].Selected = t >= tmin && t <= tmax
		}
	}
	tl.fireSelectionChange()
}

// SelectedKeyframes returns pointers to the selected markers, valid
// until the next structural edit.
func (tl *Timeline) SelectedKeyframes() []*Marker {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.selectedMarkers()
}

func (tl *Timeline) selectedMarkers() []*Marker {
	var out []*Marker
	for i := range tl.tracks {
		for j := range tl.tracks[i].Keyframes {
			if tl.tracks[i].Keyframes[j].Selected {
				out = append(out, &tl.tracks[i].Keyframes[j])
			}
		}
	}
	return out
}

func (tl *Timeline) SelectedCount() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	n := 0
	for i := range tl.tracks {
		for j := range tl.tracks[i].Keyframes {
			if tl.tracks[i].Keyframes[j].Selected {
				n++
			}
		}
	}
	return n
}

// DeleteSelected removes selected markers from unlocked tracks. Markers
// on locked tracks survive and stay selected.
func (tl *Timeline) DeleteSelected() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for i := range tl.tracks {
		tr := &tl.tracks[i]
		if tr.Locked {
			continue
		}
		kept := tr.Keyframes[:0]
		for _, m := range tr.Keyframes {
			if !m.Selected {
				kept = append(kept, m)
			} else if tl.onKeyframeRemoved != nil {
				tl.onKeyframeRemoved(tr.ID, m.Time)
			}
		}
		tr.Keyframes = kept
	}
	tl.fireSelectionChange()
}

// ─── Animated tracks ───

// AddAnimatedTrack creates a track and an interpolator channel that
// share one id, so markers and value keyframes stay paired. Requires an
// attached interpolator; returns 0 without one.
func (tl *Timeline) AddAnimatedTrack(name string, defaultValue float64, color scene.Color) uint32 {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.interp == nil {
		return 0
	}
	id := tl.addTrack(name, color)
	tl.interp.AddChannelWithID(id, name, defaultValue)
	return id
}

// AddAnimatedKeyframe places a marker and upserts a value keyframe on
// the channel with the same id. Rejected when the track is locked.
func (tl *Timeline) AddAnimatedKeyframe(trackID uint32, time, value float64, interp curve.InterpMode) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tr := tl.findTrack(trackID)
	if tr == nil || tr.Locked {
		return
	}
	tl.addMarker(trackID, time)
	if tl.interp != nil {
		tl.interp.AddKeyframe(trackID, curve.NewKeyframe(time, value, interp))
	}
}

// ─── internals ───

func (tl *Timeline) findTrack(id uint32) *Track {
	for i := range tl.tracks {
		if tl.tracks[i].ID == id {
			return &tl.tracks[i]
		}
	}
	return nil
}

func (tl *Timeline) fireSelectionChange() {
	if tl.onSelectionChange != nil {
		tl.onSelectionChange(tl.selectedMarkers())
	}
}
