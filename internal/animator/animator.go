// Package animator manages named animation channels and routes their
// evaluated values into live properties through bindings.
package animator

import (
	"sync"

	"github.com/ivlev/animkit/internal/curve"
	"github.com/ivlev/animkit/internal/scene"
)

type bindingKind uint8

const (
	scalarTarget bindingKind = iota
	colorTarget
	callbackTarget
)

// Binding connects a channel's evaluated output to one target. The target
// is a closed set of exactly three kinds: a scalar pointer, a color
// pointer (the value drives the alpha component), or a value callback.
// They are created through Bind, BindColor and BindCallback respectively.
//
// The orchestrator does not manage the target's lifetime: the caller must
// keep a pointer target alive for as long as the binding exists.
type Binding struct {
	ChannelID uint32
	Name      string
	Scale     float64 // multiplier applied to the channel output
	Offset    float64 // added after scale

	kind     bindingKind
	scalar   *float64
	color    *scene.Color
	callback func(float64)
}

func (b *Binding) apply(value float64) {
	switch b.kind {
	case scalarTarget:
		if b.scalar != nil {
			*b.scalar = value
		}
	case colorTarget:
		if b.color != nil {
			b.color.A = clamp01(value)
		}
	case callbackTarget:
		if b.callback != nil {
			b.callback(value)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CameraBinding drives a camera's orbit parameters from channels.
// A zero channel id leaves that parameter alone.
type CameraBinding struct {
	Target      *scene.Camera
	AzimuthID   uint32
	ElevationID uint32
	DistanceID  uint32
	FOVID       uint32
}

// ChannelEntry pairs a channel id with its curve.
type ChannelEntry struct {
	ID    uint32
	Curve *curve.Curve
}

// Interpolator owns an ordered collection of animation channels, keyed by
// a monotonically increasing id, plus the bindings that push evaluated
// values into live properties.
//
// All exported methods lock an internal mutex. Callback bindings run
// synchronously under that lock during Evaluate and must not call back
// into the same Interpolator.
type Interpolator struct {
	mu sync.Mutex

	channels       []ChannelEntry // insertion order preserved
	bindings       []Binding
	cameraBindings []CameraBinding
	nextChannelID  uint32
}

// New creates an empty Interpolator.
func New() *Interpolator {
	return &Interpolator{nextChannelID: 1}
}

// ─── Channel management ───

// AddChannel creates a channel and returns its id.
func (ip *Interpolator) AddChannel(name string, defaultValue float64) uint32 {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	id := ip.nextChannelID
	ip.nextChannelID++
	ip.channels = append(ip.channels, ChannelEntry{ID: id, Curve: curve.New(name, defaultValue)})
	return id
}

// AddChannelWithID creates a channel under a caller-chosen id, so a
// timeline track and its channel can share one key. If the id is already
// taken the existing curve is returned. The id generator is advanced past
// id either way.
func (ip *Interpolator) AddChannelWithID(id uint32, name string, defaultValue float64) *curve.Curve {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	if id >= ip.nextChannelID {
		ip.nextChannelID = id + 1
	}
	if existing := ip.findChannel(id); existing != nil {
		return existing
	}
	c := curve.New(name, defaultValue)
	ip.channels = append(ip.channels, ChannelEntry{ID: id, Curve: c})
	return c
}

// RemoveChannel deletes a channel and every binding that references it.
func (ip *Interpolator) RemoveChannel(id uint32) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	kept := ip.channels[:0]
	for _, e := range ip.channels {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	ip.channels = kept

	ip.removeBindings(id)
}

// Channel returns the curve for id, or nil if no such channel exists.
func (ip *Interpolator) Channel(id uint32) *curve.Curve {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.findChannel(id)
}

// Channels returns a copy of the (id, curve) pairs in insertion order.
func (ip *Interpolator) Channels() []ChannelEntry {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	out := make([]ChannelEntry, len(ip.channels))
	copy(out, ip.channels)
	return out
}

// ChannelCount returns the number of channels.
func (ip *Interpolator) ChannelCount() int {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return len(ip.channels)
}

// ─── Property bindings ───

// Bind routes a channel to a scalar target: *target = value*scale+offset.
func (ip *Interpolator) Bind(channelID uint32, name string, target *float64, scale, offset float64) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.bindings = append(ip.bindings, Binding{
		ChannelID: channelID,
		Name:      name,
		Scale:     scale,
		Offset:    offset,
		kind:      scalarTarget,
		scalar:    target,
	})
}

// BindColor routes a channel to a color target. The evaluated value is
// clamped to [0,1] and written to the color's alpha component.
func (ip *Interpolator) BindColor(channelID uint32, name string, target *scene.Color) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.bindings = append(ip.bindings, Binding{
		ChannelID: channelID,
		Name:      name,
		Scale:     1,
		kind:      colorTarget,
		color:     target,
	})
}

// BindCallback routes a channel to a callback invoked with the scaled
// value on every Evaluate.
func (ip *Interpolator) BindCallback(channelID uint32, name string, fn func(float64), scale, offset float64) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.bindings = append(ip.bindings, Binding{
		ChannelID: channelID,
		Name:      name,
		Scale:     scale,
		Offset:    offset,
		kind:      callbackTarget,
		callback:  fn,
	})
}

// BindCamera drives a camera's orbit parameters from up to four channels.
// A zero channel id skips that parameter. Re-binding the same camera
// replaces its previous binding.
func (ip *Interpolator) BindCamera(cam *scene.Camera, azimuthID, elevationID, distanceID, fovID uint32) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	kept := ip.cameraBindings[:0]
	for _, b := range ip.cameraBindings {
		if b.Target != cam {
			kept = append(kept, b)
		}
	}
	ip.cameraBindings = append(kept, CameraBinding{
		Target:      cam,
		AzimuthID:   azimuthID,
		ElevationID: elevationID,
		DistanceID:  distanceID,
		FOVID:       fovID,
	})
}

// UnbindCamera removes the binding for cam, if any.
func (ip *Interpolator) UnbindCamera(cam *scene.Camera) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	kept := ip.cameraBindings[:0]
	for _, b := range ip.cameraBindings {
		if b.Target != cam {
			kept = append(kept, b)
		}
	}
	ip.cameraBindings = kept
}

// Unbind removes every binding for a channel.
func (ip *Interpolator) Unbind(channelID uint32) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.removeBindings(channelID)
}

// UnbindAll removes every property and camera binding.
func (ip *Interpolator) UnbindAll() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.bindings = nil
	ip.cameraBindings = nil
}

// Bindings returns a copy of the property bindings.
func (ip *Interpolator) Bindings() []Binding {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	out := make([]Binding, len(ip.bindings))
	copy(out, ip.bindings)
	return out
}

// ─── Evaluation ───

// Evaluate computes every bound channel at time and writes through the
// binding targets. Camera bindings are applied last; a camera whose
// azimuth, elevation or distance changed gets its position recomputed
// from the orbit parameters.
func (ip *Interpolator) Evaluate(time float64) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	for i := range ip.bindings {
		b := &ip.bindings[i]
		ch := ip.findChannel(b.ChannelID)
		if ch == nil {
			continue
		}
		b.apply(ch.Evaluate(time)*b.Scale + b.Offset)
	}

	for i := range ip.cameraBindings {
		b := &ip.cameraBindings[i]
		if b.Target == nil {
			continue
		}

		orbitChanged := false
		if b.AzimuthID != 0 {
			if ch := ip.findChannel(b.AzimuthID); ch != nil {
				b.Target.Azimuth = ch.Evaluate(time)
				orbitChanged = true
			}
		}
		if b.ElevationID != 0 {
			if ch := ip.findChannel(b.ElevationID); ch != nil {
				b.Target.Elevation = ch.Evaluate(time)
				orbitChanged = true
			}
		}
		if b.DistanceID != 0 {
			if ch := ip.findChannel(b.DistanceID); ch != nil {
				b.Target.Distance = ch.Evaluate(time)
				orbitChanged = true
			}
		}
		if b.FOVID != 0 {
			if ch := ip.findChannel(b.FOVID); ch != nil {
				b.Target.FOV = ch.Evaluate(time)
			}
		}

		if orbitChanged {
			b.Target.UpdatePositionFromOrbit()
		}
	}
}

// EvaluateChannel evaluates one channel without touching any binding,
// the read-only preview path used by curve editors. Returns 0 for an
// unknown channel.
func (ip *Interpolator) EvaluateChannel(id uint32, time float64) float64 {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	ch := ip.findChannel(id)
	if ch == nil {
		return 0
	}
	return ch.Evaluate(time)
}

// ─── Batch operations ───

// AddKeyframe inserts a keyframe into a channel. Unknown ids are ignored.
func (ip *Interpolator) AddKeyframe(channelID uint32, kf curve.Keyframe) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	if ch := ip.findChannel(channelID); ch != nil {
		ch.Add(kf)
	}
}

// RemoveKeyframe deletes a keyframe from a channel.
func (ip *Interpolator) RemoveKeyframe(channelID uint32, time float64) bool {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	ch := ip.findChannel(channelID)
	if ch == nil {
		return false
	}
	return ch.Remove(time, curve.TimeTolerance)
}

// ComputeAllAutoTangents recomputes Auto tangents on every channel.
func (ip *Interpolator) ComputeAllAutoTangents() {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	for _, e := range ip.channels {
		e.Curve.ComputeAutoTangents()
	}
}

// ─── Queries ───

// Duration returns the latest keyframe time across all channels.
func (ip *Interpolator) Duration() float64 {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	var maxEnd float64
	for _, e := range ip.channels {
		if end := e.Curve.EndTime(); end > maxEnd {
			maxEnd = end
		}
	}
	return maxEnd
}

// TotalKeyframeCount sums keyframe counts across all channels.
func (ip *Interpolator) TotalKeyframeCount() int {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	count := 0
	for _, e := range ip.channels {
		count += e.Curve.Len()
	}
	return count
}

// ─── internals (callers hold ip.mu) ───

func (ip *Interpolator) findChannel(id uint32) *curve.Curve {
	for _, e := range ip.channels {
		if e.ID == id {
			return e.Curve
		}
	}
	return nil
}

func (ip *Interpolator) removeBindings(channelID uint32) {
	kept := ip.bindings[:0]
	for _, b := range ip.bindings {
		if b.ChannelID != channelID {
			kept = append(kept, b)
		}
	}
	ip.bindings = kept
}
