// Package camerapath interpolates full camera snapshots along a keyframed
// path, either as an orbit (spherical coordinates around a target) or as
// a free flight (Cartesian pose with slerped orientation).
package camerapath

import (
	"math"
	"sort"
	"sync"

	"github.com/ivlev/animkit/internal/scene"
)

// timeTolerance matches the curve package's upsert window.
const timeTolerance = 0.001

// PathMode selects the interpolation strategy between camera keyframes.
type PathMode int

const (
	// Orbit lerps azimuth/elevation/distance/fov and derives the camera
	// position from the interpolated spherical parameters. Best for
	// turntable moves around a fixed target.
	Orbit PathMode = iota
	// FreeFlight lerps position and target directly and slerps the
	// orientation quaternion. Best for fly-throughs.
	FreeFlight
)

func (m PathMode) String() string {
	switch m {
	case Orbit:
		return "Orbit"
	case FreeFlight:
		return "FreeFlight"
	}
	return "Unknown"
}

// Keyframe stores a full camera snapshot at a point in time.
type Keyframe struct {
	Time   float64
	Camera scene.Camera
}

// Animator owns a time-sorted list of camera keyframes and evaluates an
// interpolated camera at arbitrary times.
//
// All exported methods lock an internal mutex.
type Animator struct {
	mu sync.Mutex

	pathMode  PathMode
	keyframes []Keyframe // always sorted by time
	target    *scene.Camera
}

// New creates an empty Animator in Orbit mode.
func New() *Animator {
	return &Animator{}
}

func (a *Animator) PathMode() PathMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pathMode
}

func (a *Animator) SetPathMode(mode PathMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pathMode = mode
}

// ─── Keyframe management ───

// AddKeyframe inserts a snapshot at time. An existing keyframe at the
// same time (within tolerance) is replaced.
func (a *Animator) AddKeyframe(time float64, cam scene.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addKeyframe(time, cam)
}

// RemoveKeyframe deletes the keyframe nearest to time within tolerance.
func (a *Animator) RemoveKeyframe(time, tolerance float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.keyframes {
		if math.Abs(a.keyframes[i].Time-time) < tolerance {
			a.keyframes = append(a.keyframes[:i], a.keyframes[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes all keyframes.
func (a *Animator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keyframes = nil
}

// Keyframes returns a copy of the keyframes in time order.
func (a *Animator) Keyframes() []Keyframe {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Keyframe, len(a.keyframes))
	copy(out, a.keyframes)
	return out
}

// Len returns the keyframe count.
func (a *Animator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.keyframes)
}

// Duration returns the time of the last keyframe, or 0 when empty.
func (a *Animator) Duration() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.keyframes) == 0 {
		return 0
	}
	return a.keyframes[len(a.keyframes)-1].Time
}

// ─── Evaluation ───

// Evaluate returns the interpolated camera at time according to the
// current path mode. An empty animator yields the default camera.
func (a *Animator) Evaluate(time float64) scene.Camera {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.evaluate(time)
}

// Apply writes the evaluated camera into cam.
func (a *Animator) Apply(time float64, cam *scene.Camera) {
	result := a.Evaluate(time)
	*cam = result
}

// SetTargetCamera binds a camera that EvaluateAt writes to. The caller
// owns the camera and must keep it alive while bound.
func (a *Animator) SetTargetCamera(cam *scene.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.target = cam
}

func (a *Animator) TargetCamera() *scene.Camera {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// EvaluateAt evaluates at time and applies the result to the bound
// target camera. No-op without a target or without keyframes.
func (a *Animator) EvaluateAt(time float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.target == nil || len(a.keyframes) == 0 {
		return
	}
	*a.target = a.evaluate(time)
}

// ─── Convenience ───

// CreateOrbitAnimation replaces all keyframes with a two-keyframe orbit
// from startAzimuth to endAzimuth over the given duration, using base for
// every other camera parameter.
func (a *Animator) CreateOrbitAnimation(base scene.Camera, startAzimuth, endAzimuth, duration float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.keyframes = nil
	a.pathMode = Orbit

	start := base
	start.Azimuth = startAzimuth
	start.UpdatePositionFromOrbit()
	a.addKeyframe(0, start)

	end := base
	end.Azimuth = endAzimuth
	end.UpdatePositionFromOrbit()
	a.addKeyframe(duration, end)
}

// CreateTurntable replaces all keyframes with a full 360° orbit starting
// at the base camera's azimuth.
func (a *Animator) CreateTurntable(base scene.Camera, duration float64) {
	a.CreateOrbitAnimation(base, base.Azimuth, base.Azimuth+360, duration)
}

// ─── internals (callers hold a.mu) ───

func (a *Animator) addKeyframe(time float64, cam scene.Camera) {
	for i := range a.keyframes {
		if math.Abs(a.keyframes[i].Time-time) < timeTolerance {
			a.keyframes[i].Camera = cam
			return
		}
	}
	a.keyframes = append(a.keyframes, Keyframe{Time: time, Camera: cam})
	a.sortKeyframes()
}

func (a *Animator) sortKeyframes() {
	sort.SliceStable(a.keyframes, func(i, j int) bool {
		return a.keyframes[i].Time < a.keyframes[j].Time
	})
}

// findBracket returns the indices of the keyframes surrounding time:
// (-1,-1) when empty, (i,i) when a single keyframe exists or time falls
// outside the keyframe range.
func (a *Animator) findBracket(time float64) (int, int) {
	if len(a.keyframes) == 0 {
		return -1, -1
	}
	if len(a.keyframes) == 1 {
		return 0, 0
	}

	if time <= a.keyframes[0].Time {
		return 0, 0
	}
	last := len(a.keyframes) - 1
	if time >= a.keyframes[last].Time {
		return last, last
	}

	for i := 0; i < last; i++ {
		if time >= a.keyframes[i].Time && time <= a.keyframes[i+1].Time {
			return i, i + 1
		}
	}
	return last, last
}

// localT computes the clamped segment parameter for the bracket (i,j).
func (a *Animator) localT(time float64, i, j int) float64 {
	segDur := a.keyframes[j].Time - a.keyframes[i].Time
	if segDur <= 1e-6 {
		return 0
	}
	t := (time - a.keyframes[i].Time) / segDur
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func (a *Animator) evaluate(time float64) scene.Camera {
	if len(a.keyframes) == 0 {
		return scene.DefaultCamera()
	}
	if a.pathMode == Orbit {
		return a.evaluateOrbit(time)
	}
	return a.evaluateFreeFlight(time)
}

// evaluateOrbit lerps the spherical parameters and the target point, then
// derives the camera position from them. The position itself is never
// interpolated, so the camera stays on the orbit sphere.
func (a *Animator) evaluateOrbit(time float64) scene.Camera {
	i, j := a.findBracket(time)
	if i == -1 {
		return scene.DefaultCamera()
	}
	if i == j {
		return a.keyframes[i].Camera
	}

	ca := &a.keyframes[i].Camera
	cb := &a.keyframes[j].Camera
	t := a.localT(time, i, j)

	result := *ca
	result.Azimuth = lerp(ca.Azimuth, cb.Azimuth, t)
	result.Elevation = lerp(ca.Elevation, cb.Elevation, t)
	result.Distance = lerp(ca.Distance, cb.Distance, t)
	result.FOV = lerp(ca.FOV, cb.FOV, t)
	result.OrthoSize = lerp(ca.OrthoSize, cb.OrthoSize, t)
	result.Target = lerpVec3(ca.Target, cb.Target, t)

	result.UpdatePositionFromOrbit()
	return result
}

// evaluateFreeFlight lerps the Cartesian pose and slerps the orientation.
// The up vector is recovered from the interpolated rotation's up basis
// column. The projection mode is discrete and copied from the earlier
// keyframe.
func (a *Animator) evaluateFreeFlight(time float64) scene.Camera {
	i, j := a.findBracket(time)
	if i == -1 {
		return scene.DefaultCamera()
	}
	if i == j {
		return a.keyframes[i].Camera
	}

	ca := &a.keyframes[i].Camera
	cb := &a.keyframes[j].Camera
	t := a.localT(time, i, j)

	var result scene.Camera
	result.Position = lerpVec3(ca.Position, cb.Position, t)
	result.Target = lerpVec3(ca.Target, cb.Target, t)

	q := scene.Slerp(ca.Orientation(), cb.Orientation(), t)
	result.Up = scene.BasisFromQuat(q).Up.Normalized()

	result.FOV = lerp(ca.FOV, cb.FOV, t)
	result.Distance = lerp(ca.Distance, cb.Distance, t)
	result.OrthoSize = lerp(ca.OrthoSize, cb.OrthoSize, t)
	result.NearClip = lerp(ca.NearClip, cb.NearClip, t)
	result.FarClip = lerp(ca.FarClip, cb.FarClip, t)

	// Keep orbit parameters in sync so a mode switch mid-flight lands on
	// a sensible pose.
	result.Azimuth = lerp(ca.Azimuth, cb.Azimuth, t)
	result.Elevation = lerp(ca.Elevation, cb.Elevation, t)

	result.ProjectionMode = ca.ProjectionMode
	return result
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpVec3(a, b scene.Vec3, t float64) scene.Vec3 {
	return scene.Vec3{
		X: lerp(a.X, b.X, t),
		Y: lerp(a.Y, b.Y, t),
		Z: lerp(a.Z, b.Z, t),
	}
}
