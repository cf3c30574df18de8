// Package timeline implements the playback state machine and the visual
// track/keyframe model that drives an animator.Interpolator and a
// camerapath.Animator at the playhead time.
package timeline

import (
	"math"
	"sync"

	"github.com/ivlev/animkit/internal/animator"
	"github.com/ivlev/animkit/internal/camerapath"
)

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
	Recording
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Recording:
		return "Recording"
	}
	return "Unknown"
}

// LoopMode governs what happens when the playhead reaches a loop bound.
type LoopMode int

const (
	LoopNone LoopMode = iota // play once and stop
	Loop                     // wrap back to the loop start
	PingPong                 // reverse direction at each bound
)

// SnapMode governs playhead and keyframe placement snapping.
type SnapMode int

const (
	SnapNone  SnapMode = iota // free positioning
	SnapFrame                 // snap to frame boundaries (1/fps)
	SnapBeat                  // snap to a configurable beat interval
)

// Callback signatures. Callbacks are invoked synchronously while the
// Timeline's lock is held and must not call back into the Timeline.
type (
	PlaybackFunc  func(State)
	ScrubFunc     func(time float64)
	KeyframeFunc  func(trackID uint32, time float64)
	SelectionFunc func(selected []*Marker)
)

// Timeline owns the playhead clock, loop and snap configuration, and the
// visual tracks whose markers mirror interpolator channels by shared id.
//
// All exported methods lock an internal mutex. Advance and
// EvaluateAtPlayhead call into the attached Interpolator and camera
// Animator while that lock is held; neither ever calls back into a
// Timeline, which fixes the lock order Timeline → Interpolator/Animator.
type Timeline struct {
	mu sync.Mutex

	state       State
	playhead    float64
	duration    float64
	fps         float64
	loopMode    LoopMode
	pingPongDir int // +1 forward, -1 backward

	loopIn        float64
	loopOut       float64
	hasLoopRegion bool

	snapMode     SnapMode
	snapInterval float64 // for SnapBeat

	tracks      []Track
	nextTrackID uint32

	viewStart float64
	viewEnd   float64
	zoom      float64 // pixels per second

	interp     *animator.Interpolator
	cameraAnim *camerapath.Animator

	onPlaybackChange  PlaybackFunc
	onScrub           ScrubFunc
	onKeyframeAdded   KeyframeFunc
	onKeyframeRemoved KeyframeFunc
	onSelectionChange SelectionFunc
}

// New creates a stopped timeline with a 10 second duration at 60 fps,
// frame snapping and a 100 px/s zoom.
func New() *Timeline {
	return &Timeline{
		duration:     10,
		fps:          60,
		pingPongDir:  1,
		snapMode:     SnapFrame,
		snapInterval: 0.1,
		nextTrackID:  1,
		viewEnd:      10,
		zoom:         100,
	}
}

// ─── Playback ───

// Play starts playback. Transitioning out of Stopped resets the playhead
// to 0 and the ping-pong direction to forward.
func (tl *Timeline) Play() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.state == Stopped {
		tl.playhead = 0
		tl.pingPongDir = 1
	}
	tl.state = Playing
	tl.firePlaybackChange()
}

// Record starts playback in recording state, with the same playhead
// reset rule as Play.
func (tl *Timeline) Record() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.state == Stopped {
		tl.playhead = 0
		tl.pingPongDir = 1
	}
	tl.state = Recording
	tl.firePlaybackChange()
}

// Pause suspends playback. Only Playing and Recording can pause.
func (tl *Timeline) Pause() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.state == Playing || tl.state == Recording {
		tl.state = Paused
		tl.firePlaybackChange()
	}
}

// Stop halts playback, resets the playhead to 0 and the direction to
// forward, from any state.
func (tl *Timeline) Stop() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.state = Stopped
	tl.playhead = 0
	tl.pingPongDir = 1
	tl.firePlaybackChange()
}

// TogglePlay flips Playing↔Paused; from Stopped it starts playing.
func (tl *Timeline) TogglePlay() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.state == Playing {
		tl.state = Paused
	} else {
		if tl.state == Stopped {
			tl.playhead = 0
			tl.pingPongDir = 1
		}
		tl.state = Playing
	}
	tl.firePlaybackChange()
}

func (tl *Timeline) State() State {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.state
}

func (tl *Timeline) IsPlaying() bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.state == Playing
}

func (tl *Timeline) IsRecording() bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.state == Recording
}

// ─── Playhead ───

func (tl *Timeline) Playhead() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.playhead
}

// SetPlayhead moves the playhead, clamped to [0, duration].
func (tl *Timeline) SetPlayhead(time float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.playhead = time
	tl.clampPlayhead()
}

// Advance moves the playhead by dt seconds and evaluates the attached
// interpolator and camera animator at the new time. It is a no-op unless
// Playing or Recording. Reports whether playback remains active: LoopNone
// reaching its bound clamps, evaluates one final time, stops and returns
// false.
func (tl *Timeline) Advance(dt float64) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.state != Playing && tl.state != Recording {
		return false
	}

	loopStart := 0.0
	if tl.hasLoopRegion {
		loopStart = tl.loopIn
	}
	loopEnd := tl.effectiveLoopOut()

	if tl.loopMode == PingPong {
		tl.playhead += dt * float64(tl.pingPongDir)

		if tl.playhead >= loopEnd {
			tl.playhead = loopEnd - (tl.playhead - loopEnd)
			tl.pingPongDir = -1
		} else if tl.playhead <= loopStart {
			tl.playhead = loopStart + (loopStart - tl.playhead)
			tl.pingPongDir = 1
		}
		tl.clampPlayhead()
		tl.evaluatePlayhead()
		return true
	}

	tl.playhead += dt

	if tl.playhead >= loopEnd {
		if tl.loopMode == Loop {
			overshoot := tl.playhead - loopEnd
			tl.playhead = loopStart + math.Mod(overshoot, loopEnd-loopStart)
			tl.clampPlayhead()
			tl.evaluatePlayhead()
			return true
		}

		// LoopNone: clamp to the bound and stop.
		tl.playhead = loopEnd
		tl.evaluatePlayhead()
		tl.state = Stopped
		tl.firePlaybackChange()
		return false
	}

	tl.evaluatePlayhead()
	return true
}

// ScrubTo moves the playhead directly (clamped) and fires the scrub
// callback, regardless of playback state. This is the interactive
// dragging path, decoupled from Advance.
func (tl *Timeline) ScrubTo(time float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.playhead = time
	tl.clampPlayhead()
	if tl.onScrub != nil {
		tl.onScrub(tl.playhead)
	}
}

// StepForward moves the playhead one frame ahead.
func (tl *Timeline) StepForward() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.fps <= 0 {
		return
	}
	tl.playhead += 1 / tl.fps
	tl.clampPlayhead()
}

// StepBackward moves the playhead one frame back.
func (tl *Timeline) StepBackward() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.fps <= 0 {
		return
	}
	tl.playhead -= 1 / tl.fps
	tl.clampPlayhead()
}

// ─── Duration & FPS ───

func (tl *Timeline) Duration() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.duration
}

func (tl *Timeline) SetDuration(seconds float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.duration = math.Max(0, seconds)
	if !tl.hasLoopRegion {
		tl.viewEnd = tl.duration
	}
	tl.clampPlayhead()
}

func (tl *Timeline) FPS() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.fps
}

func (tl *Timeline) SetFPS(fps float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.fps = math.Max(1, fps)
}

// FrameCount returns the number of frames spanned by the duration.
func (tl *Timeline) FrameCount() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return int(math.Ceil(tl.duration * tl.fps))
}

// CurrentFrame returns the frame index under the playhead.
func (tl *Timeline) CurrentFrame() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return int(math.Floor(tl.playhead * tl.fps))
}

// FrameToTime converts a frame index to seconds.
func (tl *Timeline) FrameToTime(frame int) float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.fps <= 0 {
		return 0
	}
	return float64(frame) / tl.fps
}

// TimeToFrame converts a time to its frame index.
func (tl *Timeline) TimeToFrame(time float64) int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return int(math.Floor(time * tl.fps))
}

// ─── Loop ───

func (tl *Timeline) LoopMode() LoopMode {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.loopMode
}

func (tl *Timeline) SetLoopMode(mode LoopMode) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.loopMode = mode
	if mode != PingPong {
		tl.pingPongDir = 1
	}
}

// LoopIn returns the loop region start, or 0 without a region.
func (tl *Timeline) LoopIn() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.hasLoopRegion {
		return tl.loopIn
	}
	return 0
}

// LoopOut returns the loop region end, or the duration without a region.
func (tl *Timeline) LoopOut() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.effectiveLoopOut()
}

// SetLoopRegion sets the loop bounds, clamped inside [0, duration] and
// forced non-empty.
func (tl *Timeline) SetLoopRegion(in, out float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.loopIn = math.Max(0, in)
	tl.loopOut = math.Min(out, tl.duration)
	if tl.loopOut <= tl.loopIn {
		tl.loopOut = tl.loopIn + 0.001
	}
	tl.hasLoopRegion = true
}

func (tl *Timeline) ClearLoopRegion() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.hasLoopRegion = false
	tl.loopIn = 0
	tl.loopOut = 0
}

// ─── Snap ───

func (tl *Timeline) SnapMode() SnapMode {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.snapMode
}

func (tl *Timeline) SetSnapMode(mode SnapMode) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.snapMode = mode
}

func (tl *Timeline) SnapInterval() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.snapInterval
}

func (tl *Timeline) SetSnapInterval(interval float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.snapInterval = math.Max(0.001, interval)
}

// SnapTime rounds time to the nearest frame boundary (SnapFrame), beat
// multiple (SnapBeat), or returns it unchanged (SnapNone).
func (tl *Timeline) SnapTime(time float64) float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	switch tl.snapMode {
	case SnapFrame:
		if tl.fps <= 0 {
			return time
		}
		frameDur := 1 / tl.fps
		return math.Round(time/frameDur) * frameDur
	case SnapBeat:
		if tl.snapInterval <= 0 {
			return time
		}
		return math.Round(time/tl.snapInterval) * tl.snapInterval
	default:
		return time
	}
}

// ─── Zoom & scroll ───

func (tl *Timeline) ViewStart() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.viewStart
}

func (tl *Timeline) ViewEnd() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.viewEnd
}

func (tl *Timeline) SetViewRange(start, end float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.viewStart = math.Max(0, start)
	tl.viewEnd = math.Max(tl.viewStart+0.01, end)
}

func (tl *Timeline) Zoom() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.zoom
}

// SetZoom sets the zoom factor in pixels per second, clamped to
// [10, 10000].
func (tl *Timeline) SetZoom(pixelsPerSecond float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.zoom = clampZoom(pixelsPerSecond)
}

// ZoomIn narrows the view window around the playhead.
func (tl *Timeline) ZoomIn() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.zoom = clampZoom(tl.zoom * 1.25)
	center := tl.playhead
	halfRange := (tl.viewEnd - tl.viewStart) * 0.5 / 1.25
	tl.viewStart = math.Max(0, center-halfRange)
	tl.viewEnd = center + halfRange
}

// ZoomOut widens the view window around its center.
func (tl *Timeline) ZoomOut() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.zoom = clampZoom(tl.zoom / 1.25)
	center := (tl.viewStart + tl.viewEnd) * 0.5
	halfRange := (tl.viewEnd - tl.viewStart) * 0.5 * 1.25
	tl.viewStart = math.Max(0, center-halfRange)
	tl.viewEnd = center + halfRange
}

// ScrollToPlayhead re-centers the view window on the playhead without
// changing its width.
func (tl *Timeline) ScrollToPlayhead() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	r := tl.viewEnd - tl.viewStart
	tl.viewStart = math.Max(0, tl.playhead-r*0.5)
	tl.viewEnd = tl.viewStart + r
}

// ─── Callbacks ───

func (tl *Timeline) SetOnPlaybackChange(fn PlaybackFunc) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.onPlaybackChange = fn
}

func (tl *Timeline) SetOnScrub(fn ScrubFunc) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.onScrub = fn
}

func (tl *Timeline) SetOnKeyframeAdded(fn KeyframeFunc) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.onKeyframeAdded = fn
}

func (tl *Timeline) SetOnKeyframeRemoved(fn KeyframeFunc) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.onKeyframeRemoved = fn
}

func (tl *Timeline) SetOnSelectionChange(fn SelectionFunc) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.onSelectionChange = fn
}

// ─── Interpolator / camera integration ───

// SetInterpolator attaches the channel orchestrator that Advance drives.
func (tl *Timeline) SetInterpolator(ip *animator.Interpolator) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.interp = ip
}

func (tl *Timeline) Interpolator() *animator.Interpolator {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.interp
}

// SetCameraAnimator attaches a camera path animator that Advance drives.
func (tl *Timeline) SetCameraAnimator(anim *camerapath.Animator) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.cameraAnim = anim
}

func (tl *Timeline) CameraAnimator() *camerapath.Animator {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.cameraAnim
}

// EvaluateAtPlayhead evaluates the attached interpolator and camera
// animator at the current playhead time, regardless of playback state.
func (tl *Timeline) EvaluateAtPlayhead() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.evaluatePlayhead()
}

// ─── internals (callers hold tl.mu) ───

func (tl *Timeline) effectiveLoopOut() float64 {
	if tl.hasLoopRegion && tl.loopOut > tl.loopIn {
		return tl.loopOut
	}
	return tl.duration
}

func (tl *Timeline) clampPlayhead() {
	if tl.playhead < 0 {
		tl.playhead = 0
	}
	if tl.playhead > tl.duration {
		tl.playhead = tl.duration
	}
}

func (tl *Timeline) evaluatePlayhead() {
	if tl.interp != nil {
		tl.interp.Evaluate(tl.playhead)
	}
	if tl.cameraAnim != nil {
		tl.cameraAnim.EvaluateAt(tl.playhead)
	}
}

func (tl *Timeline) firePlaybackChange() {
	if tl.onPlaybackChange != nil {
		tl.onPlaybackChange(tl.state)
	}
}

func clampZoom(z float64) float64 {
	if z < 10 {
		return 10
	}
	if z > 10000 {
		return 10000
	}
	return z
}
