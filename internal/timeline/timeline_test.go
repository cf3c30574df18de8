package timeline

import (
	"math"
	"testing"

	"github.com/ivlev/animkit/internal/animator"
	"github.com/ivlev/animkit/internal/camerapath"
	"github.com/ivlev/animkit/internal/curve"
	"github.com/ivlev/animkit/internal/scene"
)

func newShortTimeline(dur float64, mode LoopMode) *Timeline {
	tl := New()
	tl.SetDuration(dur)
	tl.SetLoopMode(mode)
	return tl
}

func TestPlaybackStateMachine(t *testing.T) {
	tl := New()

	if tl.State() != Stopped {
		t.Fatalf("initial state = %v, want Stopped", tl.State())
	}

	// Pause from Stopped is ignored.
	tl.Pause()
	if tl.State() != Stopped {
		t.Errorf("pause from stopped should be ignored, got %v", tl.State())
	}

	tl.Play()
	if tl.State() != Playing {
		t.Errorf("state = %v, want Playing", tl.State())
	}

	tl.Pause()
	if tl.State() != Paused {
		t.Errorf("state = %v, want Paused", tl.State())
	}

	// Resuming from Paused must not reset the playhead.
	tl.SetPlayhead(3)
	tl.Play()
	if tl.Playhead() != 3 {
		t.Errorf("resume reset the playhead to %v", tl.Playhead())
	}

	tl.Stop()
	if tl.State() != Stopped || tl.Playhead() != 0 {
		t.Errorf("stop should reset: state=%v playhead=%v", tl.State(), tl.Playhead())
	}

	// Play from Stopped resets the playhead.
	tl.SetPlayhead(5)
	tl.Play()
	if tl.Playhead() != 0 {
		t.Errorf("play from stopped should reset playhead, got %v", tl.Playhead())
	}
}

func TestTogglePlay(t *testing.T) {
	tl := New()
	tl.TogglePlay()
	if tl.State() != Playing {
		t.Fatalf("toggle from stopped = %v, want Playing", tl.State())
	}
	tl.TogglePlay()
	if tl.State() != Paused {
		t.Fatalf("toggle from playing = %v, want Paused", tl.State())
	}
	tl.TogglePlay()
	if tl.State() != Playing {
		t.Fatalf("toggle from paused = %v, want Playing", tl.State())
	}
}

func TestAdvanceRequiresPlayback(t *testing.T) {
	tl := New()
	if tl.Advance(0.1) {
		t.Error("advance while stopped should return false")
	}
	if tl.Playhead() != 0 {
		t.Errorf("advance while stopped moved the playhead to %v", tl.Playhead())
	}
}

func TestAdvanceLoopNoneStopsAtEnd(t *testing.T) {
	tl := newShortTimeline(1, LoopNone)
	tl.Play()

	if !tl.Advance(0.5) {
		t.Fatal("mid-range advance should return true")
	}
	if tl.Advance(0.7) {
		t.Fatal("advance past the end should return false")
	}
	if tl.State() != Stopped {
		t.Errorf("state = %v, want Stopped", tl.State())
	}
}

func TestAdvanceLoopWraps(t *testing.T) {
	tl := newShortTimeline(2, Loop)
	tl.Play()

	tl.Advance(1.5)
	if !tl.Advance(1.0) {
		t.Fatal("looping advance should return true")
	}
	if got := tl.Playhead(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("playhead = %v, want 0.5 (wrapped)", got)
	}
	if tl.State() != Playing {
		t.Errorf("state = %v, want Playing", tl.State())
	}
}

func TestAdvancePingPongReflects(t *testing.T) {
	tl := newShortTimeline(2, PingPong)
	tl.Play()

	tl.Advance(1.8)
	tl.Advance(0.5) // 2.3 reflects to 1.7, direction flips
	if got := tl.Playhead(); math.Abs(got-1.7) > 1e-9 {
		t.Errorf("playhead = %v, want 1.7", got)
	}

	tl.Advance(0.5) // backward to 1.2
	if got := tl.Playhead(); math.Abs(got-1.2) > 1e-9 {
		t.Errorf("playhead = %v, want 1.2 (moving backward)", got)
	}

	tl.Advance(1.5) // -0.3 reflects to 0.3, direction flips forward
	if got := tl.Playhead(); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("playhead = %v, want 0.3 (reflected at start)", got)
	}
}

func TestAdvanceRespectsLoopRegion(t *testing.T) {
	tl := newShortTimeline(10, Loop)
	tl.SetLoopRegion(2, 4)
	tl.Play()
	tl.SetPlayhead(3.5)

	tl.Advance(1.0) // 4.5 wraps into [2,4): 2 + 0.5
	if got := tl.Playhead(); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("playhead = %v, want 2.5", got)
	}
}

func TestAdvanceEvaluatesInterpolator(t *testing.T) {
	tl := newShortTimeline(1, LoopNone)
	ip := animator.New()
	id := ip.AddChannel("x", 0)
	ip.AddKeyframe(id, curve.NewKeyframe(0, 0, curve.Linear))
	ip.AddKeyframe(id, curve.NewKeyframe(1, 10, curve.Linear))

	var target float64
	ip.Bind(id, "x", &target, 1, 0)
	tl.SetInterpolator(ip)

	anim := camerapath.New()
	cam := scene.DefaultCamera()
	start := scene.DefaultCamera()
	start.Azimuth = 0
	end := scene.DefaultCamera()
	end.Azimuth = 180
	anim.AddKeyframe(0, start)
	anim.AddKeyframe(1, end)
	anim.SetTargetCamera(&cam)
	tl.SetCameraAnimator(anim)

	tl.Play()
	tl.Advance(0.5)

	if math.Abs(target-5) > 1e-9 {
		t.Errorf("bound target = %v, want 5", target)
	}
	if math.Abs(cam.Azimuth-90) > 1e-9 {
		t.Errorf("camera azimuth = %v, want 90", cam.Azimuth)
	}
}

func TestScrubFiresCallback(t *testing.T) {
	tl := New()
	var scrubbed float64
	tl.SetOnScrub(func(time float64) { scrubbed = time })

	tl.ScrubTo(4.5)
	if scrubbed != 4.5 {
		t.Errorf("scrub callback got %v, want 4.5", scrubbed)
	}

	// Clamped before the callback fires.
	tl.ScrubTo(99)
	if scrubbed != tl.Duration() {
		t.Errorf("scrub callback got %v, want clamped %v", scrubbed, tl.Duration())
	}
}

func TestStepForwardBackward(t *testing.T) {
	tl := New() // 60 fps
	tl.StepForward()
	if got := tl.Playhead(); math.Abs(got-1.0/60) > 1e-12 {
		t.Errorf("playhead = %v, want one frame", got)
	}
	tl.StepBackward()
	tl.StepBackward() // clamps at 0
	if tl.Playhead() != 0 {
		t.Errorf("playhead = %v, want 0", tl.Playhead())
	}
}

func TestSnapTime(t *testing.T) {
	tl := New()
	tl.SetFPS(10)

	tl.SetSnapMode(SnapFrame)
	if got := tl.SnapTime(0.26); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("frame snap = %v, want 0.3", got)
	}

	tl.SetSnapMode(SnapBeat)
	tl.SetSnapInterval(0.5)
	if got := tl.SnapTime(1.3); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("beat snap = %v, want 1.5", got)
	}

	tl.SetSnapMode(SnapNone)
	if got := tl.SnapTime(0.26); got != 0.26 {
		t.Errorf("none snap = %v, want input unchanged", got)
	}
}

func TestFrameConversions(t *testing.T) {
	tl := New()
	tl.SetFPS(30)
	tl.SetDuration(2)

	if got := tl.FrameCount(); got != 60 {
		t.Errorf("FrameCount = %d, want 60", got)
	}
	if got := tl.FrameToTime(15); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("FrameToTime(15) = %v, want 0.5", got)
	}
	if got := tl.TimeToFrame(0.5); got != 15 {
		t.Errorf("TimeToFrame(0.5) = %d, want 15", got)
	}
	tl.SetPlayhead(1)
	if got := tl.CurrentFrame(); got != 30 {
		t.Errorf("CurrentFrame = %d, want 30", got)
	}
}

func TestTrackKeyframeRules(t *testing.T) {
	tl := New()
	id := tl.AddTrack("opacity", scene.Cyan)

	tl.AddKeyframe(id, 1)
	tl.AddKeyframe(id, 1) // duplicate: silently rejected
	tl.AddKeyframe(id, 0.5)

	tr, ok := tl.Track(id)
	if !ok {
		t.Fatal("track not found")
	}
	if len(tr.Keyframes) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(tr.Keyframes))
	}
	if tr.Keyframes[0].Time != 0.5 {
		t.Errorf("markers should stay time-sorted, first = %v", tr.Keyframes[0].Time)
	}

	tl.SetTrackLocked(id, true)
	tl.AddKeyframe(id, 2)
	tl.RemoveKeyframe(id, 1)
	tr, _ = tl.Track(id)
	if len(tr.Keyframes) != 2 {
		t.Errorf("locked track must reject edits, got %d markers", len(tr.Keyframes))
	}
}

func TestMoveKeyframeClamps(t *testing.T) {
	tl := New()
	id := tl.AddTrack("t", scene.White)
	tl.AddKeyframe(id, 5)

	tl.MoveKeyframe(id, 5, 99)
	tr, _ := tl.Track(id)
	if tr.Keyframes[0].Time != tl.Duration() {
		t.Errorf("moved marker = %v, want clamped to %v", tr.Keyframes[0].Time, tl.Duration())
	}
}

func TestSelection(t *testing.T) {
	tl := New()
	a := tl.AddTrack("a", scene.Cyan)
	b := tl.AddTrack("b", scene.Magenta)
	tl.AddKeyframe(a, 1)
	tl.AddKeyframe(a, 2)
	tl.AddKeyframe(b, 3)

	var notified int
	tl.SetOnSelectionChange(func(sel []*Marker) { notified = len(sel) })

	tl.SelectRange(1.5, 3.5)
	if tl.SelectedCount() != 2 {
		t.Errorf("SelectedCount = %d, want 2", tl.SelectedCount())
	}
	if notified != 2 {
		t.Errorf("selection callback got %d markers, want 2", notified)
	}

	tl.SelectAll()
	if tl.SelectedCount() != 3 {
		t.Errorf("SelectedCount after SelectAll = %d, want 3", tl.SelectedCount())
	}

	// Locked tracks keep their markers through a selected delete.
	tl.SetTrackLocked(b, true)
	tl.DeleteSelected()
	if tl.TotalKeyframeCount() != 1 {
		t.Errorf("TotalKeyframeCount = %d, want 1 (locked survivor)", tl.TotalKeyframeCount())
	}

	tl.DeselectAll()
	if tl.SelectedCount() != 0 {
		t.Errorf("SelectedCount after DeselectAll = %d", tl.SelectedCount())
	}
}

func TestAnimatedTrackSharesID(t *testing.T) {
	tl := New()
	ip := animator.New()
	tl.SetInterpolator(ip)

	id := tl.AddAnimatedTrack("scale", 1, scene.Yellow)
	if id == 0 {
		t.Fatal("animated track id should be non-zero")
	}
	if ip.Channel(id) == nil {
		t.Fatal("interpolator channel must share the track id")
	}

	tl.AddAnimatedKeyframe(id, 1, 2.5, curve.Linear)
	tr, _ := tl.Track(id)
	if len(tr.Keyframes) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(tr.Keyframes))
	}
	if got := ip.EvaluateChannel(id, 1); got != 2.5 {
		t.Errorf("channel value = %v, want 2.5", got)
	}
}

func TestAddAnimatedTrackWithoutInterpolator(t *testing.T) {
	tl := New()
	if id := tl.AddAnimatedTrack("x", 0, scene.White); id != 0 {
		t.Errorf("without interpolator id = %d, want 0", id)
	}
}

func TestZoomClamps(t *testing.T) {
	tl := New()
	tl.SetZoom(5)
	if tl.Zoom() != 10 {
		t.Errorf("zoom = %v, want clamped to 10", tl.Zoom())
	}
	tl.SetZoom(50000)
	if tl.Zoom() != 10000 {
		t.Errorf("zoom = %v, want clamped to 10000", tl.Zoom())
	}
}

func TestZoomInNarrowsAroundPlayhead(t *testing.T) {
	tl := New()
	tl.SetPlayhead(5)
	before := tl.ViewEnd() - tl.ViewStart()

	tl.ZoomIn()
	after := tl.ViewEnd() - tl.ViewStart()
	if after >= before {
		t.Errorf("zoom in should narrow the view: %v -> %v", before, after)
	}
	center := (tl.ViewStart() + tl.ViewEnd()) / 2
	if math.Abs(center-5) > 1e-9 {
		t.Errorf("view center = %v, want playhead 5", center)
	}
}

func TestLoopRegionValidation(t *testing.T) {
	tl := New()
	tl.SetLoopRegion(4, 4) // empty region gets forced open
	if tl.LoopOut() <= tl.LoopIn() {
		t.Errorf("loop region must be non-empty: [%v, %v]", tl.LoopIn(), tl.LoopOut())
	}

	tl.ClearLoopRegion()
	if tl.LoopIn() != 0 || tl.LoopOut() != tl.Duration() {
		t.Errorf("cleared region should span the timeline, got [%v, %v]", tl.LoopIn(), tl.LoopOut())
	}
}

func TestPlaybackCallback(t *testing.T) {
	tl := New()
	var states []State
	tl.SetOnPlaybackChange(func(s State) { states = append(states, s) })

	tl.Play()
	tl.Pause()
	tl.Stop()

	want := []State{Playing, Paused, Stopped}
	if len(states) != len(want) {
		t.Fatalf("callback fired %d times, want %d", len(states), len(want))
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	tl := New()
	tl.SetDuration(8)
	tl.SetFPS(24)
	tl.SetLoopMode(PingPong)
	tl.SetSnapMode(SnapBeat)
	tl.SetSnapInterval(0.25)
	tl.SetLoopRegion(1, 6)

	ip := animator.New()
	tl.SetInterpolator(ip)
	id := tl.AddAnimatedTrack("x", 0, scene.Cyan)
	tl.AddAnimatedKeyframe(id, 2, 7, curve.Linear)

	data, err := tl.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	clone := New()
	cloneIP := animator.New()
	clone.SetInterpolator(cloneIP)
	if err := clone.Deserialize(data); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if clone.Duration() != 8 || clone.FPS() != 24 {
		t.Errorf("duration/fps = %v/%v, want 8/24", clone.Duration(), clone.FPS())
	}
	if clone.LoopMode() != PingPong || clone.SnapMode() != SnapBeat {
		t.Errorf("loop/snap = %v/%v", clone.LoopMode(), clone.SnapMode())
	}
	if clone.LoopIn() != 1 || clone.LoopOut() != 6 {
		t.Errorf("loop region = [%v, %v], want [1, 6]", clone.LoopIn(), clone.LoopOut())
	}
	tr, ok := clone.Track(id)
	if !ok {
		t.Fatal("track id not preserved")
	}
	if len(tr.Keyframes) != 1 || tr.Keyframes[0].Time != 2 {
		t.Errorf("track markers = %+v", tr.Keyframes)
	}
	if got := cloneIP.EvaluateChannel(id, 2); got != 7 {
		t.Errorf("embedded interpolator lost: value = %v, want 7", got)
	}

	// New tracks must not collide with restored ids.
	if next := clone.AddTrack("new", scene.White); next <= id {
		t.Errorf("next track id = %d, want > %d", next, id)
	}
}

func TestDeserializeWithoutLoopRegion(t *testing.T) {
	tl := New()
	if err := tl.Deserialize([]byte(`{"duration":4,"fps":30,"loop_mode":1,"snap_mode":0,"snap_interval":0.1,"tracks":[]}`)); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if tl.LoopOut() != 4 {
		t.Errorf("without a region the loop spans the timeline, LoopOut = %v", tl.LoopOut())
	}
}

func TestDeserializeFailureLeavesStateUntouched(t *testing.T) {
	tl := New()
	tl.SetDuration(7)
	id := tl.AddTrack("keep", scene.Cyan)
	tl.AddKeyframe(id, 1)

	if err := tl.Deserialize([]byte(`{"duration":`)); err == nil {
		t.Fatal("expected error")
	}
	if tl.Duration() != 7 || tl.TotalKeyframeCount() != 1 {
		t.Error("state was mutated on failure")
	}
}
