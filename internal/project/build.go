package project

import (
	"fmt"

	"github.com/ivlev/animkit/internal/animator"
	"github.com/ivlev/animkit/internal/camerapath"
	"github.com/ivlev/animkit/internal/curve"
	"github.com/ivlev/animkit/internal/scene"
	"github.com/ivlev/animkit/internal/timeline"
)

// Rig bundles the runtime objects built from a project document.
type Rig struct {
	Timeline   *timeline.Timeline
	Interp     *animator.Interpolator
	CameraAnim *camerapath.Animator
	Camera     *scene.Camera
}

var trackPalette = []scene.Color{
	scene.Cyan,
	scene.Magenta,
	scene.Yellow,
	scene.Orange,
	scene.White,
}

// Build converts the authored document into a wired timeline: one
// animated track per channel (track id shared with the interpolator
// channel), the camera path if present, and a camera the path drives.
func (p *Project) Build() (*Rig, error) {
	if p.Duration <= 0 {
		return nil, fmt.Errorf("project %q: duration must be positive, got %g", p.Name, p.Duration)
	}

	rig := &Rig{
		Timeline: timeline.New(),
		Interp:   animator.New(),
	}
	rig.Timeline.SetInterpolator(rig.Interp)
	rig.Timeline.SetDuration(p.Duration)
	if p.FPS > 0 {
		rig.Timeline.SetFPS(p.FPS)
	}

	loopMode, err := parseLoopMode(p.LoopMode)
	if err != nil {
		return nil, err
	}
	rig.Timeline.SetLoopMode(loopMode)

	for i, ch := range p.Channels {
		color := trackPalette[i%len(trackPalette)]
		id := rig.Timeline.AddAnimatedTrack(ch.Name, ch.Default, color)
		for _, kf := range ch.Keyframes {
			mode, err := parseInterp(kf.Interp)
			if err != nil {
				return nil, fmt.Errorf("channel %q: %w", ch.Name, err)
			}
			rig.Timeline.AddAnimatedKeyframe(id, kf.Time, kf.Value, mode)
		}
	}
	rig.Interp.ComputeAllAutoTangents()

	if p.CameraPath != nil {
		anim, cam, err := buildCameraPath(p.CameraPath)
		if err != nil {
			return nil, err
		}
		rig.CameraAnim = anim
		rig.Camera = cam
		rig.Timeline.SetCameraAnimator(anim)
	}

	return rig, nil
}

func buildCameraPath(cp *CameraPath) (*camerapath.Animator, *scene.Camera, error) {
	mode, err := parsePathMode(cp.Mode)
	if err != nil {
		return nil, nil, err
	}

	anim := camerapath.New()
	anim.SetPathMode(mode)

	for _, kf := range cp.Keyframes {
		cam := scene.DefaultCamera()
		cam.Azimuth = kf.Azimuth
		cam.Elevation = kf.Elevation
		if kf.Distance > 0 {
			cam.Distance = kf.Distance
		}
		if kf.FOV > 0 {
			cam.FOV = kf.FOV
		}
		if v, ok := asVec3(kf.Target); ok {
			cam.Target = v
		}
		if v, ok := asVec3(kf.Position); ok {
			cam.Position = v
		} else {
			cam.UpdatePositionFromOrbit()
		}
		anim.AddKeyframe(kf.Time, cam)
	}

	cam := scene.DefaultCamera()
	anim.SetTargetCamera(&cam)
	return anim, &cam, nil
}

func asVec3(v []float64) (scene.Vec3, bool) {
	if len(v) != 3 {
		return scene.Vec3{}, false
	}
	return scene.Vec3{X: v[0], Y: v[1], Z: v[2]}, true
}

func parseInterp(s string) (curve.InterpMode, error) {
	switch s {
	case "", "linear":
		return curve.Linear, nil
	case "step":
		return curve.Step, nil
	case "bezier":
		return curve.CubicBezier, nil
	case "spring":
		return curve.Spring, nil
	case "ease_in":
		return curve.EaseIn, nil
	case "ease_out":
		return curve.EaseOut, nil
	case "ease_in_out":
		return curve.EaseInOut, nil
	}
	return 0, fmt.Errorf("unknown interpolation mode %q", s)
}

func parseLoopMode(s string) (timeline.LoopMode, error) {
	switch s {
	case "", "none":
		return timeline.LoopNone, nil
	case "loop":
		return timeline.Loop, nil
	case "pingpong":
		return timeline.PingPong, nil
	}
	return 0, fmt.Errorf("unknown loop mode %q", s)
}

func parsePathMode(s string) (camerapath.PathMode, error) {
	switch s {
	case "", "orbit":
		return camerapath.Orbit, nil
	case "free_flight":
		return camerapath.FreeFlight, nil
	}
	return 0, fmt.Errorf("unknown camera path mode %q", s)
}
