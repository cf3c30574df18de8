package project

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleProject() *Project {
	return &Project{
		Version:  "1",
		Name:     "demo",
		Duration: 4,
		FPS:      30,
		LoopMode: "loop",
		Channels: []Channel{
			{
				Name:    "opacity",
				Default: 1,
				Keyframes: []Keyframe{
					{Time: 0, Value: 0, Interp: "ease_in"},
					{Time: 2, Value: 1, Interp: "linear"},
				},
			},
			{
				Name:    "scale",
				Default: 1,
				Keyframes: []Keyframe{
					{Time: 0, Value: 1, Interp: "spring"},
					{Time: 4, Value: 2},
				},
			},
		},
		CameraPath: &CameraPath{
			Mode: "orbit",
			Keyframes: []CameraKeyframe{
				{Time: 0, Azimuth: 0, Elevation: 30, Distance: 5},
				{Time: 4, Azimuth: 180, Elevation: 30, Distance: 5},
			},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	want := sampleProject()

	if err := Write(want, path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild(t *testing.T) {
	rig, err := sampleProject().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := rig.Timeline.Duration(); got != 4 {
		t.Errorf("duration = %v, want 4", got)
	}
	if got := rig.Timeline.FPS(); got != 30 {
		t.Errorf("fps = %v, want 30", got)
	}
	if got := rig.Interp.ChannelCount(); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
	if got := rig.Timeline.TrackCount(); got != 2 {
		t.Errorf("tracks = %d, want 2", got)
	}

	// Tracks and channels share ids.
	for _, tr := range rig.Timeline.Tracks() {
		if rig.Interp.Channel(tr.ID) == nil {
			t.Errorf("track %d has no matching channel", tr.ID)
		}
	}

	// The camera path drives the rig camera through the timeline.
	if rig.CameraAnim == nil || rig.Camera == nil {
		t.Fatal("camera path was not built")
	}
	rig.Timeline.Play()
	rig.Timeline.Advance(2)
	if math.Abs(rig.Camera.Azimuth-90) > 1e-9 {
		t.Errorf("camera azimuth after half the move = %v, want 90", rig.Camera.Azimuth)
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	p := sampleProject()
	p.Duration = 0
	if _, err := p.Build(); err == nil {
		t.Error("zero duration should fail")
	}

	p = sampleProject()
	p.Channels[0].Keyframes[0].Interp = "bounce"
	if _, err := p.Build(); err == nil {
		t.Error("unknown interp mode should fail")
	}

	p = sampleProject()
	p.LoopMode = "forever"
	if _, err := p.Build(); err == nil {
		t.Error("unknown loop mode should fail")
	}

	p = sampleProject()
	p.CameraPath.Mode = "dolly"
	if _, err := p.Build(); err == nil {
		t.Error("unknown path mode should fail")
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindLatest(dir); err == nil {
		t.Error("empty directory should fail")
	}

	older := filepath.Join(dir, "a.yaml")
	newer := filepath.Join(dir, "b.yaml")
	if err := Write(sampleProject(), older); err != nil {
		t.Fatal(err)
	}
	if err := Write(sampleProject(), newer); err != nil {
		t.Fatal(err)
	}

	got, err := FindLatest(dir)
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if got != older && got != newer {
		t.Errorf("FindLatest = %q, want a file from the directory", got)
	}
}
