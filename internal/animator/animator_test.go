package animator

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ivlev/animkit/internal/curve"
	"github.com/ivlev/animkit/internal/scene"
)

func newRampChannel(ip *Interpolator, name string, from, to, duration float64) uint32 {
	id := ip.AddChannel(name, from)
	ip.AddKeyframe(id, curve.NewKeyframe(0, from, curve.Linear))
	ip.AddKeyframe(id, curve.NewKeyframe(duration, to, curve.Linear))
	return id
}

func TestChannelIDsAreMonotonic(t *testing.T) {
	ip := New()
	a := ip.AddChannel("a", 0)
	b := ip.AddChannel("b", 0)
	if a != 1 || b != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", a, b)
	}

	ip.RemoveChannel(a)
	c := ip.AddChannel("c", 0)
	if c != 3 {
		t.Errorf("ids are never reused, got %d", c)
	}
}

func TestAddChannelWithIDAdvancesGenerator(t *testing.T) {
	ip := New()
	ip.AddChannelWithID(7, "explicit", 0)
	if next := ip.AddChannel("after", 0); next != 8 {
		t.Errorf("generator should advance past explicit id, got %d", next)
	}
}

func TestScalarBinding(t *testing.T) {
	ip := New()
	id := newRampChannel(ip, "x", 0, 10, 1)

	var target float64
	ip.Bind(id, "pos.x", &target, 2, 1) // value*2 + 1

	ip.Evaluate(0.5)
	if math.Abs(target-11) > 1e-9 {
		t.Errorf("target = %v, want 11 (5*2+1)", target)
	}
}

func TestColorBindingClampsAlpha(t *testing.T) {
	ip := New()
	id := newRampChannel(ip, "fade", -1, 2, 1)

	col := scene.Color{R: 1, G: 0, B: 0, A: 1}
	ip.BindColor(id, "tint", &col)

	ip.Evaluate(0) // value -1
	if col.A != 0 {
		t.Errorf("alpha should clamp to 0, got %v", col.A)
	}
	ip.Evaluate(1) // value 2
	if col.A != 1 {
		t.Errorf("alpha should clamp to 1, got %v", col.A)
	}
	if col.R != 1 || col.G != 0 || col.B != 0 {
		t.Errorf("binding must only write the alpha channel, got %+v", col)
	}
}

func TestCallbackBinding(t *testing.T) {
	ip := New()
	id := newRampChannel(ip, "v", 0, 10, 1)

	var got float64
	ip.BindCallback(id, "observer", func(v float64) { got = v }, 1, 0)

	ip.Evaluate(0.25)
	if math.Abs(got-2.5) > 1e-9 {
		t.Errorf("callback received %v, want 2.5", got)
	}
}

func TestRemoveChannelCascadesBindings(t *testing.T) {
	ip := New()
	id := newRampChannel(ip, "v", 0, 10, 1)

	var target float64
	ip.Bind(id, "t", &target, 1, 0)
	ip.RemoveChannel(id)

	if n := len(ip.Bindings()); n != 0 {
		t.Errorf("bindings referencing a removed channel must go with it, %d left", n)
	}
}

func TestCameraBinding(t *testing.T) {
	ip := New()
	azID := newRampChannel(ip, "cam.az", 0, 180, 2)
	distID := newRampChannel(ip, "cam.dist", 5, 10, 2)

	cam := scene.DefaultCamera()
	ip.BindCamera(&cam, azID, 0, distID, 0)

	ip.Evaluate(1)
	if math.Abs(cam.Azimuth-90) > 1e-9 {
		t.Errorf("azimuth = %v, want 90", cam.Azimuth)
	}
	if math.Abs(cam.Distance-7.5) > 1e-9 {
		t.Errorf("distance = %v, want 7.5", cam.Distance)
	}

	// Position must be recomputed from the orbit parameters.
	want := cam.Target.Add(scene.Vec3{
		X: cam.Distance * math.Cos(scene.DegToRad(cam.Elevation)) * math.Cos(scene.DegToRad(cam.Azimuth)),
		Y: cam.Distance * math.Sin(scene.DegToRad(cam.Elevation)),
		Z: cam.Distance * math.Cos(scene.DegToRad(cam.Elevation)) * math.Sin(scene.DegToRad(cam.Azimuth)),
	})
	if math.Abs(cam.Position.X-want.X) > 1e-9 || math.Abs(cam.Position.Y-want.Y) > 1e-9 || math.Abs(cam.Position.Z-want.Z) > 1e-9 {
		t.Errorf("position = %+v, want %+v", cam.Position, want)
	}
}

func TestEvaluateChannelIsReadOnly(t *testing.T) {
	ip := New()
	id := newRampChannel(ip, "v", 0, 10, 1)

	var target float64
	ip.Bind(id, "t", &target, 1, 0)

	if got := ip.EvaluateChannel(id, 0.5); math.Abs(got-5) > 1e-9 {
		t.Errorf("EvaluateChannel = %v, want 5", got)
	}
	if target != 0 {
		t.Errorf("EvaluateChannel must not drive bindings, target = %v", target)
	}

	if got := ip.EvaluateChannel(999, 0.5); got != 0 {
		t.Errorf("unknown channel should evaluate to 0, got %v", got)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	ip := New()
	id := ip.AddChannel("opacity", 1)
	ip.AddKeyframe(id, curve.NewKeyframe(0, 0, curve.CubicBezier))
	ip.AddKeyframe(id, curve.NewKeyframe(1, 1, curve.Spring))
	ip.AddChannel("empty", 0.5)

	data, err := ip.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	for _, field := range []string{`"channels"`, `"id"`, `"name"`, `"default"`, `"t"`, `"v"`, `"i"`, `"tm"`, `"it"`, `"ot"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("document missing field %s: %s", field, data)
		}
	}

	clone := New()
	if err := clone.Deserialize(data); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if clone.ChannelCount() != ip.ChannelCount() {
		t.Fatalf("channel count = %d, want %d", clone.ChannelCount(), ip.ChannelCount())
	}
	got := clone.Channel(id)
	if got == nil {
		t.Fatal("channel id not preserved")
	}
	if diff := cmp.Diff(ip.Channel(id).Keyframes(), got.Keyframes()); diff != "" {
		t.Errorf("keyframes mismatch (-want +got):\n%s", diff)
	}
	if got.Name() != "opacity" || got.DefaultValue() != 1 {
		t.Errorf("channel metadata lost: name=%q default=%v", got.Name(), got.DefaultValue())
	}

	// The id generator must not collide with restored channels.
	if next := clone.AddChannel("new", 0); next <= 2 {
		t.Errorf("next id = %d, want > 2", next)
	}
}

func TestDeserializeFailureLeavesStateUntouched(t *testing.T) {
	ip := New()
	id := newRampChannel(ip, "keep", 0, 1, 1)

	cases := map[string]string{
		"malformed json":  `{"channels":[`,
		"missing section": `{"other":[]}`,
	}
	for name, input := range cases {
		if err := ip.Deserialize([]byte(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
		if ip.ChannelCount() != 1 || ip.Channel(id) == nil {
			t.Errorf("%s: state was mutated on failure", name)
		}
	}
}

func TestDeserializeClearsBindings(t *testing.T) {
	ip := New()
	id := newRampChannel(ip, "v", 0, 1, 1)
	var target float64
	ip.Bind(id, "t", &target, 1, 0)

	data, err := ip.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := ip.Deserialize(data); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if n := len(ip.Bindings()); n != 0 {
		t.Errorf("bindings must be cleared on load, %d left", n)
	}
}

func TestDuration(t *testing.T) {
	ip := New()
	newRampChannel(ip, "a", 0, 1, 2)
	newRampChannel(ip, "b", 0, 1, 5)

	if got := ip.Duration(); got != 5 {
		t.Errorf("Duration = %v, want 5", got)
	}
	if got := ip.TotalKeyframeCount(); got != 4 {
		t.Errorf("TotalKeyframeCount = %v, want 4", got)
	}
}
