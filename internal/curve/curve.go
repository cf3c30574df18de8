// Package curve implements single-property keyframe curves: a time-sorted
// sequence of typed keyframes with per-segment interpolation kernels and
// automatic tangent computation.
package curve

import (
	"math"
	"sort"
	"sync"
)

// TimeTolerance is the window within which two keyframe times are
// considered the same instant. Adding a keyframe inside the window of an
// existing one updates it in place instead of creating a duplicate.
const TimeTolerance = 0.001

// InterpMode selects the interpolation kernel for the segment starting at
// a keyframe.
type InterpMode uint8

const (
	Step        InterpMode = iota // Hold previous value until next keyframe
	Linear                        // Linear interpolation
	CubicBezier                   // Cubic bezier with tangent handles
	Spring                        // Damped-spring overshoot interpolation
	EaseIn                        // Quadratic ease-in
	EaseOut                       // Quadratic ease-out
	EaseInOut                     // Piecewise quadratic ease-in-out
)

func (m InterpMode) String() string {
	switch m {
	case Step:
		return "Step"
	case Linear:
		return "Linear"
	case CubicBezier:
		return "CubicBezier"
	case Spring:
		return "Spring"
	case EaseIn:
		return "EaseIn"
	case EaseOut:
		return "EaseOut"
	case EaseInOut:
		return "EaseInOut"
	}
	return "Unknown"
}

// TangentMode controls how a keyframe's in/out tangent handles relate.
type TangentMode uint8

const (
	Free    TangentMode = iota // Handles are independent
	Aligned                    // Handles are kept co-linear
	Flat                       // Both handles are zeroed
	Auto                       // Catmull-Rom style, recomputed on edits
)

func (m TangentMode) String() string {
	switch m {
	case Free:
		return "Free"
	case Aligned:
		return "Aligned"
	case Flat:
		return "Flat"
	case Auto:
		return "Auto"
	}
	return "Unknown"
}

// Tangent is a handle offset relative to its keyframe: DT in seconds,
// DV in value units. In-handles carry DT <= 0, out-handles DT >= 0.
type Tangent struct {
	DT float64
	DV float64
}

func (t Tangent) length() float64 {
	return math.Hypot(t.DT, t.DV)
}

// Keyframe is a (time, value) sample with its interpolation settings.
type Keyframe struct {
	Time        float64
	Value       float64
	Interp      InterpMode
	TangentMode TangentMode
	In          Tangent
	Out         Tangent
	Selected    bool
}

// NewKeyframe returns a keyframe with the default Auto tangent mode.
func NewKeyframe(time, value float64, interp InterpMode) Keyframe {
	return Keyframe{Time: time, Value: value, Interp: interp, TangentMode: Auto}
}

// Curve is one animated scalar property: a named, time-sorted keyframe
// sequence. An empty curve evaluates to its default value.
//
// All exported methods lock an internal mutex; a Curve may be shared
// between an editing thread and a playback thread.
type Curve struct {
	mu sync.Mutex

	name         string
	defaultValue float64
	minValue     float64
	maxValue     float64
	hasRange     bool

	keyframes []Keyframe // always sorted by time ascending
}

// New creates an empty curve with the given name and default value.
func New(name string, defaultValue float64) *Curve {
	return &Curve{name: name, defaultValue: defaultValue}
}

func (c *Curve) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Curve) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *Curve) DefaultValue() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultValue
}

func (c *Curve) SetDefaultValue(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultValue = v
}

// SetValueRange stores an advisory [min,max] display range for editors.
func (c *Curve) SetValueRange(minVal, maxVal float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minValue = minVal
	c.maxValue = maxVal
	c.hasRange = true
}

// ValueRange reports the display range and whether one has been set.
func (c *Curve) ValueRange() (minVal, maxVal float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minValue, c.maxValue, c.hasRange
}

// Add inserts a keyframe. If one already exists at the same time (within
// TimeTolerance) its value, interpolation and tangents are updated in
// place: a last-writer-wins upsert, never an error.
func (c *Curve) Add(kf Keyframe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.keyframes {
		if math.Abs(c.keyframes[i].Time-kf.Time) < TimeTolerance {
			c.keyframes[i].Value = kf.Value
			c.keyframes[i].Interp = kf.Interp
			c.keyframes[i].TangentMode = kf.TangentMode
			c.keyframes[i].In = kf.In
			c.keyframes[i].Out = kf.Out
			c.computeAutoTangents()
			return
		}
	}

	c.keyframes = append(c.keyframes, kf)
	c.sortKeyframes()
	c.computeAutoTangents()
}

// Remove deletes the keyframe nearest to time within tolerance. Reports
// whether one was found.
func (c *Curve) Remove(time, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return false
	}
	c.keyframes = append(c.keyframes[:i], c.keyframes[i+1:]...)
	c.computeAutoTangents()
	return true
}

// Move relocates the keyframe at oldTime to newTime and re-sorts.
func (c *Curve) Move(oldTime, newTime, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(oldTime, tolerance)
	if i < 0 {
		return false
	}
	c.keyframes[i].Time = newTime
	c.sortKeyframes()
	c.computeAutoTangents()
	return true
}

// SetValue updates the value of the keyframe at time.
func (c *Curve) SetValue(time, value, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return false
	}
	c.keyframes[i].Value = value
	c.computeAutoTangents()
	return true
}

// SetInterp updates the interpolation mode of the keyframe at time.
func (c *Curve) SetInterp(time float64, mode InterpMode, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return false
	}
	c.keyframes[i].Interp = mode
	return true
}

// SetTangents replaces both handles of the keyframe at time. A manual
// tangent edit demotes the keyframe to Free so automatic recomputation
// does not overwrite it.
func (c *Curve) SetTangents(time float64, in, out Tangent, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return false
	}
	c.keyframes[i].In = in
	c.keyframes[i].Out = out
	c.keyframes[i].TangentMode = Free
	return true
}

// DragTangent updates a single handle, as an interactive editor does.
// In Aligned mode the opposite handle is re-derived: it keeps its own
// length but is forced co-linear with the dragged handle. In any other
// mode the edit demotes the keyframe to Free. Dragging a handle to zero
// length leaves the opposite handle untouched.
func (c *Curve) DragTangent(time float64, out bool, h Tangent, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return false
	}
	kf := &c.keyframes[i]

	if out {
		kf.Out = h
	} else {
		kf.In = h
	}

	if kf.TangentMode != Aligned {
		kf.TangentMode = Free
		return true
	}

	d := h.length()
	if d < 1e-9 {
		return true
	}
	dirT, dirV := h.DT/d, h.DV/d

	if out {
		l := kf.In.length()
		kf.In = Tangent{-dirT * l, -dirV * l}
	} else {
		l := kf.Out.length()
		kf.Out = Tangent{-dirT * l, -dirV * l}
	}
	return true
}

// SetTangentMode changes the tangent mode of the keyframe at time.
// Flat zeroes both handles; Auto recomputes them immediately.
func (c *Curve) SetTangentMode(time float64, mode TangentMode, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return false
	}
	c.keyframes[i].TangentMode = mode
	switch mode {
	case Flat:
		c.keyframes[i].In = Tangent{}
		c.keyframes[i].Out = Tangent{}
	case Auto:
		c.autoTangentAt(i)
	}
	return true
}

// SetSelected flags the keyframe at time as selected or not.
func (c *Curve) SetSelected(time float64, selected bool, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return false
	}
	c.keyframes[i].Selected = selected
	return true
}

// Clear removes all keyframes.
func (c *Curve) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyframes = nil
}

// Keyframes returns a copy of the keyframe sequence in time order.
func (c *Curve) Keyframes() []Keyframe {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Keyframe, len(c.keyframes))
	copy(out, c.keyframes)
	return out
}

// Len returns the keyframe count.
func (c *Curve) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keyframes)
}

// Find returns the keyframe at time, if one exists within tolerance.
func (c *Curve) Find(time, tolerance float64) (Keyframe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexAt(time, tolerance)
	if i < 0 {
		return Keyframe{}, false
	}
	return c.keyframes[i], true
}

// StartTime returns the first keyframe time, or 0 for an empty curve.
func (c *Curve) StartTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.keyframes) == 0 {
		return 0
	}
	return c.keyframes[0].Time
}

// EndTime returns the last keyframe time, or 0 for an empty curve.
func (c *Curve) EndTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.keyframes) == 0 {
		return 0
	}
	return c.keyframes[len(c.keyframes)-1].Time
}

// Evaluate returns the curve value at time. Outside the keyframe range
// the boundary keyframe value is held (flat extrapolation).
func (c *Curve) Evaluate(time float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluate(time)
}

// EvaluateDerivative returns the curve's rate of change at time, as a
// central finite difference with step 0.001.
func (c *Curve) EvaluateDerivative(time float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	const h = 0.001
	return (c.evaluate(time+h) - c.evaluate(time-h)) / (2 * h)
}

// Sample evaluates the curve at count evenly spaced times across
// [start,end]. count==1 yields a single sample at start; count==0 yields
// nil.
func (c *Curve) Sample(start, end float64, count int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if count <= 0 {
		return nil
	}
	result := make([]float64, 0, count)
	if count == 1 {
		return append(result, c.evaluate(start))
	}

	step := (end - start) / float64(count-1)
	for i := 0; i < count; i++ {
		result = append(result, c.evaluate(start+step*float64(i)))
	}
	return result
}

// ComputeAutoTangents recomputes the handles of every keyframe in Auto
// mode. Mutating methods call this automatically; it is exported for
// callers that edit keyframes wholesale.
func (c *Curve) ComputeAutoTangents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.computeAutoTangents()
}

// ─── internals (callers hold c.mu) ───

func (c *Curve) evaluate(time float64) float64 {
	if len(c.keyframes) == 0 {
		return c.defaultValue
	}

	if time <= c.keyframes[0].Time {
		return c.keyframes[0].Value
	}
	last := len(c.keyframes) - 1
	if time >= c.keyframes[last].Time {
		return c.keyframes[last].Value
	}

	for i := 0; i < last; i++ {
		a := &c.keyframes[i]
		b := &c.keyframes[i+1]
		if time < a.Time || time > b.Time {
			continue
		}

		segDur := b.Time - a.Time
		if segDur <= 0 {
			return a.Value
		}
		t := (time - a.Time) / segDur

		switch a.Interp {
		case Step:
			return a.Value
		case Linear:
			return lerp(a.Value, b.Value, t)
		case CubicBezier:
			return interpCubicBezier(a, b, t)
		case Spring:
			return lerp(a.Value, b.Value, springProgress(t))
		case EaseIn:
			return lerp(a.Value, b.Value, t*t)
		case EaseOut:
			return lerp(a.Value, b.Value, 1-(1-t)*(1-t))
		case EaseInOut:
			return lerp(a.Value, b.Value, easeInOutProgress(t))
		}
	}

	return c.keyframes[last].Value
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// interpCubicBezier evaluates a cubic Bezier in value space with the
// tangent handles as inner control points:
// P0=a, P1=a+a.Out.DV, P2=b+b.In.DV, P3=b.
func interpCubicBezier(a, b *Keyframe, t float64) float64 {
	p0 := a.Value
	p1 := a.Value + a.Out.DV
	p2 := b.Value + b.In.DV
	p3 := b.Value

	u := 1 - t
	uu := u * u
	tt := t * t

	return uu*u*p0 + 3*uu*t*p1 + 3*u*tt*p2 + tt*t*p3
}

// springProgress is a closed-form underdamped spring response. It
// overshoots 1 before settling.
func springProgress(t float64) float64 {
	const (
		omega = 10.0 // natural frequency
		zeta  = 0.6  // damping ratio (< 1 = underdamped)
	)

	decay := math.Exp(-zeta * omega * t)
	omegaD := omega * math.Sqrt(1-zeta*zeta)
	return 1 - decay*(math.Cos(omegaD*t)+(zeta*omega/omegaD)*math.Sin(omegaD*t))
}

func easeInOutProgress(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - 2*(1-t)*(1-t)
}

func (c *Curve) indexAt(time, tolerance float64) int {
	for i := range c.keyframes {
		if math.Abs(c.keyframes[i].Time-time) < tolerance {
			return i
		}
	}
	return -1
}

func (c *Curve) sortKeyframes() {
	sort.SliceStable(c.keyframes, func(i, j int) bool {
		return c.keyframes[i].Time < c.keyframes[j].Time
	})
}

func (c *Curve) computeAutoTangents() {
	for i := range c.keyframes {
		if c.keyframes[i].TangentMode == Auto {
			c.autoTangentAt(i)
		}
	}
}

// autoTangentAt computes Catmull-Rom style handles for keyframe i: the
// slope spans the neighbors, the handle reaches one third of the adjacent
// segment duration on each side.
func (c *Curve) autoTangentAt(i int) {
	if i < 0 || i >= len(c.keyframes) {
		return
	}
	kf := &c.keyframes[i]

	if len(c.keyframes) < 2 {
		kf.In = Tangent{}
		kf.Out = Tangent{}
		return
	}

	var slope float64
	switch {
	case i == 0:
		next := &c.keyframes[i+1]
		if dt := next.Time - kf.Time; dt > 0 {
			slope = (next.Value - kf.Value) / dt
		}
	case i == len(c.keyframes)-1:
		prev := &c.keyframes[i-1]
		if dt := kf.Time - prev.Time; dt > 0 {
			slope = (kf.Value - prev.Value) / dt
		}
	default:
		prev := &c.keyframes[i-1]
		next := &c.keyframes[i+1]
		if dt := next.Time - prev.Time; dt > 0 {
			slope = (next.Value - prev.Value) / dt
		}
	}

	var inDT, outDT float64
	if i > 0 {
		inDT = (kf.Time - c.keyframes[i-1].Time) / 3
	}
	if i+1 < len(c.keyframes) {
		outDT = (c.keyframes[i+1].Time - kf.Time) / 3
	}

	kf.In = Tangent{-inDT, -slope * inDT}
	kf.Out = Tangent{outDT, slope * outDT}
}
