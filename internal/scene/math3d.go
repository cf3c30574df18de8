package scene

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vec3 is a 3-component vector. Serialized as a JSON array [x,y,z].
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns the unit vector, or the zero vector if v is too
// short to normalize.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1.0 / l)
}

func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

func (v *Vec3) UnmarshalJSON(data []byte) error {
	var arr [3]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("vec3: %w", err)
	}
	v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
	return nil
}

// Quat is a rotation quaternion (x,y,z vector part, w scalar part).
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

func (q Quat) Dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

func (q Quat) Normalized() Quat {
	mag := math.Sqrt(q.Dot(q))
	if mag < 1e-9 {
		return QuatIdentity()
	}
	return Quat{q.X / mag, q.Y / mag, q.Z / mag, q.W / mag}
}

func (q Quat) negated() Quat {
	return Quat{-q.X, -q.Y, -q.Z, -q.W}
}

// Slerp spherically interpolates from a to b. The shorter arc is always
// taken; nearly parallel quaternions fall back to normalized lerp.
func Slerp(a, b Quat, t float64) Quat {
	dot := a.Dot(b)
	if dot < 0 {
		b = b.negated()
		dot = -dot
	}

	if dot > 0.9995 {
		r := Quat{
			a.X + (b.X-a.X)*t,
			a.Y + (b.Y-a.Y)*t,
			a.Z + (b.Z-a.Z)*t,
			a.W + (b.W-a.W)*t,
		}
		return r.Normalized()
	}

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta

	return Quat{
		a.X*wa + b.X*wb,
		a.Y*wa + b.Y*wb,
		a.Z*wa + b.Z*wb,
		a.W*wa + b.W*wb,
	}
}

// Basis holds the three orthonormal axes of a rotation as columns
// (right, up, back; the camera looks along -back).
type Basis struct {
	Right, Up, Back Vec3
}

// QuatFromBasis extracts a quaternion from an orthonormal basis using
// Shepperd's method: the four-case branch on the rotation trace keeps the
// square root argument away from zero.
func QuatFromBasis(b Basis) Quat {
	m00, m10, m20 := b.Right.X, b.Right.Y, b.Right.Z
	m01, m11, m21 := b.Up.X, b.Up.Y, b.Up.Z
	m02, m12, m22 := b.Back.X, b.Back.Y, b.Back.Z

	trace := m00 + m11 + m22
	var q Quat

	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q.W = 0.25 * s
		q.X = (m21 - m12) / s
		q.Y = (m02 - m20) / s
		q.Z = (m10 - m01) / s
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q.W = (m21 - m12) / s
		q.X = 0.25 * s
		q.Y = (m01 + m10) / s
		q.Z = (m02 + m20) / s
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q.W = (m02 - m20) / s
		q.X = (m01 + m10) / s
		q.Y = 0.25 * s
		q.Z = (m12 + m21) / s
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q.W = (m10 - m01) / s
		q.X = (m02 + m20) / s
		q.Y = (m12 + m21) / s
		q.Z = 0.25 * s
	}

	return q.Normalized()
}

// BasisFromQuat converts a unit quaternion back to its basis columns.
func BasisFromQuat(q Quat) Basis {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return Basis{
		Right: Vec3{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy)},
		Up:    Vec3{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx)},
		Back:  Vec3{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy)},
	}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
