package scene

import "math"

// ProjectionMode selects how the camera projects the scene.
type ProjectionMode int

const (
	Perspective ProjectionMode = iota
	Orthographic
)

// Camera is a full camera snapshot: Cartesian pose, orbit parameters and
// projection settings. Orbit parameters (azimuth/elevation/distance around
// Target) and Position are kept in sync by UpdatePositionFromOrbit.
//
// Field order matches the serialized document layout.
type Camera struct {
	Position       Vec3           `json:"position"`
	Target         Vec3           `json:"target"`
	Up             Vec3           `json:"up"`
	ProjectionMode ProjectionMode `json:"projection_mode"`
	FOV            float64        `json:"fov"`        // Vertical field of view, degrees
	NearClip       float64        `json:"near_clip"`
	FarClip        float64        `json:"far_clip"`
	OrthoSize      float64        `json:"ortho_size"` // Half-height of the ortho volume
	Azimuth        float64        `json:"azimuth"`    // Degrees around Y
	Elevation      float64        `json:"elevation"`  // Degrees above the XZ plane
	Distance       float64        `json:"distance"`   // Orbit radius
}

// DefaultCamera returns a camera at the standard starting pose:
// perspective, orbiting the origin at 45°/30°.
func DefaultCamera() Camera {
	cam := Camera{
		Position:       Vec3{0, 0, 5},
		Target:         Vec3{},
		Up:             Vec3{0, 1, 0},
		ProjectionMode: Perspective,
		FOV:            45,
		NearClip:       0.1,
		FarClip:        1000,
		OrthoSize:      10,
		Azimuth:        45,
		Elevation:      30,
		Distance:       5,
	}
	cam.UpdatePositionFromOrbit()
	return cam
}

// Reset restores the standard starting pose.
func (c *Camera) Reset() {
	*c = DefaultCamera()
}

// UpdatePositionFromOrbit recomputes Position from the spherical orbit
// parameters around Target. Y is up.
func (c *Camera) UpdatePositionFromOrbit() {
	azRad := DegToRad(c.Azimuth)
	elRad := DegToRad(c.Elevation)

	cosEl := math.Cos(elRad)
	offset := Vec3{
		c.Distance * cosEl * math.Cos(azRad),
		c.Distance * math.Sin(elRad),
		c.Distance * cosEl * math.Sin(azRad),
	}

	c.Position = c.Target.Add(offset)
}

// Orbit rotates the camera around its target by the given deltas in
// degrees. Azimuth wraps to [0,360), elevation is clamped short of the
// poles to keep the up vector stable.
func (c *Camera) Orbit(dAzimuth, dElevation float64) {
	c.Azimuth += dAzimuth
	c.Elevation += dElevation

	c.Azimuth = math.Mod(c.Azimuth, 360)
	if c.Azimuth < 0 {
		c.Azimuth += 360
	}
	c.Elevation = clamp(c.Elevation, -89, 89)

	c.UpdatePositionFromOrbit()
}

// Zoom scales the orbit distance (perspective) or the ortho volume
// (orthographic) by factor.
func (c *Camera) Zoom(factor float64) {
	if c.ProjectionMode == Perspective {
		c.Distance = clamp(c.Distance*factor, 0.1, 10000)
		c.UpdatePositionFromOrbit()
	} else {
		c.OrthoSize = clamp(c.OrthoSize*factor, 0.1, 10000)
	}
}

// Orientation derives the camera's rotation quaternion from its view
// axes. Degenerate poses (target on top of position, up parallel to the
// view direction) yield the identity rotation.
func (c *Camera) Orientation() Quat {
	view := c.Target.Sub(c.Position)
	if view.Length() < 1e-9 {
		return QuatIdentity()
	}
	forward := view.Normalized()

	rightRaw := forward.Cross(c.Up)
	if rightRaw.Length() < 1e-9 {
		return QuatIdentity()
	}
	right := rightRaw.Normalized()
	trueUp := right.Cross(forward)

	return QuatFromBasis(Basis{
		Right: right,
		Up:    trueUp,
		Back:  forward.Scale(-1),
	})
}
