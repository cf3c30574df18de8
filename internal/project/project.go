// Package project defines the YAML authoring format for animation
// projects and builds runtime objects from it.
package project

// Project represents a complete animation project
type Project struct {
	Version    string      `yaml:"version"`
	Name       string      `yaml:"name"`
	Duration   float64     `yaml:"duration"` // Total duration in seconds
	FPS        float64     `yaml:"fps"`
	LoopMode   string      `yaml:"loop_mode,omitempty"` // none | loop | pingpong
	Channels   []Channel   `yaml:"channels"`
	CameraPath *CameraPath `yaml:"camera_path,omitempty"`
}

// Channel represents one animated scalar property
type Channel struct {
	Name      string     `yaml:"name"`
	Default   float64    `yaml:"default"`
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Keyframe represents a value at a specific time
type Keyframe struct {
	Time   float64 `yaml:"time"`             // Time offset in seconds
	Value  float64 `yaml:"value"`            // Target value
	Interp string  `yaml:"interp,omitempty"` // step | linear | bezier | spring | ease_in | ease_out | ease_in_out
}

// CameraPath represents an animated camera move
type CameraPath struct {
	Mode      string           `yaml:"mode"` // orbit | free_flight
	Keyframes []CameraKeyframe `yaml:"keyframes"`
}

// CameraKeyframe represents a camera pose at a specific time
type CameraKeyframe struct {
	Time      float64   `yaml:"time"`
	Azimuth   float64   `yaml:"azimuth"`
	Elevation float64   `yaml:"elevation"`
	Distance  float64   `yaml:"distance"`
	FOV       float64   `yaml:"fov,omitempty"`
	Position  []float64 `yaml:"position,omitempty"` // free-flight only
	Target    []float64 `yaml:"target,omitempty"`
}
