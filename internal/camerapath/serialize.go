package camerapath

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ivlev/animkit/internal/scene"
)

// Wire format:
// {"path_mode":int,"keyframes":[{"time":..,"camera":{..}},..]}

type document struct {
	PathMode  int           `json:"path_mode"`
	Keyframes []keyframeDoc `json:"keyframes"`
}

type keyframeDoc struct {
	Time   float64      `json:"time"`
	Camera scene.Camera `json:"camera"`
}

// Serialize encodes the path mode and all camera keyframes.
func (a *Animator) Serialize() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := document{
		PathMode:  int(a.pathMode),
		Keyframes: make([]keyframeDoc, 0, len(a.keyframes)),
	}
	for _, kf := range a.keyframes {
		doc.Keyframes = append(doc.Keyframes, keyframeDoc{Time: kf.Time, Camera: kf.Camera})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize camera path: %w", err)
	}
	return data, nil
}

// Deserialize replaces the path mode and keyframes with the document's
// contents. On any parse failure the Animator is left untouched.
func (a *Animator) Deserialize(data []byte) error {
	var probe struct {
		PathMode  *int           `json:"path_mode"`
		Keyframes *[]keyframeDoc `json:"keyframes"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("deserialize camera path: %w", err)
	}
	if probe.PathMode == nil {
		return errors.New("deserialize camera path: missing \"path_mode\"")
	}
	if probe.Keyframes == nil {
		return errors.New("deserialize camera path: missing \"keyframes\"")
	}

	keyframes := make([]Keyframe, 0, len(*probe.Keyframes))
	for _, kd := range *probe.Keyframes {
		keyframes = append(keyframes, Keyframe{Time: kd.Time, Camera: kd.Camera})
	}
	sort.SliceStable(keyframes, func(i, j int) bool {
		return keyframes[i].Time < keyframes[j].Time
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pathMode = PathMode(*probe.PathMode)
	a.keyframes = keyframes
	return nil
}
