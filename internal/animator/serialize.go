package animator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ivlev/animkit/internal/curve"
)

// Wire format, fixed for round-trip compatibility with curve editors:
// {"channels":[{"id":..,"name":..,"default":..,"keyframes":[
//   {"t":..,"v":..,"i":..,"tm":..,"it":[dt,dv],"ot":[dt,dv]},..]},..]}

type document struct {
	Channels []channelDoc `json:"channels"`
}

type channelDoc struct {
	ID        uint32        `json:"id"`
	Name      string        `json:"name"`
	Default   float64       `json:"default"`
	Keyframes []keyframeDoc `json:"keyframes"`
}

type keyframeDoc struct {
	T  float64    `json:"t"`
	V  float64    `json:"v"`
	I  int        `json:"i"`
	TM int        `json:"tm"`
	IT [2]float64 `json:"it"`
	OT [2]float64 `json:"ot"`
}

// Serialize encodes every channel with its keyframes and tangents.
// Bindings are runtime wiring and are not persisted.
func (ip *Interpolator) Serialize() ([]byte, error) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	doc := document{Channels: make([]channelDoc, 0, len(ip.channels))}
	for _, e := range ip.channels {
		cd := channelDoc{
			ID:        e.ID,
			Name:      e.Curve.Name(),
			Default:   e.Curve.DefaultValue(),
			Keyframes: make([]keyframeDoc, 0, e.Curve.Len()),
		}
		for _, kf := range e.Curve.Keyframes() {
			cd.Keyframes = append(cd.Keyframes, keyframeDoc{
				T:  kf.Time,
				V:  kf.Value,
				I:  int(kf.Interp),
				TM: int(kf.TangentMode),
				IT: [2]float64{kf.In.DT, kf.In.DV},
				OT: [2]float64{kf.Out.DT, kf.Out.DV},
			})
		}
		doc.Channels = append(doc.Channels, cd)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize channels: %w", err)
	}
	return data, nil
}

// Deserialize replaces the channel collection with the document's
// contents, reconstructing channels in file order and advancing the id
// generator past the highest id seen. Bindings are cleared because they
// may reference channels that no longer exist.
//
// On any parse failure the Interpolator is left untouched.
func (ip *Interpolator) Deserialize(data []byte) error {
	var probe struct {
		Channels *[]channelDoc `json:"channels"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("deserialize channels: %w", err)
	}
	if probe.Channels == nil {
		return errors.New("deserialize channels: missing \"channels\" section")
	}

	channels := make([]ChannelEntry, 0, len(*probe.Channels))
	nextID := uint32(1)
	for _, cd := range *probe.Channels {
		c := curve.New(cd.Name, cd.Default)
		for _, kd := range cd.Keyframes {
			c.Add(curve.Keyframe{
				Time:        kd.T,
				Value:       kd.V,
				Interp:      curve.InterpMode(kd.I),
				TangentMode: curve.TangentMode(kd.TM),
				In:          curve.Tangent{DT: kd.IT[0], DV: kd.IT[1]},
				Out:         curve.Tangent{DT: kd.OT[0], DV: kd.OT[1]},
			})
		}
		if cd.ID >= nextID {
			nextID = cd.ID + 1
		}
		channels = append(channels, ChannelEntry{ID: cd.ID, Curve: c})
	}

	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.channels = channels
	ip.bindings = nil
	ip.cameraBindings = nil
	ip.nextChannelID = nextID
	return nil
}
