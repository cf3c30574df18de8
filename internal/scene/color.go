package scene

import (
	"encoding/json"
	"fmt"
)

// Color is an RGBA color with components in [0,1].
// Serialized as a JSON array [r,g,b,a].
type Color struct {
	R, G, B, A float64
}

// Common track colors.
var (
	Cyan    = Color{0, 1, 1, 1}
	Magenta = Color{1, 0, 1, 1}
	Yellow  = Color{1, 1, 0, 1}
	Orange  = Color{1, 0.6, 0.1, 1}
	White   = Color{1, 1, 1, 1}
)

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{c.R, c.G, c.B, c.A})
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var arr [4]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	c.R, c.G, c.B, c.A = arr[0], arr[1], arr[2], arr[3]
	return nil
}
