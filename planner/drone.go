package planner

import (
	"fmt"
	"math"
	"strings"
)

// DroneType selects the camera profile used for footprint calculations.
type DroneType int

const (
	DJIMini4Pro DroneType = iota
	DJIAir3
	DJIMini5Pro
	PotensicAtom2
)

// fullFrameDiagonalMm is the diagonal of a 36x24mm sensor, the reference for
// 35mm-equivalent focal lengths.
const fullFrameDiagonalMm = 43.27

// CameraProfile describes the sensor and lens of a drone camera.
type CameraProfile struct {
	SensorWidthMm           float64
	SensorHeightMm          float64
	EquivalentFocalLengthMm float64
	ImageWidthPx            int
	ImageHeightPx           int

	// MaxGroundSpeed caps the computed ground speed (m/s) so the flight
	// controller never receives a speed it rejects.
	MaxGroundSpeed float64
}

var droneNames = map[DroneType]string{
	DJIMini4Pro:   "DJI_MINI_4_PRO",
	DJIAir3:       "DJI_AIR_3",
	DJIMini5Pro:   "DJI_MINI_5_PRO",
	PotensicAtom2: "POTENSIC_ATOM_2",
}

var profiles = map[DroneType]CameraProfile{
	DJIMini4Pro: {
		SensorWidthMm: 9.6, SensorHeightMm: 7.2, EquivalentFocalLengthMm: 24,
		ImageWidthPx: 4032, ImageHeightPx: 3024, MaxGroundSpeed: 12,
	},
	DJIAir3: {
		SensorWidthMm: 9.6, SensorHeightMm: 7.2, EquivalentFocalLengthMm: 24,
		ImageWidthPx: 4032, ImageHeightPx: 3024, MaxGroundSpeed: 15,
	},
	DJIMini5Pro: {
		SensorWidthMm: 13.2, SensorHeightMm: 8.8, EquivalentFocalLengthMm: 24,
		ImageWidthPx: 5472, ImageHeightPx: 3648, MaxGroundSpeed: 12,
	},
	PotensicAtom2: {
		SensorWidthMm: 6.4, SensorHeightMm: 4.8, EquivalentFocalLengthMm: 26,
		ImageWidthPx: 4000, ImageHeightPx: 3000, MaxGroundSpeed: 10,
	},
}

func (d DroneType) String() string {
	if name, ok := droneNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DroneType(%d)", int(d))
}

// ParseDroneType maps a drone model identifier such as "DJI_MINI_4_PRO" to its DroneType.
func ParseDroneType(name string) (DroneType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for d, n := range droneNames {
		if n == normalized {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDroneType, name)
}

// MarshalText implements encoding.TextMarshaler.
func (d DroneType) MarshalText() ([]byte, error) {
	name, ok := droneNames[d]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDroneType, int(d))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DroneType) UnmarshalText(text []byte) error {
	parsed, err := ParseDroneType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Profile returns the camera profile of a drone model.
func Profile(d DroneType) (CameraProfile, error) {
	p, ok := profiles[d]
	if !ok {
		return CameraProfile{}, fmt.Errorf("%w: %s", ErrUnknownDroneType, d)
	}
	return p, nil
}

// SensorDiagonalMm returns the sensor diagonal in millimetres.
func (c CameraProfile) SensorDiagonalMm() float64 {
	return math.Hypot(c.SensorWidthMm, c.SensorHeightMm)
}

// CropFactor returns the ratio of the full-frame diagonal to this sensor's diagonal.
func (c CameraProfile) CropFactor() float64 {
	return fullFrameDiagonalMm / c.SensorDiagonalMm()
}

// ActualFocalLengthMm converts the 35mm-equivalent focal length to the real one.
func (c CameraProfile) ActualFocalLengthMm() float64 {
	return c.EquivalentFocalLengthMm / c.CropFactor()
}

// HorizontalFOV returns the horizontal field of view in radians.
// Formula: FOV = 2 × arctan(sensor_width / (2 × focal_length))
func (c CameraProfile) HorizontalFOV() float64 {
	return 2 * math.Atan(c.SensorWidthMm/(2*c.ActualFocalLengthMm()))
}

// VerticalFOV returns the vertical field of view in radians.
func (c CameraProfile) VerticalFOV() float64 {
	return 2 * math.Atan(c.SensorHeightMm/(2*c.ActualFocalLengthMm()))
}

// GSDToAGL returns the factor converting a ground sample distance in cm/px
// into an altitude above ground in metres.
func (c CameraProfile) GSDToAGL() float64 {
	return c.ActualFocalLengthMm() * float64(c.ImageWidthPx) / (c.SensorWidthMm * 100)
}
