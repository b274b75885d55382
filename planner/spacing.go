package planner

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// DefaultImageInterval is the photo capture interval in seconds used when none is given.
const DefaultImageInterval = 2.0

// FlightParameters are the per-mission settings a planning request carries.
// Exactly one of AGL and GSD must be set.
type FlightParameters struct {
	ForwardOverlap float64 // percent, (0, 100)
	SideOverlap    float64 // percent, (0, 100)
	AGL            float64 // metres above ground
	GSD            float64 // cm per pixel
	ImageInterval  float64 // seconds between photos, 0 = DefaultImageInterval

	// RotationAngle in degrees; 0 aligns rows with the longest edge of the area.
	RotationAngle float64
	TakeOffPoint  *orb.Point // lon/lat, optional

	DroneType   DroneType
	GimbalAngle GimbalAngle
	Mode        Mode
}

// DerivedSpacing is the photographic footprint and spacing for one request.
type DerivedSpacing struct {
	AGL float64
	GSD float64

	ForwardPhotoHeight     float64
	SidePhotoWidth         float64
	ForwardOverlapDistance float64
	SideOverlapDistance    float64
	ForwardSpacing         float64
	SideSpacing            float64
	GroundSpeed            float64
}

// ComputeSpacing derives footprint, spacing and ground speed from the camera
// profile of the selected drone.
func ComputeSpacing(p FlightParameters) (DerivedSpacing, error) {
	profile, err := Profile(p.DroneType)
	if err != nil {
		return DerivedSpacing{}, err
	}
	if err := validateFlightParameters(p); err != nil {
		return DerivedSpacing{}, err
	}

	agl, gsd := p.AGL, p.GSD
	if gsd > 0 {
		agl = gsd * profile.GSDToAGL()
	} else {
		gsd = agl / profile.GSDToAGL()
	}

	interval := p.ImageInterval
	if interval == 0 {
		interval = DefaultImageInterval
	}

	forwardPhotoHeight := agl * profile.VerticalFOV()
	sidePhotoWidth := agl * profile.HorizontalFOV()
	forwardOverlapDistance := forwardPhotoHeight * p.ForwardOverlap / 100
	sideOverlapDistance := sidePhotoWidth * p.SideOverlap / 100
	forwardSpacing := forwardPhotoHeight - forwardOverlapDistance
	sideSpacing := sidePhotoWidth - sideOverlapDistance

	groundSpeed := forwardSpacing / interval
	if groundSpeed > profile.MaxGroundSpeed {
		groundSpeed = profile.MaxGroundSpeed
	}

	return DerivedSpacing{
		AGL:                    agl,
		GSD:                    gsd,
		ForwardPhotoHeight:     forwardPhotoHeight,
		SidePhotoWidth:         sidePhotoWidth,
		ForwardOverlapDistance: forwardOverlapDistance,
		SideOverlapDistance:    sideOverlapDistance,
		ForwardSpacing:         forwardSpacing,
		SideSpacing:            sideSpacing,
		GroundSpeed:            groundSpeed,
	}, nil
}

// GSDForAGL returns the ground sample distance (cm/px) a drone achieves at agl metres.
func GSDForAGL(d DroneType, agl float64) (float64, error) {
	profile, err := Profile(d)
	if err != nil {
		return 0, err
	}
	if !isFinite(agl) || agl <= 0 {
		return 0, fmt.Errorf("%w: agl must be > 0, got %g", ErrInvalidParameter, agl)
	}
	return agl / profile.GSDToAGL(), nil
}

func validateFlightParameters(p FlightParameters) error {
	for name, v := range map[string]float64{
		"forward_overlap": p.ForwardOverlap,
		"side_overlap":    p.SideOverlap,
		"agl":             p.AGL,
		"gsd":             p.GSD,
		"image_interval":  p.ImageInterval,
	} {
		if !isFinite(v) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidParameter, name)
		}
	}

	switch {
	case p.AGL != 0 && p.GSD != 0:
		return fmt.Errorf("%w: set either agl or gsd, not both", ErrInvalidParameter)
	case p.AGL == 0 && p.GSD == 0:
		return fmt.Errorf("%w: one of agl or gsd is required", ErrInvalidParameter)
	case p.AGL < 0:
		return fmt.Errorf("%w: agl must be > 0, got %g", ErrInvalidParameter, p.AGL)
	case p.GSD < 0:
		return fmt.Errorf("%w: gsd must be > 0, got %g", ErrInvalidParameter, p.GSD)
	}

	if p.ForwardOverlap <= 0 || p.ForwardOverlap >= 100 {
		return fmt.Errorf("%w: forward_overlap must be between 0 and 100 (exclusive), got %g",
			ErrInvalidParameter, p.ForwardOverlap)
	}
	if p.SideOverlap <= 0 || p.SideOverlap >= 100 {
		return fmt.Errorf("%w: side_overlap must be between 0 and 100 (exclusive), got %g",
			ErrInvalidParameter, p.SideOverlap)
	}
	if p.ImageInterval < 0 {
		return fmt.Errorf("%w: image_interval must be >= 0, got %g", ErrInvalidParameter, p.ImageInterval)
	}
	if !isFinite(p.RotationAngle) {
		return fmt.Errorf("%w: rotation_angle must be finite", ErrInvalidParameter)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
