package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts azimuth and elevation angles in degrees to a unit
// vector pointing towards the sun. Azimuth turns around +Z from +X;
// elevation is measured up from the horizon.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(mgl32.DegToRad(azimuth))
	el := float64(mgl32.DegToRad(elevation))

	return mgl32.Vec3{
		float32(math.Cos(el) * math.Cos(az)),
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
	}
}

// Environment is the global lighting shared by every tile.
type Environment struct {
	SunDir  mgl32.Vec3 // Unit vector towards the sun
	Ambient mgl32.Vec3
}

// DefaultEnvironment is a late-afternoon sun with a cool sky ambient.
func DefaultEnvironment() Environment {
	return Environment{
		SunDir:  SunDirection(135, 35),
		Ambient: mgl32.Vec3{0.25, 0.28, 0.33},
	}
}
