package acmi

import "math"

// localFrame carries the three local tangent-frame basis vectors, expressed
// in ECEF coordinates, at a single geodetic position. The NWU convention
// convention used throughout is +x=North, +y=West, +z=Up.
type localFrame struct {
	North Vector3
	West  Vector3
	Up    Vector3
}

// newLocalFrame builds the NWU frame at the given geodetic latitude and
// longitude (radians). The formulas are the standard local-tangent-plane
// basis derivatives of the ellipsoid surface normal.
func newLocalFrame(latRad, lonRad float64) localFrame {
	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	sinLon, cosLon := math.Sin(lonRad), math.Cos(lonRad)

	up := Vector3{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	east := Vector3{X: -sinLon, Y: cosLon, Z: 0}
	north := Vector3{
		X: -sinLat * cosLon,
		Y: -sinLat * sinLon,
		Z: cosLat,
	}

	return localFrame{North: north, West: east.Scale(-1), Up: up}
}

// Matrix returns the rotation matrix whose columns are (North, West, Up),
// i.e. the matrix mapping local NWU coordinates to ECEF.
func (f localFrame) Matrix() Matrix3 {
	return matrix3FromColumns(f.North, f.West, f.Up)
}

// project resolves a world-frame (ECEF) vector into its North/West/Up
// components at this frame's position.
func (f localFrame) project(v Vector3) Vector3 {
	return Vector3{X: f.North.Dot(v), Y: f.West.Dot(v), Z: f.Up.Dot(v)}
}

// northPoleAxis is the ECEF Z axis, used to derive east/north directly from
// a surface normal without inverting back to geodetic latitude/longitude.
var northPoleAxis = Vector3{X: 0, Y: 0, Z: 1}

// localFrameFromPosition builds the NWU frame at an ECEF position using
// only the ellipsoid surface normal, the same trick Ellipsoid.SurfaceNormal
// uses to avoid an ECEF-to-geodetic inversion. The orientation synthesizer
// (component H) only ever has bare ECEF positions, never lat/lon.
func localFrameFromPosition(p Vector3, e Ellipsoid) localFrame {
	up := e.SurfaceNormal(p)
	east := northPoleAxis.Cross(up).Normalize()
	north := up.Cross(east)
	return localFrame{North: north, West: east.Scale(-1), Up: up}
}
