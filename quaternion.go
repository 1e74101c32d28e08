package acmi

import "math"

// Quaternion is a unit quaternion (x, y, z, w) representing a rotation.
type Quaternion struct {
	X, Y, Z, W float64
}

// IdentityQuaternion is the no-rotation quaternion.
var IdentityQuaternion = Quaternion{0, 0, 0, 1}

// quaternionFromMatrix converts an orthonormal rotation matrix to a unit
// quaternion using Shepperd's method, which stays numerically stable
// regardless of which diagonal term of m is largest.
func quaternionFromMatrix(m Matrix3) Quaternion {
	trace := m.M[0][0] + m.M[1][1] + m.M[2][2]

	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		q.W = 0.25 / s
		q.X = (m.M[2][1] - m.M[1][2]) * s
		q.Y = (m.M[0][2] - m.M[2][0]) * s
		q.Z = (m.M[1][0] - m.M[0][1]) * s
	case m.M[0][0] > m.M[1][1] && m.M[0][0] > m.M[2][2]:
		s := 2.0 * math.Sqrt(1.0+m.M[0][0]-m.M[1][1]-m.M[2][2])
		q.W = (m.M[2][1] - m.M[1][2]) / s
		q.X = 0.25 * s
		q.Y = (m.M[0][1] + m.M[1][0]) / s
		q.Z = (m.M[0][2] + m.M[2][0]) / s
	case m.M[1][1] > m.M[2][2]:
		s := 2.0 * math.Sqrt(1.0+m.M[1][1]-m.M[0][0]-m.M[2][2])
		q.W = (m.M[0][2] - m.M[2][0]) / s
		q.X = (m.M[0][1] + m.M[1][0]) / s
		q.Y = 0.25 * s
		q.Z = (m.M[1][2] + m.M[2][1]) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m.M[2][2]-m.M[0][0]-m.M[1][1])
		q.W = (m.M[1][0] - m.M[0][1]) / s
		q.X = (m.M[0][2] + m.M[2][0]) / s
		q.Y = (m.M[1][2] + m.M[2][1]) / s
		q.Z = 0.25 * s
	}

	return q.Normalize()
}

// quaternionFromAxisAngle builds the quaternion rotating by angle radians
// about the (assumed unit) axis.
func quaternionFromAxisAngle(axis Vector3, angle float64) Quaternion {
	half := angle / 2.0
	s := math.Sin(half)
	return Quaternion{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math.Cos(half),
	}
}

func (q Quaternion) Normalize() Quaternion {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return IdentityQuaternion
	}
	return Quaternion{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// Mul composes two rotations: applying q.Mul(o) to a vector applies o's
// rotation first, then q's. The Hamilton product q ⊗ o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// RotateVector rotates v by q.
func (q Quaternion) RotateVector(v Vector3) Vector3 {
	qv := Quaternion{v.X, v.Y, v.Z, 0}
	conj := Quaternion{-q.X, -q.Y, -q.Z, q.W}
	r := q.Mul(qv).Mul(conj)
	return Vector3{r.X, r.Y, r.Z}
}

// ToMatrix converts the quaternion to its equivalent rotation matrix.
func (q Quaternion) ToMatrix() Matrix3 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return Matrix3{M: [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}}
}

// approxEqual reports whether two quaternions are equal within eps
// componentwise, the dedup law consecutive trajectory samples must satisfy.
func (q Quaternion) approxEqual(o Quaternion, eps float64) bool {
	return math.Abs(q.X-o.X) < eps && math.Abs(q.Y-o.Y) < eps &&
		math.Abs(q.Z-o.Z) < eps && math.Abs(q.W-o.W) < eps
}
