package acmi

import "math"

// Matrix3 is a row-major 3x3 matrix, used to carry rotations between ECEF
// and local tangent frames.
type Matrix3 struct {
	M [3][3]float64
}

// matrix3FromColumns builds a matrix whose columns are the three supplied
// vectors, the construction rotationMatrixFromPositionVelocity and the
// local-frame builder both use (columns = basis vectors in the target frame).
func matrix3FromColumns(c0, c1, c2 Vector3) Matrix3 {
	return Matrix3{M: [3][3]float64{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}}
}

func (m Matrix3) Column(i int) Vector3 {
	return Vector3{m.M[0][i], m.M[1][i], m.M[2][i]}
}

func (m Matrix3) MulVec(v Vector3) Vector3 {
	return Vector3{
		X: m.M[0][0]*v.X + m.M[0][1]*v.Y + m.M[0][2]*v.Z,
		Y: m.M[1][0]*v.X + m.M[1][1]*v.Y + m.M[1][2]*v.Z,
		Z: m.M[2][0]*v.X + m.M[2][1]*v.Y + m.M[2][2]*v.Z,
	}
}

func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m.M[i][k] * o.M[k][j]
			}
			out.M[i][j] = sum
		}
	}
	return out
}

// Transpose is used to project a world-frame vector into a local frame
// whose basis is given as the columns of m (the inverse of an orthonormal
// rotation matrix is its transpose).
func (m Matrix3) Transpose() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.M[i][j] = m.M[j][i]
		}
	}
	return out
}

// rotationX, rotationY, rotationZ are the standard right-handed elemental
// rotation matrices about the body axes, used to build the HPR body-to-NWU
// rotation: R_z(-heading) * R_y(-pitch) * R_x(roll).
func rotationX(a float64) Matrix3 {
	s, c := math.Sin(a), math.Cos(a)
	return Matrix3{M: [3][3]float64{
		{1, 0, 0},
		{0, c, -s},
		{0, s, c},
	}}
}

func rotationY(a float64) Matrix3 {
	s, c := math.Sin(a), math.Cos(a)
	return Matrix3{M: [3][3]float64{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}}
}

func rotationZ(a float64) Matrix3 {
	s, c := math.Sin(a), math.Cos(a)
	return Matrix3{M: [3][3]float64{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}}
}

// hprToNWU builds the body-to-NWU rotation matrix for a heading/pitch/roll
// triple.
func hprToNWU(heading, pitch, roll float64) Matrix3 {
	return rotationZ(-heading).Mul(rotationY(-pitch)).Mul(rotationX(roll))
}
