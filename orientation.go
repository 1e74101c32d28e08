package acmi

import "math"

// gravity is the standard gravity constant used by the
// coordinated-turn roll approximation.
const gravity = 9.80665

// rollSmoothingAlpha is the exponential smoothing coefficient
// fixes for computeRoll.
const rollSmoothingAlpha = 0.05

var bodyForward = Vector3{X: 1, Y: 0, Z: 0}

// synthesizeOrientation fills in every sample's orientation from position
// derivatives alone, overwriting any orientation a sample already has. It
// is only ever invoked against a trajectory whose first decoded sample
// carries no orientation.
func synthesizeOrientation(traj Trajectory, withRoll bool) Trajectory {
	n := len(traj.Samples)
	if n == 0 {
		return traj
	}
	if n < 3 {
		for i := range traj.Samples {
			q := defaultOrientation(traj.Samples[i].State.PositionEcef)
			traj.Samples[i].State.Orientation = &q
		}
		return traj
	}

	var lastRoll float64
	var last Quaternion

	for i := 0; i <= n-3; i++ {
		s0, s1 := traj.Samples[i], traj.Samples[i+1]
		p0, p1 := s0.State.PositionEcef, s1.State.PositionEcef

		dt0 := s1.Time.Sub(s0.Time)

		var qi Quaternion
		v0 := p1.Sub(p0).Scale(1 / dt0)
		speed := v0.Norm()

		if speed <= 1e-6 {
			qi = defaultOrientation(p0)
		} else {
			vHat0 := v0.Scale(1 / speed)
			r0 := rotationMatrixFromPositionVelocity(p0, vHat0, WGS84)
			q0 := quaternionFromMatrix(r0)

			roll := 0.0
			if withRoll {
				s2 := traj.Samples[i+2]
				dt1 := s2.Time.Sub(s1.Time)
				v1 := s2.State.PositionEcef.Sub(s1.State.PositionEcef).Scale(1 / dt1)
				if speed1 := v1.Norm(); speed1 > 1e-6 {
					vHat1 := v1.Scale(1 / speed1)
					r1 := rotationMatrixFromPositionVelocity(s1.State.PositionEcef, vHat1, WGS84)
					q1 := quaternionFromMatrix(r1)
					roll = computeRoll(p0, q0, s1.State.PositionEcef, q1, speed, dt0, &lastRoll)
				}
			}

			qRot := quaternionFromAxisAngle(vHat0, roll)
			qi = qRot.Mul(q0)
		}

		q := qi
		traj.Samples[i].State.Orientation = &q
		last = qi
	}

	lastCopy := last
	traj.Samples[n-2].State.Orientation = &lastCopy
	traj.Samples[n-1].State.Orientation = &lastCopy

	return traj
}

func defaultOrientation(p Vector3) Quaternion {
	return quaternionFromMatrix(localFrameFromPosition(p, WGS84).Matrix())
}

// rotationMatrixFromPositionVelocity builds the (forward, right, up) frame
// re-orthogonalizing up against the velocity direction.
func rotationMatrixFromPositionVelocity(p, vHat Vector3, e Ellipsoid) Matrix3 {
	up := e.SurfaceNormal(p)
	right := up.Cross(vHat).Normalize()
	up = vHat.Cross(right)
	return matrix3FromColumns(vHat, right, up)
}

// headingFromQuaternion recovers the local-frame compass heading a pose
// quaternion encodes, by rotating the body forward axis into ECEF and
// projecting it onto the NWU frame at p, the inverse of the HPR-to-world
// composition stateVectorFromTransform performs.
func headingFromQuaternion(p Vector3, q Quaternion) float64 {
	forwardWorld := q.RotateVector(bodyForward)
	local := localFrameFromPosition(p, WGS84).project(forwardWorld)
	heading := math.Atan2(-local.Y, local.X)
	if heading < 0 {
		heading += 2 * math.Pi
	}
	return heading
}

// wrapSignedAngle folds an angle difference into (-pi, pi], the signed
// short way around a full turn.
func wrapSignedAngle(delta float64) float64 {
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}

// computeRoll implements the coordinated-turn approximation
// tan(roll) = speed*turnRate/g, smoothed exponentially and threaded
// through lastRoll across calls for one trajectory.
func computeRoll(p0 Vector3, q0 Quaternion, p1 Vector3, q1 Quaternion, speed, dt float64, lastRoll *float64) float64 {
	h0 := headingFromQuaternion(p0, q0)
	h1 := headingFromQuaternion(p1, q1)

	alpha := wrapSignedAngle(h1 - h0)

	raw := math.Atan(speed * alpha / (gravity * dt))

	smooth := rollSmoothingAlpha*raw + (1-rollSmoothingAlpha)*(*lastRoll)
	if math.Abs(smooth) < math.Pi/180.0 {
		smooth = 0
	}
	*lastRoll = smooth
	return smooth
}
