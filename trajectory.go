package acmi

import (
	"math"
	"runtime"
	"sync"

	"github.com/alitto/pond"
)

// StateVector is one trajectory sample's kinematic state: an ECEF position
// and an optional synthesized or decoded orientation.
type StateVector struct {
	PositionEcef Vector3
	Orientation  *Quaternion
}

// Sample pairs an absolute instant with its StateVector.
type Sample struct {
	Time  Instant
	State StateVector
}

// Trajectory is one entity's time-ordered sample sequence, strictly
// increasing in Time.
type Trajectory struct {
	Samples []Sample
}

// TrajectoryOptions configures CreateSampledTrajectories.
type TrajectoryOptions struct {
	// SampleRate is the sampling interval in seconds. Zero means the
	// default of 1 second.
	SampleRate float64
	// EmulateOrientation requests post-hoc orientation synthesis for
	// entities whose first sample carries no orientation; synthesis then
	// replaces the orientation of every sample of that trajectory.
	EmulateOrientation bool
}

const dedupEpsilonPos = 1e-6
const dedupEpsilonQuat = 1e-6

// CreateSampledTrajectories resamples an AcmiData's frame timeline into a
// per-entity trajectory keyed by entity id. Invalid input (no usable time
// span) yields an empty mapping rather than an error.
//
// Entities are built concurrently, one worker task per entity, over a
// fixed-size pond worker pool. Each task only reads from the receiver's
// immutable Frames/entities tables.
func (d *AcmiData) CreateSampledTrajectories(opts TrajectoryOptions) map[uint64]Trajectory {
	out := make(map[uint64]Trajectory)

	if !d.TimeSpan.Valid() {
		return out
	}

	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1
	}

	entities := d.Entities()
	if len(entities) == 0 {
		return out
	}

	n := runtime.NumCPU() * 2
	pool := pond.New(n, 0, pond.MinWorkers(n))
	defer pool.StopAndWait()

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(len(entities))

	for _, e := range entities {
		id := e.ID
		pool.Submit(func() {
			defer wg.Done()
			traj := d.buildTrajectory(id, sampleRate)
			if opts.EmulateOrientation && trajectoryLacksOrientation(traj) {
				traj = synthesizeOrientation(traj, true)
			}
			mu.Lock()
			out[id] = traj
			mu.Unlock()
		})
	}

	wg.Wait()
	return out
}

// buildTrajectory implements the per-entity frame walk for
// one entity id.
func (d *AcmiData) buildTrajectory(id uint64, sampleRate float64) Trajectory {
	start := d.TimeSpan.Start
	duration := d.TimeSpan.Duration()

	var traj Trajectory
	var havePrev bool
	var prevPos Vector3
	var prevOrient *Quaternion

	emit := func(ts float64, lastFrame bool) {
		frame, ok := d.getFrame(start.AddSeconds(ts))
		if !ok {
			return
		}
		transform, ok := frame.Scene.Get(id)
		if !ok {
			return
		}

		state := stateVectorFromTransform(transform)

		if !lastFrame && havePrev && samplesEqual(prevPos, prevOrient, state) {
			return
		}

		traj.Samples = append(traj.Samples, Sample{Time: start.AddSeconds(ts), State: state})
		havePrev = true
		prevPos = state.PositionEcef
		prevOrient = state.Orientation
	}

	for ts := 0.0; ts <= duration; ts += sampleRate {
		emit(ts, false)
	}

	lastTs := math.Floor(duration/sampleRate) * sampleRate
	if duration-lastTs > 1e-9 {
		emit(duration, true)
	}

	return traj
}

func samplesEqual(prevPos Vector3, prevOrient *Quaternion, s StateVector) bool {
	if !prevPos.approxEqual(s.PositionEcef, dedupEpsilonPos) {
		return false
	}
	if (prevOrient == nil) != (s.Orientation == nil) {
		return false
	}
	if prevOrient == nil {
		return true
	}
	return prevOrient.approxEqual(*s.Orientation, dedupEpsilonQuat)
}

// stateVectorFromTransform implements the position/orientation construction
func stateVectorFromTransform(t Transform) StateVector {
	latRad := t.Latitude * math.Pi / 180.0
	lonRad := t.Longitude * math.Pi / 180.0
	pos := WGS84.ToECEF(latRad, lonRad, t.Altitude)

	state := StateVector{PositionEcef: pos}

	if t.Yaw == nil {
		return state
	}

	heading := *t.Yaw
	pitch := 0.0
	if t.Pitch != nil {
		pitch = *t.Pitch
	}
	roll := 0.0
	if t.Roll != nil {
		roll = *t.Roll
	}

	body := hprToNWU(heading, pitch, roll)
	world := newLocalFrame(latRad, lonRad).Matrix().Mul(body)
	q := quaternionFromMatrix(world)
	state.Orientation = &q

	return state
}

// getFrame implements a floor-by-timestamp binary search,
// valid only within [referenceTime, referenceTime + timeSpan.end].
func (d *AcmiData) getFrame(t Instant) (Frame, bool) {
	if len(d.Frames) == 0 {
		return Frame{}, false
	}

	target := t.Sub(d.GlobalProperties.ReferenceTime)

	lo, hi := 0, len(d.Frames)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if d.Frames[mid].TimeStamp <= target {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	if best < 0 {
		return Frame{}, false
	}
	return d.Frames[best], true
}

func trajectoryLacksOrientation(t Trajectory) bool {
	if len(t.Samples) == 0 {
		return false
	}
	return t.Samples[0].State.Orientation == nil
}
