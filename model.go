package acmi

import "github.com/samber/lo"

// Header carries the two mandatory first-line fields of an ACMI file.
type Header struct {
	FileType    string
	FileVersion string
}

// supportedVersions is the version whitelist Parse accepts.
var supportedVersions = []string{"2.1", "2.2"}

// Valid reports whether the header matches the one file type and one of
// the whitelisted versions.
func (h Header) Valid() bool {
	return h.FileType == "text/acmi/tacview" && lo.Contains(supportedVersions, h.FileVersion)
}

// GlobalProperties holds the file-wide metadata carried in "0," rows.
// Unrecognised Name=Value pairs are preserved, in the order they were
// first observed, in AdditionalProps.
type GlobalProperties struct {
	ReferenceTime      Instant
	ReferenceLongitude float64
	ReferenceLatitude  float64

	DataSource   string
	DataRecorder string
	RecordingTime Instant
	Author       string
	Title        string
	Category     string
	Briefing     string
	Debriefing   string
	Comments     string

	additionalProps *orderedMap[string, string]
}

func newGlobalProperties() GlobalProperties {
	return GlobalProperties{additionalProps: newOrderedMap[string, string]()}
}

// AdditionalProps returns the unrecognised Name=Value pairs in the order
// they first appeared.
func (g GlobalProperties) AdditionalProps() []KeyValue {
	return keyValuesInOrder(g.additionalProps)
}

// KeyValue is an ordered (name, value) pair.
type KeyValue struct {
	Key   string
	Value string
}

func keyValuesInOrder(om *orderedMap[string, string]) []KeyValue {
	keys := om.keysInOrder()
	out := make([]KeyValue, 0, len(keys))
	for _, k := range keys {
		v, _ := om.get(k)
		out = append(out, KeyValue{Key: k, Value: v})
	}
	return out
}

// Transform is a decoded entity pose: geodetic position plus optional
// orientation. Longitude/latitude already have the active reference
// applied; altitude is above the WGS84 ellipsoid once the geoid
// correction has been folded in. Roll/Pitch/Yaw are nil
// when absent (never observed, or explicitly inherited as empty).
type Transform struct {
	Longitude float64
	Latitude  float64
	Altitude  float64
	Roll      *float64
	Pitch     *float64
	Yaw       *float64
}

// EntityProps is the lifecycle-spanning metadata for one entity id.
type EntityProps struct {
	ID       uint64
	TimeSpan TimeSpan

	Name     string
	Types    []string
	CallSign string
	Pilot    string
	Group    string
	Country  string
	Coalition string
	Color    string
}

// Scene is the set of entities and their current Transform at one instant,
// ordered by first insertion for deterministic iteration.
type Scene struct {
	om *orderedMap[uint64, Transform]
}

func newScene() Scene {
	return Scene{om: newOrderedMap[uint64, Transform]()}
}

// Clone performs the copy-on-write duplication a new Frame needs: the
// returned Scene shares no mutable state with the receiver.
func (s Scene) Clone() Scene {
	return Scene{om: s.om.clone()}
}

func (s Scene) set(id uint64, t Transform) {
	s.om.set(id, t)
}

func (s Scene) delete(id uint64) {
	s.om.delete(id)
}

// Get returns the entity's current transform, if present in this scene.
func (s Scene) Get(id uint64) (Transform, bool) {
	return s.om.get(id)
}

// Len reports how many entities are present in this scene.
func (s Scene) Len() int {
	return s.om.len()
}

// IDs returns the entity ids present in this scene, in insertion order.
func (s Scene) IDs() []uint64 {
	return s.om.keysInOrder()
}

// Frame is a scene snapshot valid from TimeStamp until the next frame's
// TimeStamp.
type Frame struct {
	TimeStamp float64
	Scene     Scene
}

// AcmiData is the complete decoded document: header, global metadata, the
// chronological frame sequence, and the per-entity property table.
// AcmiData exclusively owns its frames, entities and GlobalProperties;
// it is treated as immutable once Parse returns.
type AcmiData struct {
	IsValid          bool
	// LastError is the first error kind that flipped IsValid to false, or
	// nil for a fully valid document. It is never a terminal error: those
	// are returned directly from Parse instead.
	LastError        error
	Header           Header
	GlobalProperties GlobalProperties
	TimeSpan         TimeSpan
	Frames           []Frame

	entities *orderedMap[uint64, *EntityProps]
}

// Entities returns the entity table in first-observed order.
func (d *AcmiData) Entities() []*EntityProps {
	keys := d.entities.keysInOrder()
	out := make([]*EntityProps, 0, len(keys))
	for _, k := range keys {
		e, _ := d.entities.get(k)
		out = append(out, e)
	}
	return out
}

// Entity looks up one entity by id.
func (d *AcmiData) Entity(id uint64) (*EntityProps, bool) {
	return d.entities.get(id)
}
