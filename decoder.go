package acmi

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// parser holds the scratch state for one in-progress decode. A parser must
// never be reused across files and never shared between goroutines.
type parser struct {
	filter []string
	geoid  *GeoidGrid

	data *AcmiData

	refLon, refLat float64

	currentTimeStamp float64
	currentFrame     Scene

	// allEntities tracks every id ever upserted, including ones the type
	// filter rejected, so the "new entities only" filter decision
	// is made exactly once per id.
	allEntities *orderedMap[uint64, *EntityProps]
	keptSet     map[uint64]bool
	pendingDestroy []uint64
}

func newParser(filter []string, geoid *GeoidGrid) *parser {
	p := &parser{
		filter:      filter,
		geoid:       geoid,
		allEntities: newOrderedMap[uint64, *EntityProps](),
		keptSet:     make(map[uint64]bool),
	}
	p.data = &AcmiData{
		IsValid:          true,
		GlobalProperties: newGlobalProperties(),
		entities:         newOrderedMap[uint64, *EntityProps](),
	}
	p.currentFrame = newScene()
	return p
}

func (p *parser) referenceTime() Instant {
	return p.data.GlobalProperties.ReferenceTime
}

func (p *parser) invalidate(err error) {
	p.data.IsValid = false
	if p.data.LastError == nil {
		p.data.LastError = err
	}
}

// feedLine dispatches one logical line by its record-type prefix.
func (p *parser) feedLine(line string) {
	switch {
	case strings.HasPrefix(line, "0,Event,"):
		// Event records are reserved; parsed location only, never emitted.
		return
	case strings.HasPrefix(line, "0,"):
		p.handleGlobalProperty(line[len("0,"):])
	case strings.HasPrefix(line, "#"):
		p.handleTimeMarker(line[1:])
	case strings.HasPrefix(line, "-"):
		p.handleRemoval(line[1:])
	default:
		p.handleUpsert(line)
	}
}

// splitUnescapedComma splits on commas not preceded by a backslash; the
// backslash is kept verbatim in the resulting field.
func splitUnescapedComma(s string) []string {
	var fields []string
	var cur strings.Builder
	runes := []rune(s)
	for i, c := range runes {
		if c == ',' {
			if i > 0 && runes[i-1] == '\\' {
				cur.WriteRune(c)
				continue
			}
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(c)
	}
	fields = append(fields, cur.String())
	return fields
}

// splitKeyValue splits a "Name=Value" field on its first '='.
func splitKeyValue(field string) (key, value string, ok bool) {
	idx := strings.IndexByte(field, '=')
	if idx < 0 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}

func (p *parser) handleGlobalProperty(rest string) {
	for _, field := range splitUnescapedComma(rest) {
		key, value, ok := splitKeyValue(field)
		if !ok {
			p.invalidate(ErrMalformedRecord)
			continue
		}

		switch strings.ToLower(key) {
		case "referencetime":
			instant, err := parseInstant(value)
			if err != nil {
				p.invalidate(ErrMalformedRecord)
				continue
			}
			p.data.GlobalProperties.ReferenceTime = instant
		case "referencelongitude":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				p.invalidate(ErrMalformedRecord)
				continue
			}
			p.refLon = v
			p.data.GlobalProperties.ReferenceLongitude = v
		case "referencelatitude":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				p.invalidate(ErrMalformedRecord)
				continue
			}
			p.refLat = v
			p.data.GlobalProperties.ReferenceLatitude = v
		case "recordingtime":
			instant, err := parseInstant(value)
			if err != nil {
				p.invalidate(ErrMalformedRecord)
				continue
			}
			p.data.GlobalProperties.RecordingTime = instant
		case "datasource":
			p.data.GlobalProperties.DataSource = value
		case "datarecorder":
			p.data.GlobalProperties.DataRecorder = value
		case "author":
			p.data.GlobalProperties.Author = value
		case "title":
			p.data.GlobalProperties.Title = value
		case "category":
			p.data.GlobalProperties.Category = value
		case "briefing":
			p.data.GlobalProperties.Briefing = value
		case "debriefing":
			p.data.GlobalProperties.Debriefing = value
		case "comments":
			p.data.GlobalProperties.Comments = value
		default:
			p.data.GlobalProperties.additionalProps.set(key, value)
		}
	}
}

// handleTimeMarker implements the "#t" frame-time marker.
func (p *parser) handleTimeMarker(rest string) {
	t, err := strconv.ParseFloat(rest, 64)
	if err != nil || t < 0 {
		p.invalidate(ErrMalformedRecord)
		return
	}

	if t != p.currentTimeStamp {
		p.data.Frames = append(p.data.Frames, Frame{
			TimeStamp: p.currentTimeStamp,
			Scene:     p.currentFrame,
		})
		p.currentTimeStamp = t
		p.currentFrame = p.currentFrame.Clone()

		if len(p.pendingDestroy) > 0 {
			for _, id := range p.pendingDestroy {
				p.currentFrame.delete(id)
				delete(p.keptSet, id)
			}
			p.pendingDestroy = p.pendingDestroy[:0]
		}
	}
}

// handleRemoval implements the "-id" entity removal.
func (p *parser) handleRemoval(rest string) {
	id, err := strconv.ParseUint(rest, 16, 64)
	if err != nil {
		p.invalidate(ErrMalformedRecord)
		return
	}

	if entity, ok := p.allEntities.get(id); ok {
		entity.TimeSpan.End = p.referenceTime().AddSeconds(p.currentTimeStamp)
	}

	if p.keptSet[id] {
		p.pendingDestroy = append(p.pendingDestroy, id)
	}
}

// handleUpsert implements the "<hex>,fields" entity upsert.
func (p *parser) handleUpsert(line string) {
	commaIdx := strings.IndexByte(line, ',')
	var idStr, rest string
	if commaIdx < 0 {
		idStr, rest = line, ""
	} else {
		idStr, rest = line[:commaIdx], line[commaIdx+1:]
	}

	id, err := strconv.ParseUint(idStr, 16, 64)
	if err != nil {
		p.invalidate(ErrMalformedRecord)
		return
	}

	entity, existed := p.allEntities.get(id)
	if !existed {
		entity = &EntityProps{
			ID:       id,
			TimeSpan: TimeSpan{Start: p.referenceTime().AddSeconds(p.currentTimeStamp)},
		}
		p.allEntities.set(id, entity)
	}

	var transformToken string
	haveTransform := false

	for _, field := range splitUnescapedComma(rest) {
		if field == "" {
			continue
		}
		key, value, ok := splitKeyValue(field)
		if !ok {
			p.invalidate(ErrMalformedRecord)
			continue
		}

		switch strings.ToLower(key) {
		case "name":
			entity.Name = value
		case "type":
			entity.Types = strings.Split(value, "+")
		case "callsign":
			entity.CallSign = value
		case "pilot":
			entity.Pilot = value
		case "group":
			entity.Group = value
		case "country":
			entity.Country = value
		case "coalition":
			entity.Coalition = value
		case "color":
			entity.Color = value
		case "destroyed":
			if value == "1" {
				entity.TimeSpan.End = p.referenceTime().AddSeconds(p.currentTimeStamp)
			}
		case "t":
			transformToken = value
			haveTransform = true
		default:
			// Unrecognised keys are silently ignored on entities.
		}
	}

	if !existed {
		if p.passesFilter(entity) {
			p.data.entities.set(id, entity)
			p.keptSet[id] = true
		}
	}

	if !p.keptSet[id] {
		return
	}

	if haveTransform {
		prior, hadPrior := p.currentFrame.Get(id)
		p.currentFrame.set(id, p.decodeTransform(transformToken, prior, hadPrior))
	}
}

// passesFilter implements the new-entity filter decision:
// kept iff the entity's types contain no element of the filter list, or
// (when untyped) iff "Untyped" is not in the filter list.
func (p *parser) passesFilter(entity *EntityProps) bool {
	if len(p.filter) == 0 {
		return true
	}
	if len(entity.Types) == 0 {
		return !lo.Contains(p.filter, "Untyped")
	}
	return !lo.SomeBy(entity.Types, func(t string) bool {
		return lo.Contains(p.filter, t)
	})
}

// decodeTransform implements the "T=" coordinate packing.
func (p *parser) decodeTransform(value string, prior Transform, hadPrior bool) Transform {
	tokens := strings.Split(value, "|")

	tokenAt := func(i int) (string, bool) {
		if i < 0 || i >= len(tokens) {
			return "", false
		}
		return strings.TrimSpace(tokens[i]), true
	}

	var out Transform

	lonTok, _ := tokenAt(0)
	latTok, _ := tokenAt(1)
	altTok, _ := tokenAt(2)

	if lonTok != "" {
		off, err := strconv.ParseFloat(lonTok, 64)
		if err != nil {
			p.invalidate(ErrMalformedRecord)
		} else {
			out.Longitude = p.refLon + off
		}
	} else if hadPrior {
		out.Longitude = prior.Longitude
	} else {
		out.Longitude = p.refLon
	}

	if latTok != "" {
		off, err := strconv.ParseFloat(latTok, 64)
		if err != nil {
			p.invalidate(ErrMalformedRecord)
		} else {
			out.Latitude = p.refLat + off
		}
	} else if hadPrior {
		out.Latitude = prior.Latitude
	} else {
		out.Latitude = p.refLat
	}

	if altTok != "" {
		altMsl, err := strconv.ParseFloat(altTok, 64)
		if err != nil {
			p.invalidate(ErrMalformedRecord)
		} else {
			out.Altitude = altMsl + p.geoidHeightAt(out.Latitude, out.Longitude)
		}
	} else if hadPrior {
		out.Altitude = prior.Altitude
	} else {
		out.Altitude = p.geoidHeightAt(out.Latitude, out.Longitude)
	}

	// The last three slots are always (roll, pitch, yaw), whatever the
	// total token count (6 or 9). See DESIGN.md for the resolution of
	// the documented 9-slot packing ambiguity. Any middle tokens
	// (u/v, or whatever a 9-slot row carries between altitude and roll)
	// are never read.
	if len(tokens) >= 6 {
		n := len(tokens)
		rollTok, _ := tokenAt(n - 3)
		pitchTok, _ := tokenAt(n - 2)
		yawTok, _ := tokenAt(n - 1)

		out.Roll = p.decodeAngle(rollTok, prior.Roll)
		out.Pitch = p.decodeAngle(pitchTok, prior.Pitch)
		out.Yaw = p.decodeAngle(yawTok, prior.Yaw)
	} else if hadPrior {
		out.Roll = prior.Roll
		out.Pitch = prior.Pitch
		out.Yaw = prior.Yaw
	}

	return out
}

// decodeAngle parses a single degrees token to radians, or inherits the
// prior pointer when the token is empty.
func (p *parser) decodeAngle(token string, prior *float64) *float64 {
	if token == "" {
		return prior
	}
	deg, err := strconv.ParseFloat(token, 64)
	if err != nil {
		p.invalidate(ErrMalformedRecord)
		return prior
	}
	rad := deg * math.Pi / 180.0
	return &rad
}

func (p *parser) geoidHeightAt(lat, lon float64) float64 {
	if p.geoid == nil {
		return 0
	}
	return p.geoid.HeightAt(lat, lon)
}
