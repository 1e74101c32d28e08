package acmi

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/skyfathom/go-acmi/extract"
)

// Extractor unwraps a compressed container to the ACMI text it holds.
// extract.Zip is the default; callers may substitute a mock in tests or a
// streaming implementation that never materializes the whole archive.
type Extractor interface {
	Extract(data []byte) ([]byte, error)
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// Filter is the type-name exclusion list applied to newly seen entities.
	Filter []string
	// Geoid is the height model used to correct decoded altitudes. A nil
	// Geoid is valid and treats every geoid height as zero.
	Geoid *GeoidGrid
	// Extractor overrides the default ZIP extractor for compressed input.
	Extractor Extractor
	// Cancel is polled between logical lines; closing it aborts the parse
	// with ErrCancelled.
	Cancel <-chan struct{}
}

// Parse decodes an ACMI byte stream into an AcmiData.
// Structural problems in the document itself (missing/wrong/unsupported
// header, malformed records, an absent time span) degrade the returned
// AcmiData to IsValid == false rather than returning an error; only
// container corruption and cancellation are terminal errors.
func Parse(data []byte, opts ParseOptions) (*AcmiData, error) {
	if isZipContainer(data) {
		ex := opts.Extractor
		if ex == nil {
			ex = extract.New()
		}
		inner, err := ex.Extract(data)
		if err != nil {
			if errors.Is(err, extract.ErrCorruptContainer) {
				return nil, ErrCorruptContainer
			}
			return nil, errors.Join(ErrCorruptContainer, err)
		}
		data = inner
	}

	p := newParser(opts.Filter, opts.Geoid)

	scanner := newLineScanner(data)
	line1, line2, ok := scanner.Header()
	if !ok {
		p.data.IsValid = false
		p.data.LastError = ErrHeaderMissing
		return p.data, nil
	}

	header, herr := parseHeader(line1, line2)
	p.data.Header = header
	if herr != nil {
		p.data.IsValid = false
		p.data.LastError = herr
		return p.data, nil
	}

	for {
		if isCancelled(opts.Cancel) {
			return nil, ErrCancelled
		}
		line, _, ok := scanner.Next()
		if !ok {
			break
		}
		p.feedLine(line)
	}

	p.finalize()

	return p.data, nil
}

func isZipContainer(data []byte) bool {
	return len(data) >= 2 && data[0] == 'P' && data[1] == 'K'
}

func isCancelled(c <-chan struct{}) bool {
	if c == nil {
		return false
	}
	select {
	case <-c:
		return true
	default:
		return false
	}
}

// parseHeader validates the two mandatory first lines.
func parseHeader(line1, line2 string) (Header, error) {
	key1, val1, ok1 := splitKeyValue(line1)
	key2, val2, ok2 := splitKeyValue(line2)
	if !ok1 || !ok2 || !strings.EqualFold(key1, "FileType") || !strings.EqualFold(key2, "FileVersion") {
		return Header{}, ErrHeaderMissing
	}

	header := Header{FileType: val1, FileVersion: val2}
	if header.FileType != "text/acmi/tacview" {
		return header, ErrHeaderWrongType
	}
	if !lo.Contains(supportedVersions, header.FileVersion) {
		return header, ErrHeaderUnsupportedVersion
	}
	return header, nil
}

// finalize implements the end-of-parse bookkeeping: push
// the in-flight frame, compute the document time span, and default every
// entity's still-unset timeSpan.end.
func (p *parser) finalize() {
	p.data.Frames = append(p.data.Frames, Frame{
		TimeStamp: p.currentTimeStamp,
		Scene:     p.currentFrame,
	})

	ref := p.referenceTime()
	if !ref.Valid() {
		p.invalidate(ErrMalformedRecord)
		p.data.TimeSpan = TimeSpan{}
		return
	}

	firstNonEmpty := -1
	for i := range p.data.Frames {
		if p.data.Frames[i].Scene.Len() > 0 {
			firstNonEmpty = i
			break
		}
	}
	if firstNonEmpty < 0 {
		p.invalidate(ErrInvalidTimeSpan)
		p.data.TimeSpan = TimeSpan{}
		return
	}

	lastFrame := p.data.Frames[len(p.data.Frames)-1]
	p.data.TimeSpan = TimeSpan{
		Start: ref.AddSeconds(p.data.Frames[firstNonEmpty].TimeStamp),
		End:   ref.AddSeconds(lastFrame.TimeStamp),
	}

	for _, e := range p.data.Entities() {
		if !e.TimeSpan.End.Valid() {
			e.TimeSpan.End = p.data.TimeSpan.End
		}
	}
}
