package acmi

import (
	"errors"
)

// Sentinel errors for the parser's error kinds.
//
// ErrCorruptContainer and ErrCancelled are terminal: Parse returns them
// directly and AcmiData is discarded. The remaining kinds never escape
// Parse as a returned error; they flip AcmiData.IsValid to false. After
// ErrMalformedRecord parsing continues with the offending record skipped;
// the header kinds stop parsing before any content line is read.
var (
	ErrHeaderMissing            = errors.New("acmi: header missing")
	ErrHeaderWrongType          = errors.New("acmi: file type is not text/acmi/tacview")
	ErrHeaderUnsupportedVersion = errors.New("acmi: unsupported file version")
	ErrMalformedRecord          = errors.New("acmi: malformed record")
	ErrCorruptContainer         = errors.New("acmi: corrupt zip container")
	ErrCancelled                = errors.New("acmi: parse cancelled")
	ErrInvalidTimeSpan          = errors.New("acmi: invalid time span")
)
