// Package extract provides the ZIP container extractor the façade delegates
// to for compressed ACMI input (container extraction is treated as a host
// capability rather than core parser logic).
package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
)

// ErrCorruptContainer is returned when the archive cannot be opened or does
// not contain exactly one member.
var ErrCorruptContainer = errors.New("extract: archive must contain exactly one member")

// Zip is the default Extractor: it requires the archive hold exactly one
// file and returns that file's decompressed bytes. No third-party archive
// library appears anywhere in the retrieved example pack, so this is built
// directly on the standard library's archive/zip (see DESIGN.md).
type Zip struct{}

// New returns the default Zip extractor.
func New() *Zip {
	return &Zip{}
}

// Extract implements acmi.Extractor.
func (z *Zip) Extract(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrCorruptContainer
	}
	if len(r.File) != 1 {
		return nil, ErrCorruptContainer
	}

	rc, err := r.File[0].Open()
	if err != nil {
		return nil, ErrCorruptContainer
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, ErrCorruptContainer
	}
	return content, nil
}
