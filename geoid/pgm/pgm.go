// Package pgm loads a binary PGM raster into an acmi.GeoidGrid. Parsing the
// raster is a host capability deliberately kept out of the
// core: the core only ever consumes a *acmi.GeoidGrid, never raw bytes.
package pgm

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/skyfathom/go-acmi"
)

// Options carries the angular spacing and origin a PGM raster's header
// cannot express on its own. EGM2008-style geoid rasters are plain
// grayscale images with no embedded geodetic metadata.
type Options struct {
	DLat, DLon float64
	Lat0, Lon0 float64
}

// Load decodes a binary (P5) PGM image into a GeoidGrid. Samples are
// offset-binary: a pixel value of (maxval+1)/2 decodes to a height of
// zero metres, matching the convention NOAA's egm2008 PGM distributions
// use to represent negative heights in an unsigned raster.
func Load(data []byte, opts Options) (*acmi.GeoidGrid, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	magic, err := readToken(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading PGM magic")
	}
	if magic != "P5" {
		return nil, errors.Errorf("pgm: unsupported magic %q, only binary P5 is supported", magic)
	}

	width, err := readIntToken(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading PGM width")
	}
	height, err := readIntToken(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading PGM height")
	}
	maxval, err := readIntToken(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading PGM maxval")
	}
	bytesPerSample := 1
	if maxval > 255 {
		bytesPerSample = 2
	}

	raw := make([]byte, width*height*bytesPerSample)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrap(err, "reading PGM raster body")
	}

	bias := int32((maxval + 1) / 2)
	heights := make([]int16, width*height)
	for i := 0; i < width*height; i++ {
		var v uint32
		if bytesPerSample == 2 {
			v = uint32(binary.BigEndian.Uint16(raw[i*2:]))
		} else {
			v = uint32(raw[i])
		}
		heights[i] = int16(int32(v) - bias)
	}

	return &acmi.GeoidGrid{
		Rows:    height,
		Cols:    width,
		DLat:    opts.DLat,
		DLon:    opts.DLon,
		Lat0:    opts.Lat0,
		Lon0:    opts.Lon0,
		Heights: heights,
	}, nil
}

// readToken skips whitespace and '#' comment lines, then reads one
// whitespace-delimited token, the minimal parsing the PGM plain header
// needs.
func readToken(r *bufio.Reader) (string, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
			continue
		}
		if isPGMSpace(b) {
			continue
		}

		var tok bytes.Buffer
		tok.WriteByte(b)
		for {
			b, err := r.ReadByte()
			if err != nil || isPGMSpace(b) {
				return tok.String(), nil
			}
			tok.WriteByte(b)
		}
	}
}

func readIntToken(r *bufio.Reader) (int, error) {
	tok, err := readToken(r)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

func isPGMSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
