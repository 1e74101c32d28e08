package acmi

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

const minimalAcmi = "FileType=text/acmi/tacview\n" +
	"FileVersion=2.2\n" +
	"0,ReferenceTime=2020-01-01T00:00:00Z\n" +
	"0,ReferenceLongitude=10,ReferenceLatitude=20\n" +
	"#0\n" +
	"7fe,T=0|0|1000,Name=F-16,Type=Air+FixedWing\n" +
	"#1\n" +
	"7fe,T=0.001|0.001|1010\n"

func TestParseMinimalDocument(t *testing.T) {
	data, err := Parse([]byte(minimalAcmi), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !data.IsValid {
		t.Fatalf("expected a valid document")
	}
	if len(data.Entities()) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(data.Entities()))
	}
	if len(data.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(data.Frames))
	}
	if !data.TimeSpan.Valid() {
		t.Fatalf("expected a valid document time span")
	}
	if got := data.TimeSpan.Duration(); got != 1 {
		t.Errorf("Duration = %v, want 1", got)
	}
}

func TestParseMissingHeaderIsInvalid(t *testing.T) {
	data, err := Parse([]byte("not a header at all"), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.IsValid {
		t.Fatalf("expected an invalid document")
	}
}

func TestParseUnsupportedVersionIsInvalid(t *testing.T) {
	doc := "FileType=text/acmi/tacview\nFileVersion=9.9\n"
	data, err := Parse([]byte(doc), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.IsValid {
		t.Fatalf("expected an invalid document for an unsupported version")
	}
}

func TestParseMissingReferenceTimeIsInvalid(t *testing.T) {
	doc := "FileType=text/acmi/tacview\n" +
		"FileVersion=2.2\n" +
		"#0\n" +
		"7fe,T=0|0|0,Name=F-16\n"
	data, err := Parse([]byte(doc), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.IsValid {
		t.Fatalf("expected an invalid document when no reference time is ever established")
	}
}

func TestParseFilterExcludesEntities(t *testing.T) {
	data, err := Parse([]byte(minimalAcmi), ParseOptions{Filter: []string{"Air"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Entities()) != 0 {
		t.Fatalf("expected the filter to exclude the only entity, got %d", len(data.Entities()))
	}
}

func TestParseZipContainer(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("flight.txt.acmi")
	if err != nil {
		t.Fatalf("zip.Create: %v", err)
	}
	if _, err := w.Write([]byte(minimalAcmi)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	data, err := Parse(buf.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !data.IsValid {
		t.Fatalf("expected a valid document decoded from a zip container")
	}
	if len(data.Entities()) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(data.Entities()))
	}
}

func TestParseCorruptZipContainer(t *testing.T) {
	_, err := Parse([]byte("PK\x03\x04not a real zip"), ParseOptions{})
	if !errors.Is(err, ErrCorruptContainer) {
		t.Fatalf("got error %v, want ErrCorruptContainer", err)
	}
}

func TestParseCancellation(t *testing.T) {
	cancel := make(chan struct{})
	close(cancel)
	_, err := Parse([]byte(minimalAcmi), ParseOptions{Cancel: cancel})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got error %v, want ErrCancelled", err)
	}
}
