package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip.Create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestZipExtractSingleMember(t *testing.T) {
	data := makeZip(t, map[string]string{"flight.txt.acmi": "hello world"})

	got, err := New().Extract(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestZipExtractRejectsMultipleMembers(t *testing.T) {
	data := makeZip(t, map[string]string{"a.txt": "a", "b.txt": "b"})

	_, err := New().Extract(data)
	if !errors.Is(err, ErrCorruptContainer) {
		t.Fatalf("got %v, want ErrCorruptContainer", err)
	}
}

func TestZipExtractRejectsGarbage(t *testing.T) {
	_, err := New().Extract([]byte("not a zip file"))
	if !errors.Is(err, ErrCorruptContainer) {
		t.Fatalf("got %v, want ErrCorruptContainer", err)
	}
}
