package acmi

import "testing"

func TestLineScannerHeader(t *testing.T) {
	s := newLineScanner([]byte("FileType=text/acmi/tacview\nFileVersion=2.2\n0,ReferenceTime=2020-01-01T00:00:00Z\n"))

	line1, line2, ok := s.Header()
	if !ok {
		t.Fatalf("expected header lines, got none")
	}
	if line1 != "FileType=text/acmi/tacview" {
		t.Errorf("line1 = %q", line1)
	}
	if line2 != "FileVersion=2.2" {
		t.Errorf("line2 = %q", line2)
	}

	text, lineNo, ok := s.Next()
	if !ok {
		t.Fatalf("expected a third line")
	}
	if lineNo != 3 {
		t.Errorf("lineNo = %d, want 3", lineNo)
	}
	if text != "0,ReferenceTime=2020-01-01T00:00:00Z" {
		t.Errorf("text = %q", text)
	}
}

func TestLineScannerStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\nb\n")...)
	s := newLineScanner(data)
	line1, line2, ok := s.Header()
	if !ok || line1 != "a" || line2 != "b" {
		t.Fatalf("got %q %q %v", line1, line2, ok)
	}
}

func TestLineScannerSkipsCommentsAndBlankLines(t *testing.T) {
	s := newLineScanner([]byte("h1\nh2\n\n// a comment\nreal line\n"))
	s.Header()

	text, _, ok := s.Next()
	if !ok {
		t.Fatalf("expected a logical line")
	}
	if text != "real line" {
		t.Errorf("text = %q", text)
	}
}

func TestLineScannerJoinsContinuations(t *testing.T) {
	s := newLineScanner([]byte("h1\nh2\nfirst\\\nsecond\n"))
	s.Header()

	text, lineNo, ok := s.Next()
	if !ok {
		t.Fatalf("expected a logical line")
	}
	if lineNo != 3 {
		t.Errorf("lineNo = %d, want 3", lineNo)
	}
	if text != "first\nsecond" {
		t.Errorf("text = %q", text)
	}
}

func TestEndsWithUnescapedBackslash(t *testing.T) {
	cases := map[string]bool{
		"":        false,
		"a":       false,
		"a\\":     true,
		"a\\\\":   false,
		"a\\\\\\": true,
	}
	for input, want := range cases {
		if got := endsWithUnescapedBackslash(input); got != want {
			t.Errorf("endsWithUnescapedBackslash(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLineScannerCRLF(t *testing.T) {
	s := newLineScanner([]byte("h1\r\nh2\r\nbody\r\n"))
	line1, line2, ok := s.Header()
	if !ok || line1 != "h1" || line2 != "h2" {
		t.Fatalf("got %q %q %v", line1, line2, ok)
	}
	text, _, ok := s.Next()
	if !ok || text != "body" {
		t.Fatalf("text = %q, ok = %v", text, ok)
	}
}
