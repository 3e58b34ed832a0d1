package image

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// pngHeader is enough of a PNG for content sniffing to identify it.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestIsInline(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"data:image/png;base64,abcd", true},
		{"data:image/jpeg;base64,", true},
		{"1736941200000", false},
		{"", false},
		{"https://example.com/image.png", false},
	}

	for _, tt := range tests {
		if got := IsInline(tt.in); got != tt.want {
			t.Errorf("IsInline(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}

	inline := Encode("image/png", data)
	if !IsInline(inline) {
		t.Fatalf("Encode() produced non-inline payload %q", inline)
	}

	mimeType, decoded, err := Decode(inline)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("Decode() mime = %q, want image/png", mimeType)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("Decode() data = %v, want %v", decoded, data)
	}
}

func TestEncode_DefaultMIME(t *testing.T) {
	inline := Encode("", []byte{1})
	if !strings.HasPrefix(inline, "data:image/jpeg;base64,") {
		t.Errorf("Encode() = %q, want image/jpeg default", inline)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, _, err := Decode("not-a-data-url"); err == nil {
		t.Error("Decode() of reference payload should fail")
	}
	if _, _, err := Decode("data:image/png,plainencoding"); err == nil {
		t.Error("Decode() without base64 marker should fail")
	}
	if _, _, err := Decode("data:image/png;base64,!!!"); err == nil {
		t.Error("Decode() of invalid base64 should fail")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "front.png")
	if err := os.WriteFile(path, pngHeader, 0644); err != nil {
		t.Fatal(err)
	}

	inline, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !strings.HasPrefix(inline, "data:image/png;base64,") {
		t.Errorf("LoadFile() = %q, want png data URL", truncate(inline, 40))
	}

	mimeType, data, err := Decode(inline)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mime = %q, want image/png", mimeType)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Error("decoded bytes differ from file contents")
	}
}

func TestLoadFile_RejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("just some text content here"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should reject non-image content")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("LoadFile() of missing file should fail")
	}
}

func TestSaver_Save(t *testing.T) {
	dir := t.TempDir()
	inline := Encode("image/png", pngHeader)

	path, err := NewSaver().Save(inline, filepath.Join(dir, "export"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Ext(path) != ".png" {
		t.Errorf("Save() path = %q, want .png extension", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Error("saved bytes differ from payload")
	}
}

func TestSaver_Save_InvalidPayload(t *testing.T) {
	if _, err := NewSaver().Save("some-id", ""); err == nil {
		t.Error("Save() of reference payload should fail")
	}
}

func TestGenerateFilename(t *testing.T) {
	ts := time.Date(2025, 1, 15, 12, 30, 45, 0, time.UTC)

	got := GenerateFilename("image/jpeg", ts)
	want := "look-20250115-123045.jpg"
	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestExtForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/webp", "webp"},
		{"application/octet-stream", "png"},
	}
	for _, tt := range tests {
		if got := ExtForMIME(tt.mime); got != tt.want {
			t.Errorf("ExtForMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestDecode_Base64Padding(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("x"))
	if _, data, err := Decode("data:image/png;base64," + payload); err != nil || len(data) != 1 {
		t.Errorf("Decode() = %v bytes, err %v; want 1 byte, nil", len(data), err)
	}
}
