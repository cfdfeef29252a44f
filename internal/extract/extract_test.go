package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromBytes_PlainText(t *testing.T) {
	text, err := FromBytes(context.Background(), []byte("  Jane Doe\nGo Engineer  "), "text/plain; charset=utf-8", "resume.txt")
	if err != nil {
		t.Fatalf("extract plain text: %v", err)
	}
	if text != "Jane Doe\nGo Engineer" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestFromBytes_EmptyRejected(t *testing.T) {
	if _, err := FromBytes(context.Background(), nil, "application/pdf", "resume.pdf"); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = FromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if err == nil {
		t.Fatal("expected unsupported mime error for zip")
	}
	if !strings.Contains(err.Error(), "unsupported mime type") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFromBytes_UnknownMimeRejected(t *testing.T) {
	if _, err := FromBytes(context.Background(), []byte("x"), "image/png", "avatar.png"); err == nil {
		t.Fatal("expected unsupported mime error")
	}
}

func TestStripDocxTagsKeepsText(t *testing.T) {
	raw := `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`
	if got := stripDocxTags(raw); got != "Jane Doe" {
		t.Fatalf("unexpected stripped text: %q", got)
	}
}
