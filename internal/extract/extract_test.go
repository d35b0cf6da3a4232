package extract

import (
	"errors"
	"testing"
)

func TestTextPlainPassthrough(t *testing.T) {
	got, err := Text([]byte("hello resume"), "text/plain")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "hello resume" {
		t.Errorf("got %q", got)
	}
}

func TestTextShortTokens(t *testing.T) {
	// 短后缀与 MIME 应当等价。
	if _, err := Text([]byte("x"), "txt"); err != nil {
		t.Errorf("txt token: %v", err)
	}
	if _, err := Text([]byte("not a real pdf"), "pdf"); err == nil {
		t.Error("expected pdf parse failure for garbage bytes")
	}
}

func TestTextUnsupportedType(t *testing.T) {
	for _, fileType := range []string{"image/png", "application/zip", "", "exe"} {
		_, err := Text([]byte("data"), fileType)
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Text(%q) err = %v, want ErrUnsupportedType", fileType, err)
		}
	}
}

func TestTextCorruptDocx(t *testing.T) {
	_, err := Text([]byte("not a zip archive"), "docx")
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if errors.Is(err, ErrUnsupportedType) {
		t.Fatal("corrupt docx should fail with a parse error, not unsupported type")
	}
}
