package extract

import (
	"testing"
)

func TestReconstructTextElements(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"texts": [{"text": " Abstract "}, {"text": "First paragraph."}, {"text": "Second paragraph."}]}`)

	got, err := Reconstruct(raw)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	want := "Abstract\n\nFirst paragraph.\n\nSecond paragraph.\n\n"
	if got != want {
		t.Fatalf("unexpected reconstruction:\n got %q\nwant %q", got, want)
	}
}

func TestReconstructBareString(t *testing.T) {
	t.Parallel()

	got, err := Reconstruct([]byte(`"the full document text"`))
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if got != "the full document text" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestReconstructRootLevelText(t *testing.T) {
	t.Parallel()

	got, err := Reconstruct([]byte(`{"text": "flat body"}`))
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if got != "flat body" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestReconstructMalformed(t *testing.T) {
	t.Parallel()

	if _, err := Reconstruct([]byte(`{broken`)); err == nil {
		t.Fatalf("expected error for malformed artifact")
	}
}
