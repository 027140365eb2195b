package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestSplit_OffsetsAndLengths(t *testing.T) {
	doc := strings.Repeat("a", 250)
	cfg := Config{ChunkSize: 100, Overlap: 20}

	passages, err := Split("doc.txt", doc, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOffsets := []int{0, 80, 160}
	wantLengths := []int{100, 100, 90}

	if len(passages) != len(wantOffsets) {
		t.Fatalf("expected %d passages, got %d", len(wantOffsets), len(passages))
	}
	for i, p := range passages {
		if p.SourceOffset != wantOffsets[i] {
			t.Errorf("passage %d: offset = %d, want %d", i, p.SourceOffset, wantOffsets[i])
		}
		if len(p.Text) != wantLengths[i] {
			t.Errorf("passage %d: length = %d, want %d", i, len(p.Text), wantLengths[i])
		}
		if p.SourceDocument != "doc.txt" {
			t.Errorf("passage %d: source document = %q", i, p.SourceDocument)
		}
		if p.ID == "" {
			t.Errorf("passage %d: missing ID", i)
		}
	}
}

func TestSplit_Reassembly(t *testing.T) {
	docs := []string{
		"short",
		strings.Repeat("x", 100),
		strings.Repeat("abcdefghij", 37), // 370 chars, not a multiple of the step
		"Das Herz schlägt – Überlappung über Umlaute hinweg geprüft.",
	}
	configs := []Config{
		{ChunkSize: 100, Overlap: 20},
		{ChunkSize: 50, Overlap: 0},
		{ChunkSize: 10, Overlap: 9},
	}

	for _, doc := range docs {
		for _, cfg := range configs {
			passages, err := Split("d", doc, cfg)
			if err != nil {
				t.Fatalf("Split(%d/%d): unexpected error: %v", cfg.ChunkSize, cfg.Overlap, err)
			}
			if got := Reassemble(passages, cfg); got != doc {
				t.Errorf("Split(%d/%d): reassembled document differs\n got: %q\nwant: %q",
					cfg.ChunkSize, cfg.Overlap, got, doc)
			}
		}
	}
}

func TestSplit_ConsecutiveOverlap(t *testing.T) {
	doc := strings.Repeat("abcdefghij", 30)
	cfg := Config{ChunkSize: 70, Overlap: 15}

	passages, err := Split("d", doc, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(passages); i++ {
		prev := []rune(passages[i-1].Text)
		cur := []rune(passages[i].Text)
		tail := string(prev[len(prev)-cfg.Overlap:])
		head := string(cur[:cfg.Overlap])
		if tail != head {
			t.Fatalf("passages %d/%d do not overlap by %d: tail %q vs head %q", i-1, i, cfg.Overlap, tail, head)
		}
	}
}

func TestSplit_EmptyDocument(t *testing.T) {
	passages, err := Split("empty.md", "", Config{ChunkSize: 100, Overlap: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 0 {
		t.Fatalf("expected no passages, got %d", len(passages))
	}
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	cases := []Config{
		{ChunkSize: 100, Overlap: 100},
		{ChunkSize: 100, Overlap: 150},
		{ChunkSize: 0, Overlap: 0},
		{ChunkSize: -5, Overlap: 0},
		{ChunkSize: 100, Overlap: -1},
	}

	for _, cfg := range cases {
		if _, err := Split("d", "text", cfg); !errors.Is(err, ErrInvalidChunking) {
			t.Errorf("Split(%d/%d): expected ErrInvalidChunking, got %v", cfg.ChunkSize, cfg.Overlap, err)
		}
	}
}

func TestSplit_ShortDocumentSinglePassage(t *testing.T) {
	passages, err := Split("d", "tiny", Config{ChunkSize: 100, Overlap: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	if passages[0].Text != "tiny" || passages[0].SourceOffset != 0 {
		t.Fatalf("unexpected passage: %+v", passages[0])
	}
}

func TestSplit_UnicodeOffsetsAreRuneBased(t *testing.T) {
	doc := strings.Repeat("ü", 25)
	passages, err := Split("d", doc, Config{ChunkSize: 10, Overlap: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range passages {
		want := i * 8
		if p.SourceOffset != want {
			t.Errorf("passage %d: offset = %d, want %d", i, p.SourceOffset, want)
		}
	}
}
