package extract

import (
	"testing"
)

func TestSentences_BasicSplitting(t *testing.T) {
	text := "Acme builds robots. Globex sells them! Who wins? Nobody knows"
	sentences := Sentences(text)

	want := []string{"Acme builds robots.", "Globex sells them!", "Who wins?", "Nobody knows"}
	if len(sentences) != len(want) {
		t.Fatalf("Expected %d sentences, got %d: %+v", len(want), len(sentences), sentences)
	}

	for i, s := range sentences {
		if s.Text != want[i] {
			t.Errorf("Sentence %d: expected %q, got %q", i, want[i], s.Text)
		}
		if text[s.Start:s.End] != s.Text {
			t.Errorf("Sentence %d: range [%d,%d) does not match text", i, s.Start, s.End)
		}
	}
}

func TestSentences_NoSplitInsideTokens(t *testing.T) {
	sentences := Sentences("Version 2.5 of acme.com shipped. Done.")
	if len(sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %d: %+v", len(sentences), sentences)
	}
	if sentences[0].Text != "Version 2.5 of acme.com shipped." {
		t.Errorf("Unexpected first sentence %q", sentences[0].Text)
	}
}

func TestSentences_LineBreaks(t *testing.T) {
	sentences := Sentences("- Acme\n- Globex\n\n  שלום עולם  ")
	want := []string{"- Acme", "- Globex", "שלום עולם"}

	if len(sentences) != len(want) {
		t.Fatalf("Expected %d sentences, got %d: %+v", len(want), len(sentences), sentences)
	}
	for i, s := range sentences {
		if s.Text != want[i] {
			t.Errorf("Sentence %d: expected %q, got %q", i, want[i], s.Text)
		}
	}
}

func TestSentences_Empty(t *testing.T) {
	if got := Sentences(""); len(got) != 0 {
		t.Errorf("Expected no sentences, got %+v", got)
	}
	if got := Sentences("   \n  "); len(got) != 0 {
		t.Errorf("Expected no sentences for whitespace, got %+v", got)
	}
}

func TestEnclosing(t *testing.T) {
	text := "Acme wins. Globex loses."
	sentences := Sentences(text)

	s, ok := Enclosing(sentences, 11)
	if !ok || s.Text != "Globex loses." {
		t.Errorf("Expected second sentence, got %q (ok=%v)", s.Text, ok)
	}

	s, ok = Enclosing(sentences, 0)
	if !ok || s.Text != "Acme wins." {
		t.Errorf("Expected first sentence, got %q (ok=%v)", s.Text, ok)
	}

	if _, ok := Enclosing(sentences, 10); ok {
		t.Error("Expected no sentence for the gap between sentences")
	}
	if _, ok := Enclosing(nil, 0); ok {
		t.Error("Expected no sentence for empty input")
	}
}
