package app_test

import (
	"testing"

	"review_insight/internal/app"
	"review_insight/internal/domain"
)

func TestWordFrequencies(t *testing.T) {
	in := []domain.Review{
		{Text: "Great product, great price!"},
		{Text: ""},
		{Text: "The price was GREAT and I don't regret it"},
	}
	words, ok := app.WordFrequencies(in, 0)
	if !ok {
		t.Fatalf("expected words")
	}
	if words[0] != (domain.WordCount{Word: "great", Count: 3}) {
		t.Fatalf("unexpected top word: %+v", words[0])
	}
	if words[1] != (domain.WordCount{Word: "price", Count: 2}) {
		t.Fatalf("unexpected second word: %+v", words[1])
	}
	for _, w := range words {
		switch w.Word {
		case "the", "and", "was", "don", "it":
			t.Fatalf("stop word leaked: %q", w.Word)
		}
	}
}

func TestWordFrequencies_Limit(t *testing.T) {
	words, ok := app.WordFrequencies([]domain.Review{{Text: "alpha beta gamma delta"}}, 2)
	if !ok || len(words) != 2 {
		t.Fatalf("expected 2 words, got %+v", words)
	}
	// ties broken alphabetically
	if words[0].Word != "alpha" || words[1].Word != "beta" {
		t.Fatalf("unexpected order: %+v", words)
	}
}

func TestWordFrequencies_NoText(t *testing.T) {
	if _, ok := app.WordFrequencies([]domain.Review{{Text: "  "}, {Text: ""}}, 10); ok {
		t.Fatalf("expected no content")
	}
	if _, ok := app.WordFrequencies(nil, 10); ok {
		t.Fatalf("expected no content for nil input")
	}
}
