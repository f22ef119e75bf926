package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

func TestParseStagingDate(t *testing.T) {
	fallback := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)

	cases := []struct {
		name     string
		raw      string
		fallback *time.Time
		want     string
		ok       bool
	}{
		{"dotted with time", "10.04.2025 09:00", nil, "2025-04-10", true},
		{"dotted", "10.04.2025", nil, "2025-04-10", true},
		{"iso with time", "2025-04-10 09:00:00", nil, "2025-04-10", true},
		{"iso", "2025-04-10", nil, "2025-04-10", true},
		{"russian month", "15 марта 2024", nil, "2024-03-15", true},
		{"russian month single digit", "3 января 2025", nil, "2025-01-03", true},
		{"embedded dotted", "отзыв от 01.02.2023 проверен", nil, "2023-02-01", true},
		{"garbage with fallback", "вчера", &fallback, "2023-06-01", true},
		{"garbage without fallback", "вчера", nil, "", false},
		{"empty with fallback", "", &fallback, "2023-06-01", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseStagingDate(tc.raw, tc.fallback)
			if ok != tc.ok {
				t.Fatalf("ParseStagingDate(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			}
			if !tc.ok {
				return
			}
			if got.Format("2006-01-02") != tc.want {
				t.Fatalf("ParseStagingDate(%q) = %s, want %s", tc.raw, got.Format("2006-01-02"), tc.want)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"4", 4, true},
		{"5 из 5", 5, true},
		{"Оценка: 3", 3, true},
		{"0", 0, false},
		{"без оценки", 0, false},
		{"", 0, false},
		{"10", 0, false},
	}
	for _, tc := range cases {
		got := ParseRating(tc.raw)
		if tc.ok {
			if got == nil || *got != tc.want {
				t.Fatalf("ParseRating(%q) = %v, want %d", tc.raw, got, tc.want)
			}
		} else if got != nil {
			t.Fatalf("ParseRating(%q) = %d, want nil", tc.raw, *got)
		}
	}
}

func TestTranslateSentiment(t *testing.T) {
	cases := []struct {
		raw  string
		want types.Sentiment
		ok   bool
	}{
		{"положительная", types.SentimentPositive, true},
		{"Позитивная", types.SentimentPositive, true},
		{"негативная", types.SentimentNegative, true},
		{"отрицательная", types.SentimentNegative, true},
		{"нейтральная", types.SentimentNeutral, true},
		{"positive", types.SentimentPositive, true},
		{"что-то", "", false},
	}
	for _, tc := range cases {
		got, ok := TranslateSentiment(tc.raw)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("TranslateSentiment(%q) = %q, %v", tc.raw, got, ok)
		}
	}
}

func TestAggregateSentiment(t *testing.T) {
	cases := []struct {
		name string
		raw  []string
		want types.Sentiment
	}{
		{"majority positive", []string{"положительная", "положительная", "негативная"}, types.SentimentPositive},
		{"tie is neutral", []string{"положительная", "негативная"}, types.SentimentNeutral},
		{"empty is neutral", nil, types.SentimentNeutral},
		{"untranslatable skipped", []string{"мусор", "негативная"}, types.SentimentNegative},
		{"all untranslatable is neutral", []string{"мусор", "шум"}, types.SentimentNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregateSentiment(tc.raw); got != tc.want {
				t.Fatalf("AggregateSentiment(%v) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestTranslateTopic(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"creditcards", "Кредитные карты"},
		{"debitcards", "Дебетовые карты"},
		{"mobile_app", "Приложение"},
		{"hypothec", "Ипотека"},
		{"general", "Другой"},
		{"unknown_topic", "unknown_topic"},
	}
	for _, tc := range cases {
		if got := TranslateTopic(tc.raw); got != tc.want {
			t.Fatalf("TranslateTopic(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParentFor(t *testing.T) {
	parent, ok := ParentFor("Ипотека")
	if !ok || parent != "Кредитование" {
		t.Fatalf("ParentFor(Ипотека) = %q, %v", parent, ok)
	}
	if _, ok := ParentFor("Карты"); ok {
		t.Fatalf("top-level category must have no parent")
	}
}

func TestParseWindowDate(t *testing.T) {
	start, err := ParseWindowDate("2025-01", GranularityMonth, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Format("2006-01-02") != "2025-01-01" {
		t.Fatalf("month start = %s", start.Format("2006-01-02"))
	}

	end, err := ParseWindowDate("2025-02", GranularityMonth, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if end.Format("2006-01-02") != "2025-02-28" {
		t.Fatalf("month end = %s", end.Format("2006-01-02"))
	}

	if _, err := ParseWindowDate("2025-01", GranularityDay, false); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("YYYY-MM outside month granularity must be a bad request, got %v", err)
	}
	if _, err := ParseWindowDate("junk", GranularityMonth, false); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("junk date must be a bad request, got %v", err)
	}
}
