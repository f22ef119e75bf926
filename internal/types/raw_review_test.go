package types

import (
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
)

func TestParsePredictions(t *testing.T) {
	payload := datatypes.JSON(`{"predictions":{"topics":["creditcards","mobile_app"],"sentiments":["положительная","отрицательная"],"ratings":[4],"review_dates":["10.04.2025"]}}`)
	p, ok, err := ParsePredictions(payload)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !ok {
		t.Fatalf("predictions key not found")
	}
	if len(p.Topics) != 2 || p.Topics[0] != "creditcards" {
		t.Fatalf("topics = %v", p.Topics)
	}
	if len(p.Ratings) != 1 || p.Ratings[0].String() != "4" {
		t.Fatalf("ratings = %v", p.Ratings)
	}
	if !p.Aligned() {
		t.Fatalf("singleton ratings and dates must be aligned")
	}

	if _, ok, err := ParsePredictions(datatypes.JSON(`{"other":1}`)); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if _, ok, err := ParsePredictions(nil); err != nil || ok {
		t.Fatalf("empty data: ok=%v err=%v", ok, err)
	}
	if _, _, err := ParsePredictions(datatypes.JSON(`{broken`)); err == nil {
		t.Fatalf("malformed json must error")
	}
}

func TestPredictionsDatesKeyPreference(t *testing.T) {
	var p Predictions
	raw := `{"topics":["cards"],"review_dates":["2025-01-01"],"review_dates:":["1999-01-01"]}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got := p.Dates(); len(got) != 1 || got[0] != "2025-01-01" {
		t.Fatalf("dates = %v, want the canonical key to win", got)
	}

	var alt Predictions
	raw = `{"topics":["cards"],"review_dates:":["1999-01-01"]}`
	if err := json.Unmarshal([]byte(raw), &alt); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got := alt.Dates(); len(got) != 1 || got[0] != "1999-01-01" {
		t.Fatalf("dates = %v, want the colon key as fallback", got)
	}
}

func TestPredictionsAligned(t *testing.T) {
	cases := []struct {
		name string
		p    Predictions
		want bool
	}{
		{"all matching", Predictions{Topics: []string{"a", "b"}, Sentiments: []string{"x", "y"}}, true},
		{"singleton ok", Predictions{Topics: []string{"a", "b"}, Ratings: []FlexString{"4"}}, true},
		{"empty arrays ok", Predictions{Topics: []string{"a", "b"}}, true},
		{"mismatch", Predictions{Topics: []string{"a", "b", "c"}, Sentiments: []string{"x", "y"}}, false},
		{"dates mismatch", Predictions{Topics: []string{"a"}, ReviewDates: []string{"d1", "d2"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Aligned(); got != tc.want {
				t.Fatalf("aligned = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFlexString(t *testing.T) {
	var doc struct {
		Ratings []FlexString `json:"ratings"`
	}
	if err := json.Unmarshal([]byte(`{"ratings":["5 из 5", 4, "3"]}`), &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if doc.Ratings[0].String() != "5 из 5" {
		t.Fatalf("ratings[0] = %q", doc.Ratings[0])
	}
	if doc.Ratings[1].String() != "4" {
		t.Fatalf("ratings[1] = %q", doc.Ratings[1])
	}
	if n, ok := doc.Ratings[2].Int(); !ok || n != 3 {
		t.Fatalf("ratings[2].Int() = %d,%v", n, ok)
	}
	if _, ok := doc.Ratings[0].Int(); ok {
		t.Fatalf("non-numeric value must not parse as int")
	}
}
