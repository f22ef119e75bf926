package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// Staging date formats, tried in order.
var stagingDateLayouts = []string{
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var russianMonths = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

var (
	dottedDateRe  = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
	russianDateRe = regexp.MustCompile(`(\d{1,2})\s+([а-яА-Я]+)\s+(\d{4})`)
	digitRunRe    = regexp.MustCompile(`\d+`)
)

// ParseStagingDate turns a raw staging date string into a calendar date.
// Falls back to the staging record's parse timestamp when nothing matches.
func ParseStagingDate(raw string, fallback *time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range stagingDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return truncateToDay(t), true
			}
		}
		if m := russianDateRe.FindStringSubmatch(raw); m != nil {
			if month, ok := russianMonths[strings.ToLower(m[2])]; ok {
				var day, year int
				fmt.Sscanf(m[1], "%d", &day)
				fmt.Sscanf(m[3], "%d", &year)
				if day >= 1 && day <= 31 {
					return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
				}
			}
		}
		if m := dottedDateRe.FindStringSubmatch(raw); m != nil {
			if t, err := time.Parse("02.01.2006", m[0]); err == nil {
				return truncateToDay(t), true
			}
		}
	}
	if fallback != nil {
		return truncateToDay(*fallback), true
	}
	return time.Time{}, false
}

// ParseRating extracts the first run of digits and keeps it when it lands
// in [1,5]. A zero or out-of-range value means no rating.
func ParseRating(raw string) *int {
	m := digitRunRe.FindString(raw)
	if m == "" {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(m, "%d", &n); err != nil {
		return nil
	}
	if n < 1 || n > 5 {
		return nil
	}
	return &n
}

var sentimentTranslations = map[string]types.Sentiment{
	"положительная": types.SentimentPositive,
	"позитивная":    types.SentimentPositive,
	"positive":      types.SentimentPositive,
	"негативная":    types.SentimentNegative,
	"отрицательная": types.SentimentNegative,
	"negative":      types.SentimentNegative,
	"нейтральная":   types.SentimentNeutral,
	"neutral":       types.SentimentNeutral,
}

// TranslateSentiment maps a source-language sentiment label to the
// canonical value. Unknown labels do not translate.
func TranslateSentiment(raw string) (types.Sentiment, bool) {
	s, ok := sentimentTranslations[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// SentimentScore maps an aggregate sentiment to its fixed score.
func SentimentScore(s types.Sentiment) float64 {
	switch s {
	case types.SentimentPositive:
		return 0.8
	case types.SentimentNegative:
		return -0.8
	}
	return 0.0
}

// AggregateSentiment takes the majority across translated labels. Ties and
// empty inputs come out neutral.
func AggregateSentiment(raw []string) types.Sentiment {
	var counts types.SentimentCounts
	for _, label := range raw {
		if s, ok := TranslateSentiment(label); ok {
			counts.Add(s, 1)
		}
	}
	best := types.SentimentNeutral
	bestCount := int64(0)
	tied := false
	for _, s := range []types.Sentiment{types.SentimentPositive, types.SentimentNeutral, types.SentimentNegative} {
		c := counts.Get(s)
		if c > bestCount {
			best, bestCount, tied = s, c, false
		} else if c == bestCount && c > 0 && s != best {
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return types.SentimentNeutral
	}
	return best
}

var topicTranslations = map[string]string{
	"cards":       "Карты",
	"deposits":    "Вклады",
	"credits":     "Кредитование",
	"service":     "Обслуживание",
	"mobile_app":  "Приложение",
	"other":       "Другой",
	"creditcards": "Кредитные карты",
	"debitcards":  "Дебетовые карты",
	"restructing": "Реструктуризация",
	"hypothec":    "Ипотека",
	"remote":      "Дистанционное обслуживание",
	"offline":     "Очное обслуживание",
	"general":     "Другой",
}

// TranslateTopic maps a model topic code to its display name. Unknown
// topics pass through verbatim.
func TranslateTopic(topic string) string {
	if name, ok := topicTranslations[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return name
	}
	return strings.TrimSpace(topic)
}

// topicParents keys display names (lowercased) to their parent category.
var topicParents = map[string]string{
	"кредитные карты":            "Карты",
	"дебетовые карты":            "Карты",
	"кредиты":                    "Кредитование",
	"реструктуризация":           "Кредитование",
	"ипотека":                    "Кредитование",
	"дистанционное обслуживание": "Обслуживание",
	"очное обслуживание":         "Обслуживание",
}

// ParentFor returns the category a display name nests under, when the
// fixed mapping knows it. Top-level categories have no parent.
func ParentFor(displayName string) (string, bool) {
	parent, ok := topicParents[strings.ToLower(strings.TrimSpace(displayName))]
	return parent, ok
}

// InferSource derives a canonical source label from a staging URL.
func InferSource(sourceURL, fallback string) string {
	lowered := strings.ToLower(sourceURL)
	switch {
	case strings.Contains(lowered, "banki"):
		return "Banki.ru"
	case strings.Contains(lowered, "sravni"):
		return "Sravni.ru"
	}
	return fallback
}

// ParseWindowDate accepts YYYY-MM-DD always, and YYYY-MM when the
// granularity is month. A YYYY-MM start expands to the first day of the
// month, an end to the last day.
func ParseWindowDate(raw string, granularity string, isEnd bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if granularity == GranularityMonth {
		if t, err := time.Parse("2006-01", raw); err == nil {
			if isEnd {
				return t.AddDate(0, 1, -1), nil
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", apperr.ErrBadRequest, raw)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
