package types

// SentimentCounts is a tonality breakdown of distinct reviews.
type SentimentCounts struct {
	Positive int64 `json:"positive"`
	Neutral  int64 `json:"neutral"`
	Negative int64 `json:"negative"`
}

func (c SentimentCounts) Total() int64 {
	return c.Positive + c.Neutral + c.Negative
}

// Get returns the count for one sentiment.
func (c SentimentCounts) Get(s Sentiment) int64 {
	switch s {
	case SentimentPositive:
		return c.Positive
	case SentimentNeutral:
		return c.Neutral
	case SentimentNegative:
		return c.Negative
	}
	return 0
}

// Add increments the count for one sentiment.
func (c *SentimentCounts) Add(s Sentiment, n int64) {
	switch s {
	case SentimentPositive:
		c.Positive += n
	case SentimentNeutral:
		c.Neutral += n
	case SentimentNegative:
		c.Negative += n
	}
}
