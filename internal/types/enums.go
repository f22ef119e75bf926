package types

// ProductType places a node in the product hierarchy.
type ProductType string

const (
	ProductTypeCategory    ProductType = "category"
	ProductTypeSubcategory ProductType = "subcategory"
	ProductTypeSubtype     ProductType = "subtype"
	ProductTypeProduct     ProductType = "product"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeCategory, ProductTypeSubcategory, ProductTypeSubtype, ProductTypeProduct:
		return true
	}
	return false
}

// ClientType marks which audience a product targets.
type ClientType string

const (
	ClientTypeIndividual ClientType = "individual"
	ClientTypeBusiness   ClientType = "business"
	ClientTypeBoth       ClientType = "both"
)

func (t ClientType) Valid() bool {
	switch t {
	case ClientTypeIndividual, ClientTypeBusiness, ClientTypeBoth:
		return true
	}
	return false
}

// Sentiment is the closed tonality enum. Absence is expressed with a nil
// pointer, never an empty string.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// NotificationType selects the threshold predicate a rule applies.
type NotificationType string

const (
	NotificationTypeReviewSpike      NotificationType = "review_spike"
	NotificationTypeSentimentDecline NotificationType = "sentiment_decline"
	NotificationTypeRatingDrop       NotificationType = "rating_drop"
	NotificationTypeNegativeSpike    NotificationType = "negative_spike"
	NotificationTypeClusterAlert     NotificationType = "cluster_alert"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeReviewSpike, NotificationTypeSentimentDecline, NotificationTypeRatingDrop,
		NotificationTypeNegativeSpike, NotificationTypeClusterAlert:
		return true
	}
	return false
}

// NotificationPeriod selects the comparison windows for a rule.
type NotificationPeriod string

const (
	NotificationPeriodDaily   NotificationPeriod = "daily"
	NotificationPeriodWeekly  NotificationPeriod = "weekly"
	NotificationPeriodMonthly NotificationPeriod = "monthly"
)

func (p NotificationPeriod) Valid() bool {
	switch p {
	case NotificationPeriodDaily, NotificationPeriodWeekly, NotificationPeriodMonthly:
		return true
	}
	return false
}
