package types

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// RawReview is one staging record as produced by the web parsers or the
// JSONL bulk loader. Rows are never deleted; the ingestion transformer flips
// Processed once the canonical rows exist.
type RawReview struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BankName           string         `gorm:"size:100;not null" json:"bank_name"`
	BankSlug           string         `gorm:"size:100;index:idx_reviews_for_model_bank_slug;index:idx_reviews_for_model_bank_product" json:"bank_slug"`
	ProductName        string         `gorm:"size:100;not null;index:idx_reviews_for_model_product_name;index:idx_reviews_for_model_bank_product" json:"product_name"`
	ReviewTheme        string         `gorm:"size:200" json:"review_theme"`
	Rating             string         `gorm:"size:20" json:"rating"`
	VerificationStatus string         `gorm:"size:100" json:"verification_status"`
	ReviewText         string         `gorm:"type:text;not null" json:"review_text"`
	ReviewDate         string         `gorm:"size:50" json:"review_date"`
	ReviewTimestamp    *time.Time     `gorm:"index:idx_reviews_for_model_review_timestamp" json:"review_timestamp,omitempty"`
	SourceURL          string         `gorm:"size:500" json:"source_url"`
	ParsedAt           time.Time      `gorm:"not null;autoCreateTime;index:idx_reviews_for_model_parsed_at" json:"parsed_at"`
	Processed          bool           `gorm:"not null;default:false;index:idx_reviews_for_model_processed" json:"processed"`
	AdditionalData     datatypes.JSON `gorm:"type:json" json:"additional_data,omitempty"`
}

func (RawReview) TableName() string {
	return "reviews_for_model"
}

// Predictions is the classifier output embedded in additional_data. All
// arrays are positionally aligned. The review-dates key historically appears
// with and without a trailing colon; both are accepted on read and the
// canonical spelling wins when both are present.
type Predictions struct {
	Topics         []string     `json:"topics"`
	Sentiments     []string     `json:"sentiments"`
	Sources        []string     `json:"sources"`
	ReviewDates    []string     `json:"review_dates"`
	ReviewDatesAlt []string     `json:"review_dates:"`
	Ratings        []FlexString `json:"ratings"`
}

// Aligned reports whether every non-empty prediction array matches the
// topics array in length. Singleton arrays are fine (dates and ratings
// are often written once per record); anything else is a bad record.
func (p *Predictions) Aligned() bool {
	n := len(p.Topics)
	for _, l := range []int{len(p.Sentiments), len(p.Sources), len(p.Dates()), len(p.Ratings)} {
		if l != 0 && l != n && l != 1 {
			return false
		}
	}
	return true
}

// Dates returns the review-dates array regardless of which spelling wrote it.
func (p *Predictions) Dates() []string {
	if len(p.ReviewDates) > 0 {
		return p.ReviewDates
	}
	return p.ReviewDatesAlt
}

// ParsePredictions extracts the predictions object out of a staging record's
// additional_data. ok is false when there is no predictions key at all.
func ParsePredictions(data datatypes.JSON) (Predictions, bool, error) {
	var envelope struct {
		Predictions *Predictions `json:"predictions"`
	}
	if len(data) == 0 {
		return Predictions{}, false, nil
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Predictions{}, false, err
	}
	if envelope.Predictions == nil {
		return Predictions{}, false, nil
	}
	return *envelope.Predictions, true, nil
}

// FlexString decodes a JSON string or number into a string. Parser output is
// not consistent about quoting ratings.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Int returns the value as an int when it is a pure integer literal.
func (f FlexString) Int() (int, bool) {
	n, err := strconv.Atoi(string(f))
	if err != nil {
		return 0, false
	}
	return n, true
}
