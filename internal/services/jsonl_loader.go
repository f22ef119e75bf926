package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gorm.io/datatypes"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// LoadResult reports one JSONL import.
type LoadResult struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// stagingLine mirrors one staging record as serialized in export files.
type stagingLine struct {
	BankName           string          `json:"bank_name"`
	BankSlug           string          `json:"bank_slug"`
	ProductName        string          `json:"product_name"`
	ReviewTheme        string          `json:"review_theme"`
	Rating             types.FlexString `json:"rating"`
	VerificationStatus string          `json:"verification_status"`
	ReviewText         string          `json:"review_text"`
	ReviewDate         string          `json:"review_date"`
	ReviewTimestamp    *time.Time      `json:"review_timestamp,omitempty"`
	SourceURL          string          `json:"source_url"`
	AdditionalData     json.RawMessage `json:"additional_data,omitempty"`
}

// JSONLLoader streams newline-delimited staging records into the staging
// table. Bad lines are counted and skipped, never fatal.
type JSONLLoader interface {
	LoadFile(ctx context.Context, path string) (*LoadResult, error)
	Load(ctx context.Context, r io.Reader) (*LoadResult, error)
}

type jsonlLoader struct {
	rawReviews repos.RawReviewRepo
	log        *logger.Logger
}

func NewJSONLLoader(rawReviews repos.RawReviewRepo, baseLog *logger.Logger) JSONLLoader {
	svcLog := baseLog.With("service", "JSONLLoader")
	return &jsonlLoader{rawReviews: rawReviews, log: svcLog}
}

func (jl *jsonlLoader) LoadFile(ctx context.Context, path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	defer f.Close()
	return jl.Load(ctx, f)
}

func (jl *jsonlLoader) Load(ctx context.Context, r io.Reader) (*LoadResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	result := &LoadResult{}
	var batch []*types.RawReview
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record stagingLine
		if err := json.Unmarshal(line, &record); err != nil {
			jl.log.Warn("Skipping malformed line", "line", lineNo, "error", err)
			result.Skipped++
			continue
		}
		if record.ReviewText == "" {
			result.Skipped++
			continue
		}
		raw := &types.RawReview{
			BankName:           record.BankName,
			BankSlug:           record.BankSlug,
			ProductName:        record.ProductName,
			ReviewTheme:        record.ReviewTheme,
			Rating:             record.Rating.String(),
			VerificationStatus: record.VerificationStatus,
			ReviewText:         record.ReviewText,
			ReviewDate:         record.ReviewDate,
			ReviewTimestamp:    record.ReviewTimestamp,
			SourceURL:          record.SourceURL,
		}
		if len(record.AdditionalData) > 0 {
			raw.AdditionalData = datatypes.JSON(record.AdditionalData)
		}
		batch = append(batch, raw)

		if len(batch) >= 500 {
			if _, err := jl.rawReviews.BulkCreate(ctx, nil, batch); err != nil {
				return nil, err
			}
			result.Loaded += len(batch)
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(batch) > 0 {
		if _, err := jl.rawReviews.BulkCreate(ctx, nil, batch); err != nil {
			return nil, err
		}
		result.Loaded += len(batch)
	}

	jl.log.Info("JSONL import finished", "loaded", result.Loaded, "skipped", result.Skipped)
	return result, nil
}
