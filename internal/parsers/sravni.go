package parsers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

const sravniBaseURL = "https://www.sravni.ru"

type sravniParser struct {
	httpClient *http.Client
	log        *logger.Logger
}

// NewSravniParser scrapes the Sravni.ru bank review pages.
func NewSravniParser(baseLog *logger.Logger) Parser {
	return &sravniParser{
		httpClient: newHTTPClient(),
		log:        baseLog.With("parser", "sravni"),
	}
}

func (sp *sravniParser) Source() string {
	return "sravni"
}

func (sp *sravniParser) Parse(ctx context.Context, bankSlug string, pages int) ([]*types.RawReview, error) {
	if pages < 1 {
		pages = 1
	}

	var records []*types.RawReview
	for page := 1; page <= pages; page++ {
		url := fmt.Sprintf("%s/bank/%s/otzyvy/?page=%d", sravniBaseURL, bankSlug, page)
		doc, err := fetchDocument(ctx, sp.httpClient, url)
		if err != nil {
			if len(records) > 0 {
				sp.log.Warn("Stopping pagination early", "page", page, "error", err)
				break
			}
			return nil, err
		}

		before := len(records)
		doc.Find("div[class*='review-card'], article[class*='ReviewCard']").Each(func(_ int, item *goquery.Selection) {
			record := sp.parseItem(item, bankSlug, url)
			if record != nil {
				records = append(records, record)
			}
		})
		if len(records) == before {
			break
		}
	}

	sp.log.Info("Parsed Sravni.ru reviews", "bank", bankSlug, "count", len(records))
	return records, nil
}

func (sp *sravniParser) parseItem(item *goquery.Selection, bankSlug, pageURL string) *types.RawReview {
	text := cleanText(item.Find("div[class*='review-card_text'], p[class*='text']").First().Text())
	if text == "" {
		return nil
	}

	theme := cleanText(item.Find("a[class*='review-card_title'], h3").First().Text())
	rating := strings.TrimSpace(item.Find("div[class*='rating'] span, span[class*='grade']").First().Text())
	date := cleanText(item.Find("div[class*='date'], time").First().Text())

	sourceURL := pageURL
	if href, ok := item.Find("a[class*='review-card_title'], h3 a").First().Attr("href"); ok {
		if strings.HasPrefix(href, "/") {
			href = sravniBaseURL + href
		}
		sourceURL = href
	}

	return &types.RawReview{
		BankName:           bankSlug,
		BankSlug:           bankSlug,
		ProductName:        "general",
		ReviewTheme:        theme,
		Rating:             rating,
		VerificationStatus: "",
		ReviewText:         text,
		ReviewDate:         date,
		SourceURL:          sourceURL,
		ParsedAt:           time.Now().UTC(),
	}
}
