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

const bankiBaseURL = "https://www.banki.ru"

type bankiParser struct {
	httpClient *http.Client
	log        *logger.Logger
}

// NewBankiParser scrapes the Banki.ru response board.
func NewBankiParser(baseLog *logger.Logger) Parser {
	return &bankiParser{
		httpClient: newHTTPClient(),
		log:        baseLog.With("parser", "banki"),
	}
}

func (bp *bankiParser) Source() string {
	return "banki"
}

func (bp *bankiParser) Parse(ctx context.Context, bankSlug string, pages int) ([]*types.RawReview, error) {
	if pages < 1 {
		pages = 1
	}

	var records []*types.RawReview
	for page := 1; page <= pages; page++ {
		url := fmt.Sprintf("%s/services/responses/bank/%s/?page=%d", bankiBaseURL, bankSlug, page)
		doc, err := fetchDocument(ctx, bp.httpClient, url)
		if err != nil {
			if len(records) > 0 {
				bp.log.Warn("Stopping pagination early", "page", page, "error", err)
				break
			}
			return nil, err
		}

		before := len(records)
		doc.Find("article[data-test='responses-list-item'], div.responses-list-item").Each(func(_ int, item *goquery.Selection) {
			record := bp.parseItem(item, bankSlug, url)
			if record != nil {
				records = append(records, record)
			}
		})
		if len(records) == before {
			break
		}
	}

	bp.log.Info("Parsed Banki.ru reviews", "bank", bankSlug, "count", len(records))
	return records, nil
}

func (bp *bankiParser) parseItem(item *goquery.Selection, bankSlug, pageURL string) *types.RawReview {
	text := cleanText(item.Find("div[data-test='responses-message'], .markup-inside-small").First().Text())
	if text == "" {
		return nil
	}

	theme := cleanText(item.Find("a[data-test='link-text'], .header-h3 a").First().Text())
	rating := strings.TrimSpace(item.Find("div[data-test='responses-rating'] span, .rating-grade").First().Text())
	date := cleanText(item.Find("time, .responses__item__date").First().Text())
	status := cleanText(item.Find("span[data-test='responses-status'], .responses__item__status").First().Text())

	sourceURL := pageURL
	if href, ok := item.Find("a[data-test='link-text'], .header-h3 a").First().Attr("href"); ok {
		if strings.HasPrefix(href, "/") {
			href = bankiBaseURL + href
		}
		sourceURL = href
	}

	return &types.RawReview{
		BankName:           bankSlug,
		BankSlug:           bankSlug,
		ProductName:        "general",
		ReviewTheme:        theme,
		Rating:             rating,
		VerificationStatus: status,
		ReviewText:         text,
		ReviewDate:         date,
		SourceURL:          sourceURL,
		ParsedAt:           time.Now().UTC(),
	}
}
