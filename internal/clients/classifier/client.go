package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/utils"
)

const maxTextLength = 1000

// Item is one text to classify.
type Item struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Prediction is the per-item classifier output.
type Prediction struct {
	ID         int      `json:"id"`
	Topics     []string `json:"topics"`
	Sentiments []string `json:"sentiments"`
}

type predictRequest struct {
	Data []Item `json:"data"`
}

type predictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Client calls the external topic/sentiment classifier.
type Client interface {
	Predict(ctx context.Context, items []Item) ([]Prediction, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient reads CLASSIFIER_URL and CLASSIFIER_TIMEOUT_SECONDS from the
// environment. The timeout covers connect plus read, 5 s by default.
func NewClient(baseLog *logger.Logger) Client {
	clientLog := baseLog.With("client", "Classifier")
	baseURL := utils.GetEnv("CLASSIFIER_URL", "http://localhost:8000", clientLog)
	timeout := utils.GetEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 5, clientLog)
	return &client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		log:        clientLog,
	}
}

func (c *client) Predict(ctx context.Context, items []Item) ([]Prediction, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty payload", apperr.ErrBadRequest)
	}
	for _, item := range items {
		if item.Text == "" {
			return nil, fmt.Errorf("%w: empty text for id %d", apperr.ErrBadRequest, item.ID)
		}
		if len([]rune(item.Text)) > maxTextLength {
			return nil, fmt.Errorf("%w: text for id %d exceeds %d chars", apperr.ErrBadRequest, item.ID, maxTextLength)
		}
	}

	body, err := json.Marshal(predictRequest{Data: items})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: classifier rejected payload", apperr.ErrBadRequest)
	case http.StatusGatewayTimeout:
		return nil, fmt.Errorf("%w: classifier", apperr.ErrUpstreamTimeout)
	default:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: classifier returned %d: %s", apperr.ErrUpstreamUnavailable, resp.StatusCode, payload)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: bad classifier response: %v", apperr.ErrUpstreamUnavailable, err)
	}
	return decoded.Predictions, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: classifier", apperr.ErrUpstreamTimeout)
	}
	return fmt.Errorf("%w: classifier: %v", apperr.ErrUpstreamUnavailable, err)
}
