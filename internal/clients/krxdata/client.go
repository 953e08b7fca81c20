// Package krxdata wraps the KRX open-data provider used as the last-resort
// market source. The provider client blocks on internal I/O and takes no
// context, so Source offloads every call to its own goroutine.
package krxdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/interfaces"
	"github.com/danielsohn/sieve/internal/models"
)

const (
	DefaultBaseURL = "http://data.krx.co.kr/svc/apis"
	DefaultTimeout = 30 * time.Second
)

// Client is the blocking provider client. It implements
// interfaces.MarketDataAPI and is never called directly by the collector;
// use Source, which handles offloading and cancellation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new blocking provider client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DailyQuotes returns raw per-symbol rows for one trading date. Rows carry
// Korean-keyed prices and volumes but no symbol names, which the provider's
// daily endpoint omits.
func (c *Client) DailyQuotes(date time.Time, market models.Market) ([]models.RawRecord, error) {
	form := url.Values{}
	form.Set("date", date.Format("20060102"))
	form.Set("market", string(market))

	var rows []models.RawRecord
	if err := c.post("/daily.cmd", form, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SymbolNames returns the code-to-name directory for a market
func (c *Client) SymbolNames(market models.Market) (map[string]string, error) {
	form := url.Values{}
	form.Set("market", string(market))

	var names map[string]string
	if err := c.post("/names.cmd", form, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// post issues a blocking form POST and decodes the JSON response
func (c *Client) post(path string, form url.Values, result interface{}) error {
	reqURL := c.baseURL + path

	c.logger.Debug().Str("url", reqURL).Msg("KRX open-data request")

	resp, err := c.httpClient.Post(reqURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider request failed: status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ensure Client implements MarketDataAPI
var _ interfaces.MarketDataAPI = (*Client)(nil)
