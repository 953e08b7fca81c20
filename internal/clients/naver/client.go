// Package naver provides a client for the Naver Finance market-value API,
// a paginated JSON listing of all stocks per market.
package naver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/danielsohn/sieve/internal/clients/pagefetch"
	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/interfaces"
	"github.com/danielsohn/sieve/internal/models"
)

const (
	DefaultBaseURL        = "https://m.stock.naver.com/api"
	DefaultTimeout        = 30 * time.Second
	DefaultRateLimit      = 10 // requests per second
	DefaultPageSize       = 100
	DefaultMaxConcurrency = 5

	sourceName = "naver"
)

// Client implements the MarketSource interface for Naver Finance
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *common.Logger
	limiter        *rate.Limiter
	pageSize       int
	maxConcurrency int
	openHour       int
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

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithPageSize sets the number of rows requested per page
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithMaxConcurrency caps simultaneous in-flight page requests
func WithMaxConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithMarketOpenHour sets the hour used to pick the latest completed
// trading day. Defaults to 9 (KST market open).
func WithMarketOpenHour(hour int) ClientOption {
	return func(c *Client) {
		c.openHour = hour
	}
}

// NewClient creates a new Naver Finance client.
// No API key is required; this is a public endpoint.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:         common.NewSilentLogger(),
		pageSize:       DefaultPageSize,
		maxConcurrency: DefaultMaxConcurrency,
		openHour:       9,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the source in logs and diagnostics
func (c *Client) Name() string {
	return sourceName
}

// pageRequest is the JSON body of one market-value page call
type pageRequest struct {
	TradeDate string `json:"tradeDate"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

// pageResponse carries the total row count alongside one page of stocks.
// Stock fields arrive as a mix of strings and numbers, so they are held
// loose and stringified into raw records.
type pageResponse struct {
	TotalCount int                      `json:"totalCount"`
	Stocks     []map[string]interface{} `json:"stocks"`
}

// Fetch retrieves all listings for one market as English-keyed raw records.
// Page 1 doubles as the total-count probe; the remaining pages are fetched
// through the bounded page fetcher. Failed pages reduce coverage but do
// not fail the market.
func (c *Client) Fetch(ctx context.Context, market models.Market) ([]models.RawRecord, error) {
	tradeDate := common.LatestTradingDay(time.Now(), c.openHour).Format("20060102")

	first, err := c.fetchPage(ctx, market, tradeDate, 1)
	if err != nil {
		return nil, err
	}
	if first.TotalCount == 0 {
		return nil, models.ErrEmptyResult
	}

	records := stringify(first.Stocks)

	totalPages := (first.TotalCount + c.pageSize - 1) / c.pageSize
	if totalPages > 1 {
		rest, failed := pagefetch.Pages(ctx, totalPages-1, c.maxConcurrency, func(ctx context.Context, page int) ([]models.RawRecord, error) {
			resp, err := c.fetchPage(ctx, market, tradeDate, page+1)
			if err != nil {
				c.logger.Warn().Err(err).Str("market", string(market)).Int("page", page+1).Msg("Naver page fetch failed")
				return nil, err
			}
			return stringify(resp.Stocks), nil
		})
		if failed > 0 {
			c.logger.Warn().Str("market", string(market)).Int("failed_pages", failed).Msg("Naver fetch completed with missing pages")
		}
		records = append(records, rest...)
	}

	c.logger.Info().
		Str("market", string(market)).
		Int("total_count", first.TotalCount).
		Int("pages", totalPages).
		Int("records", len(records)).
		Msg("Naver market fetch complete")

	if len(records) == 0 {
		return nil, models.ErrEmptyResult
	}
	return records, nil
}

// fetchPage posts one page request for a market
func (c *Client) fetchPage(ctx context.Context, market models.Market, tradeDate string, page int) (*pageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	body, err := json.Marshal(pageRequest{TradeDate: tradeDate, Page: page, PageSize: c.pageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/stocks/marketValue/%s", c.baseURL, market)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	c.logger.Debug().Str("market", string(market)).Int("page", page).Msg("Naver API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.TransientError{Source: sourceName, Status: resp.StatusCode, Err: fmt.Errorf("page %d request failed", page)}
	}

	var pageResp pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pageResp); err != nil {
		return nil, &models.ProtocolError{Source: sourceName, Reason: fmt.Sprintf("undecodable page %d payload: %v", page, err)}
	}

	return &pageResp, nil
}

// stringify flattens loose JSON stock objects into raw string records.
// Numbers lose no precision the normalizer cares about; nested values and
// nulls are dropped.
func stringify(stocks []map[string]interface{}) []models.RawRecord {
	records := make([]models.RawRecord, 0, len(stocks))
	for _, stock := range stocks {
		rec := make(models.RawRecord, len(stock))
		for key, val := range stock {
			switch v := val.(type) {
			case string:
				rec[key] = v
			case float64:
				rec[key] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				rec[key] = strconv.FormatBool(v)
			}
		}
		records = append(records, rec)
	}
	return records
}

// Ensure Client implements MarketSource
var _ interfaces.MarketSource = (*Client)(nil)
