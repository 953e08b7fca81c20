// Package krx provides a client for the KRX data-portal CSV download
// service. Listings are retrieved in two steps: a one-time download token
// is generated for a market and trade date, then exchanged for a CSV
// payload in EUC-KR with Korean column headers.
package krx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/interfaces"
	"github.com/danielsohn/sieve/internal/models"
)

const (
	DefaultBaseURL   = "http://data.krx.co.kr/comm/bldAttendant"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	// A real token is a short opaque string. Anything longer is an error
	// page handed back with status 200.
	maxTokenLength = 120

	sourceName = "krx"
)

// Market identifiers used by the data portal
var marketIDs = map[models.Market]string{
	models.MarketKOSPI:  "STK",
	models.MarketKOSDAQ: "KSQ",
}

// Client implements the MarketSource interface for the KRX data portal
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	openHour   int
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

// WithMarketOpenHour sets the hour used to pick the latest completed
// trading day. Defaults to 9 (KST market open).
func WithMarketOpenHour(hour int) ClientOption {
	return func(c *Client) {
		c.openHour = hour
	}
}

// NewClient creates a new KRX data-portal client.
// No API key is required; this is a public endpoint.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:   common.NewSilentLogger(),
		openHour: 9,
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

// Fetch retrieves all listings for one market as Korean-keyed raw records.
// It generates a one-time download token, exchanges it for the daily CSV,
// and decodes the EUC-KR payload.
func (c *Client) Fetch(ctx context.Context, market models.Market) ([]models.RawRecord, error) {
	marketID, ok := marketIDs[market]
	if !ok {
		return nil, &models.ProtocolError{Source: sourceName, Reason: fmt.Sprintf("unknown market %q", market)}
	}

	tradeDate := common.LatestTradingDay(time.Now(), c.openHour)

	token, err := c.generateToken(ctx, marketID, tradeDate)
	if err != nil {
		return nil, err
	}

	records, err := c.download(ctx, token)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("market", string(market)).
		Str("trade_date", tradeDate.Format("2006-01-02")).
		Int("records", len(records)).
		Msg("KRX CSV download complete")

	if len(records) == 0 {
		return nil, models.ErrEmptyResult
	}
	return records, nil
}

// generateToken requests a one-time download token for the daily listings CSV
func (c *Client) generateToken(ctx context.Context, marketID string, tradeDate time.Time) (string, error) {
	form := url.Values{}
	form.Set("mktId", marketID)
	form.Set("trdDd", tradeDate.Format("20060102"))
	form.Set("money", "1")
	form.Set("csvxls_isNo", "false")
	form.Set("name", "fileDown")
	form.Set("url", "dbms/MDC/STAT/standard/MDCSTAT01501")

	body, status, err := c.post(ctx, c.baseURL+"/generate.cmd", form)
	if err != nil {
		return "", &models.TransientError{Source: sourceName, Err: err}
	}
	if status != http.StatusOK {
		return "", &models.TransientError{Source: sourceName, Status: status, Err: fmt.Errorf("token generation failed")}
	}

	token := strings.TrimSpace(string(body))
	switch {
	case token == "":
		return "", &models.ProtocolError{Source: sourceName, Reason: "empty download token"}
	case len(token) > maxTokenLength:
		return "", &models.ProtocolError{Source: sourceName, Reason: fmt.Sprintf("token length %d exceeds %d", len(token), maxTokenLength)}
	case strings.ContainsAny(token, "<>"):
		// An error page served with status 200
		return "", &models.ProtocolError{Source: sourceName, Reason: "token contains markup"}
	}

	return token, nil
}

// download exchanges the token for the CSV payload and parses it using
// header-based column access.
func (c *Client) download(ctx context.Context, token string) ([]models.RawRecord, error) {
	form := url.Values{}
	form.Set("code", token)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/download.cmd", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.TransientError{Source: sourceName, Status: resp.StatusCode, Err: fmt.Errorf("CSV download failed")}
	}

	return parseCSV(resp.Body)
}

// post issues a rate-limited form POST and returns the raw body
func (c *Client) post(ctx context.Context, reqURL string, form url.Values) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug().Str("url", reqURL).Msg("KRX data portal request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// parseCSV decodes an EUC-KR CSV body into raw records keyed by the
// header row's Korean column names.
func parseCSV(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(transform.NewReader(r, korean.EUCKR.NewDecoder()))
	reader.FieldsPerRecord = -1 // tolerate ragged rows; short rows are skipped below

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &models.ProtocolError{Source: sourceName, Reason: "CSV payload has no header row"}
	}
	if err != nil {
		return nil, &models.ProtocolError{Source: sourceName, Reason: fmt.Sprintf("CSV header unreadable: %v", err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []models.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.ProtocolError{Source: sourceName, Reason: fmt.Sprintf("CSV row unreadable: %v", err)}
		}
		if len(row) < len(header) {
			continue
		}

		rec := make(models.RawRecord, len(header))
		for i, col := range header {
			rec[col] = strings.TrimSpace(row[i])
		}
		records = append(records, rec)
	}

	return records, nil
}

// Ensure Client implements MarketSource
var _ interfaces.MarketSource = (*Client)(nil)
