package runs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pokerunboard/auth"
	"pokerunboard/logger"
	"pokerunboard/models"
)

const (
	acceptJSON = "application/json"
	acceptCSV  = "text/csv"
)

// RunPage is the page shape every listing endpoint returns
type RunPage = models.PageResult[models.Run]

// Client is a typed facade over the runs collection endpoint.
// It holds no state between calls: no retry, no caching.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokens     auth.TokenSource
	session    auth.SessionClearer
	validate   *validator.Validate
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithSessionClearer registers the hook invoked on a 401 response
func WithSessionClearer(s auth.SessionClearer) Option {
	return func(c *Client) { c.session = s }
}

// NewClient creates a client for the backend at baseURL. tokens may be nil
// for anonymous use.
func NewClient(baseURL string, tokens auth.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  u,
		tokens:   tokens,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Info("Initializing runs client", zap.String("base_url", u.String()))
	return c, nil
}

// ListAll fetches one page of every run. sort is passed through verbatim
// (e.g. "runTime,asc") and omitted when empty.
func (c *Client) ListAll(ctx context.Context, page, size int, sort string) (*RunPage, error) {
	q := pageQuery(page, size)
	if sort != "" {
		q.Set("sort", sort)
	}
	return c.getPage(ctx, "list runs", q, "runs")
}

// ListByGame fetches one page of runs for a single game title
func (c *Client) ListByGame(ctx context.Context, game string, page, size int) (*RunPage, error) {
	return c.getPage(ctx, "list runs by game", pageQuery(page, size), "runs", "game", url.PathEscape(game))
}

// ListMine fetches one page of the caller's own runs. It fails with
// Unauthorized without a request when no token is held.
func (c *Client) ListMine(ctx context.Context, page, size int) (*RunPage, error) {
	const op = "list my runs"
	if c.token() == "" {
		return nil, &Error{Op: op, Kind: Unauthorized, Message: "sign in to see your runs"}
	}
	return c.getPage(ctx, op, pageQuery(page, size), "runs", "me")
}

// ListFastest fetches runs at or under maxTime ("HH:MM")
func (c *Client) ListFastest(ctx context.Context, maxTime string, page, size int) (*RunPage, error) {
	q := pageQuery(page, size)
	q.Set("maxTime", maxTime)
	return c.getPage(ctx, "list fastest runs", q, "runs", "fastest")
}

// ListByPokedex fetches runs whose pokédex count is at least minStatus
func (c *Client) ListByPokedex(ctx context.Context, minStatus, page, size int) (*RunPage, error) {
	q := pageQuery(page, size)
	q.Set("minStatus", strconv.Itoa(minStatus))
	return c.getPage(ctx, "list runs by pokedex", q, "runs", "pokedex")
}

// ListByPokemon fetches runs whose team includes pokemon
func (c *Client) ListByPokemon(ctx context.Context, pokemon string, page, size int) (*RunPage, error) {
	q := pageQuery(page, size)
	q.Set("pokemon", pokemon)
	return c.getPage(ctx, "list runs by pokemon", q, "runs", "team")
}

// GetByID fetches a single run; a missing id yields a NotFound error
func (c *Client) GetByID(ctx context.Context, id int64) (*models.Run, error) {
	var run models.Run
	if err := c.doJSON(ctx, "get run", http.MethodGet, nil, nil, &run, "runs", strconv.FormatInt(id, 10)); err != nil {
		return nil, err
	}
	return &run, nil
}

// Create submits a new run
func (c *Client) Create(ctx context.Context, draft models.CreateRunRequest) (*models.Run, error) {
	const op = "create run"
	if err := c.validateDraft(op, draft); err != nil {
		return nil, err
	}
	var run models.Run
	if err := c.doJSON(ctx, op, http.MethodPost, nil, draft, &run, "runs"); err != nil {
		return nil, err
	}
	logger.Info("Run created", zap.Int64("id", run.ID), zap.String("game", run.Game))
	return &run, nil
}

// Update patches an existing run
func (c *Client) Update(ctx context.Context, id int64, patch models.UpdateRunRequest) (*models.Run, error) {
	const op = "update run"
	if err := c.validateDraft(op, patch); err != nil {
		return nil, err
	}
	var run models.Run
	if err := c.doJSON(ctx, op, http.MethodPatch, nil, patch, &run, "runs", strconv.FormatInt(id, 10)); err != nil {
		return nil, err
	}
	return &run, nil
}

// Delete removes a run
func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete run", http.MethodDelete, nil, nil, acceptJSON, "runs", strconv.FormatInt(id, 10))
	return err
}

// CountByGame returns the number of runs per game
func (c *Client) CountByGame(ctx context.Context) ([]models.GameCount, error) {
	var rows []models.GameCount
	if err := c.doJSON(ctx, "count by game", http.MethodGet, nil, nil, &rows, "runs", "stats", "count-by-game"); err != nil {
		return nil, err
	}
	return rows, nil
}

// AvgTimeByGame returns the average run time in minutes per game
func (c *Client) AvgTimeByGame(ctx context.Context) ([]models.GameAvgTime, error) {
	var rows []models.GameAvgTime
	if err := c.doJSON(ctx, "average time by game", http.MethodGet, nil, nil, &rows, "runs", "stats", "avg-time-by-game"); err != nil {
		return nil, err
	}
	return rows, nil
}

// TopPokemon returns the most used team members, most frequent first
func (c *Client) TopPokemon(ctx context.Context) ([]models.PokemonCount, error) {
	var rows []models.PokemonCount
	if err := c.doJSON(ctx, "top pokemon", http.MethodGet, nil, nil, &rows, "runs", "stats", "top-pokemons"); err != nil {
		return nil, err
	}
	return rows, nil
}

// ExportCSV returns the raw CSV export exactly as served
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	return c.do(ctx, "export csv", http.MethodGet, nil, nil, acceptCSV, "runs", "export", "csv")
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) getPage(ctx context.Context, op string, q url.Values, segments ...string) (*RunPage, error) {
	var page RunPage
	if err := c.doJSON(ctx, op, http.MethodGet, q, nil, &page, segments...); err != nil {
		return nil, err
	}
	logger.Debug("Fetched runs page",
		zap.String("op", op),
		zap.Int("page", page.Number),
		zap.Int("elements", page.NumberOfElements),
		zap.Int("total_pages", page.TotalPages))
	return &page, nil
}

func (c *Client) doJSON(ctx context.Context, op, method string, q url.Values, in, out any, segments ...string) error {
	body, err := c.do(ctx, op, method, q, in, acceptJSON, segments...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		logger.Error("Failed to decode response", zap.String("op", op), zap.Error(err))
		return &Error{Op: op, Kind: Unknown, Message: "malformed response", Err: err}
	}
	return nil
}

// do performs one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, op, method string, q url.Values, in any, accept string, segments ...string) ([]byte, error) {
	reqURL := c.baseURL.JoinPath(segments...)
	if len(q) > 0 {
		reqURL.RawQuery = q.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Op: op, Kind: Unknown, Message: "failed to encode request", Err: err}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reqBody)
	if err != nil {
		return nil, &Error{Op: op, Kind: Unknown, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", accept)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", reqURL.Path),
			zap.Error(err))
		return nil, &Error{Op: op, Kind: NetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Kind: NetworkFailure, Status: resp.StatusCode, Err: err}
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", reqURL.Path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(op, resp.StatusCode, body)
		logger.Warn("Request rejected", append(fields, zap.String("kind", apiErr.Kind.String()))...)
		if apiErr.Kind == Unauthorized && c.session != nil {
			c.session.ClearSession()
		}
		return nil, apiErr
	}

	logger.Debug("Request completed", fields...)
	return body, nil
}
