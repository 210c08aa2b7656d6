package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"skybox-manifest/internal/domain/entity"
	"skybox-manifest/pkg/logger"
	"skybox-manifest/pkg/manifest"
	"skybox-manifest/pkg/metrics"
)

const maxBodyBytes = 8 << 20

// Stage names the step of a fetch that failed
type Stage string

const (
	StageWarmup  Stage = "warmup"
	StageData    Stage = "data"
	StagePayload Stage = "payload"
)

// FetchError is a failed fetch. StatusCode is zero for transport failures.
type FetchError struct {
	Stage      Stage
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed %s: unexpected status %d", e.Stage, e.StatusCode)
	}
	return fmt.Sprintf("feed %s: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrUnexpectedStatus is wrapped by FetchError for non-2xx responses
var ErrUnexpectedStatus = errors.New("unexpected status")

// Batch is one successful fetch
type Batch struct {
	Records    []manifest.RawRecord
	Body       []byte
	StatusCode int
	Today      string
	FetchedAt  time.Time
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Target     manifest.Target
	Strategy   manifest.Strategy
	Timeout    time.Duration
	RequestRPS float64
	Location   *time.Location
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Fetcher runs the warm-up then data request sequence against the feed. It
// owns the one Session used for the process lifetime.
type Fetcher struct {
	target   manifest.Target
	strategy manifest.Strategy
	session  *Session
	timeout  time.Duration
	limiter  *rate.Limiter
	loc      *time.Location
	now      func() time.Time
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewFetcher creates a new feed fetcher
func NewFetcher(opts FetcherOptions) (*Fetcher, error) {
	if opts.Strategy == nil {
		return nil, errors.New("feed strategy is required")
	}
	if _, err := url.Parse(opts.Target.BaseURL); err != nil || opts.Target.BaseURL == "" {
		return nil, fmt.Errorf("invalid feed base URL %q", opts.Target.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	limit := rate.Inf
	if opts.RequestRPS > 0 {
		limit = rate.Limit(opts.RequestRPS)
	}

	session, err := NewSession(timeout, 1)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		target:   opts.Target,
		strategy: opts.Strategy,
		session:  session,
		timeout:  timeout,
		limiter:  rate.NewLimiter(limit, 1),
		loc:      loc,
		now:      time.Now,
		logger:   log,
		metrics:  opts.Metrics,
	}, nil
}

// Session returns the current session
func (f *Fetcher) Session() *Session {
	return f.session
}

// Fetch retrieves and splits the current manifest. Any failure discards the
// session before returning, so the next call starts from a fresh one.
func (f *Fetcher) Fetch(ctx context.Context) (*Batch, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fetchedAt := f.now()
	today := fetchedAt.In(f.loc).Format(entity.DateLayout)

	warmup, err := f.warmupRequest(ctx)
	if err != nil {
		return nil, f.fail(&FetchError{Stage: StageWarmup, Err: err})
	}
	if _, _, ferr := f.do(ctx, StageWarmup, warmup); ferr != nil {
		return nil, f.fail(ferr)
	}

	data, err := f.strategy.DataRequest(ctx, f.target, today)
	if err != nil {
		return nil, f.fail(&FetchError{Stage: StageData, Err: err})
	}
	body, status, ferr := f.do(ctx, StageData, data)
	if ferr != nil {
		return nil, f.fail(ferr)
	}

	records, err := f.strategy.Split(body, today)
	if err != nil {
		return nil, f.fail(&FetchError{Stage: StagePayload, Err: err})
	}

	return &Batch{
		Records:    records,
		Body:       body,
		StatusCode: status,
		Today:      today,
		FetchedAt:  fetchedAt,
	}, nil
}

func (f *Fetcher) warmupRequest(ctx context.Context) (*http.Request, error) {
	u := fmt.Sprintf("%s/jmp?dz_id=%s", f.target.BaseURL, url.QueryEscape(f.target.DZID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return req, nil
}

func (f *Fetcher) do(ctx context.Context, stage Stage, req *http.Request) ([]byte, int, *FetchError) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, 0, &FetchError{Stage: stage, Err: err}
	}

	if f.target.UserAgent != "" {
		req.Header.Set("User-Agent", f.target.UserAgent)
	}
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.session.Do(req)
	if err != nil {
		return nil, 0, &FetchError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainBody(resp.Body)
		return nil, resp.StatusCode, &FetchError{Stage: stage, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &FetchError{Stage: stage, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, resp.StatusCode, nil
}

// fail replaces the session and passes the error through
func (f *Fetcher) fail(err *FetchError) error {
	if f.metrics != nil {
		f.metrics.FetchFailures.WithLabelValues(string(err.Stage)).Inc()
	}

	previous := f.session.Generation()
	age := f.session.Age()
	session, serr := NewSession(f.timeout, previous+1)
	if serr != nil {
		f.logger.Error("Failed to create fresh feed session", "error", serr)
		return err
	}
	f.session = session

	f.logger.Warn("Feed session discarded",
		"stage", err.Stage,
		"statusCode", err.StatusCode,
		"previousGeneration", previous,
		"previousAge", age.Round(time.Second).String(),
		"generation", session.Generation())

	return err
}

// drainBody reads what is left of an unwanted response body, up to the body
// cap, so the connection can go back to the pool. Read errors only mean the
// connection is not reused.
func drainBody(body io.Reader) int64 {
	n, _ := io.Copy(io.Discard, io.LimitReader(body, maxBodyBytes))
	return n
}
