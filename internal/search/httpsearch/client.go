// Package httpsearch is a search.Service backed by an asynchronous BLAST REST
// API: submit a job, poll its status, fetch the JSON result.
package httpsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"blastfasta/internal/errs"
	"blastfasta/internal/search"
)

const (
	defaultBaseURL      = "https://www.ebi.ac.uk/Tools/services/rest/ncbiblast"
	defaultTimeout      = 30 * time.Second
	defaultUA           = "blastfasta"
	defaultPollInterval = 3 * time.Second
)

// Options configures the Client
type Options struct {
	BaseURL      string
	Email        string
	UserAgent    string
	Timeout      time.Duration
	PollInterval time.Duration

	// MaxPolls caps status checks per job; 0 means no cap
	MaxPolls int

	Logger zerolog.Logger
}

// Client submits one job per Search and polls it to completion. Failed calls
// are not retried.
type Client struct {
	http *http.Client
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Client with defaults for zero fields
func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  o.Logger.With().Str("component", "httpsearch").Logger(),
	}
}

// Start opens the session. Searches issued before Start fail.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if _, err := url.ParseRequestURI(c.opts.BaseURL); err != nil {
		return errs.Wrapf(err, errs.KindConfig, "invalid search endpoint %q", c.opts.BaseURL)
	}
	// Session lifetime is independent of the caller's ctx; Stop ends it.
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.started = true
	c.log.Info().Str("endpoint", c.opts.BaseURL).Msg("search session started")
	return nil
}

// Stop cancels outstanding polls, waits for them to unwind and releases idle
// connections. Safe to call more than once.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	defer c.http.CloseIdleConnections()
	select {
	case <-done:
		c.log.Info().Msg("search session stopped")
		return nil
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), errs.KindResourceCloseFailed, "search session stop")
	}
}

// Search submits req and returns immediately; the job is polled in the background.
func (c *Client) Search(ctx context.Context, req search.Request) *search.Pending {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return search.Resolved(search.Result{}, errs.New(errs.KindRemoteCallFailed, "search session not started"))
	}
	session := c.ctx
	c.wg.Add(1)
	c.mu.Unlock()

	// The job ends when either the caller or the session gives up.
	jobCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(session, cancel)
	return search.Go(jobCtx, func(ctx context.Context) (search.Result, error) {
		defer c.wg.Done()
		defer stop()
		defer cancel()
		return c.run(ctx, req)
	})
}

func (c *Client) run(ctx context.Context, req search.Request) (search.Result, error) {
	id, err := c.submit(ctx, req)
	if err != nil {
		return search.Result{}, err
	}
	if err := c.await(ctx, id); err != nil {
		return search.Result{}, err
	}
	return c.result(ctx, id)
}

func (c *Client) submit(ctx context.Context, req search.Request) (string, error) {
	form := url.Values{}
	form.Set("email", c.opts.Email)
	form.Set("program", "blastp")
	form.Set("stype", "protein")
	form.Set("database", string(req.Database))
	form.Set("sequence", req.Sequence)

	body, err := c.do(ctx, http.MethodPost, "/run", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", errs.New(errs.KindRemoteCallFailed, "search run returned an empty job id")
	}
	return id, nil
}

func (c *Client) await(ctx context.Context, id string) error {
	t := time.NewTicker(c.opts.PollInterval)
	defer t.Stop()
	for polls := 1; ; polls++ {
		body, err := c.do(ctx, http.MethodGet, "/status/"+url.PathEscape(id), nil, "")
		if err != nil {
			return err
		}
		switch status := strings.TrimSpace(string(body)); status {
		case StatusFinished:
			return nil
		case StatusQueued, StatusRunning:
		default:
			return errs.Newf(errs.KindRemoteCallFailed, "search job %s ended with status %s", id, status)
		}
		if c.opts.MaxPolls > 0 && polls >= c.opts.MaxPolls {
			return errs.Newf(errs.KindRemoteCallFailed, "search job %s still running after %d polls", id, polls)
		}
		select {
		case <-ctx.Done():
			return errs.Wrapf(ctx.Err(), errs.KindRemoteCallFailed, "search job %s interrupted", id)
		case <-t.C:
		}
	}
}

func (c *Client) result(ctx context.Context, id string) (search.Result, error) {
	body, err := c.do(ctx, http.MethodGet, "/result/"+url.PathEscape(id)+"/json", nil, "")
	if err != nil {
		return search.Result{}, err
	}
	var wr WireResult
	if err := json.Unmarshal(body, &wr); err != nil {
		return search.Result{}, errs.Wrapf(err, errs.KindRemoteCallFailed, "decode result for job %s", id)
	}
	res := search.Result{Hits: make([]search.Hit, 0, len(wr.Hits))}
	for _, h := range wr.Hits {
		hid := h.Accession
		if hid == "" {
			hid = h.ID
		}
		res.Hits = append(res.Hits, search.Hit{ID: hid, Summary: h.Description})
	}
	return res, nil
}

// do issues one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindRemoteCallFailed, "search new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindRemoteCallFailed, "search %s %s failed", method, path)
	}
	defer resp.Body.Close()
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("search http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, errs.Newf(errs.KindRemoteCallFailed, "search %s %s unexpected status %d body %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(tail)))
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindRemoteCallFailed, "search %s %s read body", method, path)
	}
	return b, nil
}

var _ search.Service = (*Client)(nil)
