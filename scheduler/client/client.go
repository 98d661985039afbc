// Package client talks to an sjf gateway: a REST client for the job
// endpoints and a Watcher that keeps a local View in sync with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/scheduler/domain"
)

const (
	DefaultAddr = "localhost:8080"

	// ~30s total of trying with exponential backoff
	DefaultHttpTries = 5

	feedSequenceHeader = "X-Feed-Sequence"

	jobsPath = "/jobs/"
)

// HttpClient is satisfied by *pester.Client and *http.Client.
type HttpClient interface {
	Do(req *http.Request) (resp *http.Response, err error)
}

func MakePesterClient() *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = DefaultHttpTries
	client.LogHook = func(e pester.ErrEntry) {
		log.Errorf("Retrying after failed attempt: %+v", e)
	}
	return client
}

// Client is a REST client for one gateway.
type Client struct {
	baseURL string
	reads   HttpClient
	// POST /jobs isn't idempotent, so submissions get a single try.
	writes HttpClient
}

// NewClient accepts "host:port" or a full http(s) URL.
func NewClient(addr string) *Client {
	writes := pester.New()
	writes.MaxRetries = 1
	return NewCustomClient(addr, MakePesterClient(), writes)
}

func NewCustomClient(addr string, reads, writes HttpClient) *Client {
	return &Client{baseURL: baseURL(addr), reads: reads, writes: writes}
}

func baseURL(addr string) string {
	if addr == "" {
		addr = DefaultAddr
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return strings.TrimSuffix(addr, "/")
}

// WebsocketURL is the push endpoint matching the client's base URL.
func (c *Client) WebsocketURL() string {
	return "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
}

// Submit creates a job. Rejections come back as *domain.InvalidInput.
func (c *Client) Submit(ctx context.Context, name string, duration time.Duration) (domain.Job, error) {
	body, err := json.Marshal(domain.JobDefinition{Name: name, Duration: duration})
	if err != nil {
		return domain.Job{}, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return domain.Job{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var job domain.Job
	_, err = c.do(ctx, c.writes, req, http.StatusCreated, &job)
	return job, err
}

// List returns every job in submission order, and the feed sequence number
// the list reflects.
func (c *Client) List(ctx context.Context) ([]domain.Job, uint64, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/jobs", nil)
	if err != nil {
		return nil, 0, err
	}
	var jobs []domain.Job
	resp, err := c.do(ctx, c.reads, req, http.StatusOK, &jobs)
	if err != nil {
		return nil, 0, err
	}
	seq, _ := strconv.ParseUint(resp.Header.Get(feedSequenceHeader), 10, 64)
	return jobs, seq, nil
}

// Get returns *domain.NotFound for an unknown id.
func (c *Client) Get(ctx context.Context, id string) (domain.Job, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+jobsPath+url.PathEscape(id), nil)
	if err != nil {
		return domain.Job{}, err
	}
	var job domain.Job
	_, err = c.do(ctx, c.reads, req, http.StatusOK, &job)
	return job, err
}

// Status fetches /admin/status undecoded.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/admin/status", nil)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	_, err = c.do(ctx, c.reads, req, http.StatusOK, &raw)
	return raw, err
}

func (c *Client) do(ctx context.Context, hc HttpClient, req *http.Request, want int, out interface{}) (*http.Response, error) {
	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s response", req.URL.Path)
	}
	if resp.StatusCode != want {
		return nil, responseError(req, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, errors.Wrapf(err, "decoding %s response", req.URL.Path)
	}
	return resp, nil
}

// responseError turns an error response back into the domain error the
// server classified it as. Only a 404 for a job path is a NotFound.
func responseError(req *http.Request, status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	switch status {
	case http.StatusBadRequest:
		return domain.NewInvalidInput("%s", msg)
	case http.StatusNotFound:
		if id := strings.TrimPrefix(req.URL.Path, jobsPath); id != req.URL.Path && id != "" {
			return domain.NewNotFound(id)
		}
	}
	return fmt.Errorf("%s %s: server returned %d: %s", req.Method, req.URL.Path, status, msg)
}
