// Package client drives checkout sync round trips against a checkout API.
// It owns every transport concern the checkout entity excludes: endpoints,
// headers, status handling. Each round trip holds the checkout's sync guard
// so two syncs can never interleave on one instance, and a response is never
// applied once the caller's context has been canceled.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
)

// ErrRequestFailed indicates the transport failed or the server rejected
// the request. The checkout is left in its pre-sync state.
var ErrRequestFailed = errors.New("checkout request failed")

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the checkout API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// New builds a Client for the API at baseURL. The api key is sent as
// X-Api-Key on every request; pass an empty string against servers that do
// not require one.
func New(baseURL, apiKey string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// Sync performs one read-modify-write round trip: the checkout's
// client-owned fields go out, the refreshed server state comes back and is
// applied. A checkout without a token is created (POST), one with a token
// is updated (PUT). Completed checkouts are read-only and refuse to sync.
func (cl *Client) Sync(ctx context.Context, co *domain.Checkout) error {
	if co == nil {
		return fmt.Errorf("%w: checkout is nil", domain.ErrInvalidArgument)
	}
	if err := co.BeginSync(); err != nil {
		return err
	}
	defer co.EndSync()

	if co.State() == domain.StateCompleted {
		return fmt.Errorf("%w: checkout is already completed", domain.ErrInvalidArgument)
	}

	if co.HasToken() {
		body, err := co.MarshalUpdate()
		if err != nil {
			return err
		}
		return cl.roundTrip(ctx, co, http.MethodPut, "/checkouts/"+co.Token(), body)
	}
	body, err := co.MarshalCreate()
	if err != nil {
		return err
	}
	return cl.roundTrip(ctx, co, http.MethodPost, "/checkouts", body)
}

// Refresh re-reads the checkout from the server without sending local
// edits, e.g. to tick the reservation countdown.
func (cl *Client) Refresh(ctx context.Context, co *domain.Checkout) error {
	if co == nil || !co.HasToken() {
		return fmt.Errorf("%w: refresh requires a checkout with a token", domain.ErrInvalidArgument)
	}
	if err := co.BeginSync(); err != nil {
		return err
	}
	defer co.EndSync()
	return cl.roundTrip(ctx, co, http.MethodGet, "/checkouts/"+co.Token(), nil)
}

// Complete asks the server to convert the checkout into an order. On
// success the applied response carries the order id, moving the checkout
// into its terminal completed state.
func (cl *Client) Complete(ctx context.Context, co *domain.Checkout) error {
	if co == nil || !co.HasToken() {
		return fmt.Errorf("%w: complete requires a checkout with a token", domain.ErrInvalidArgument)
	}
	if err := co.BeginSync(); err != nil {
		return err
	}
	defer co.EndSync()
	return cl.roundTrip(ctx, co, http.MethodPost, "/checkouts/"+co.Token()+"/complete", nil)
}

func (cl *Client) roundTrip(ctx context.Context, co *domain.Checkout, method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.apiKey != "" {
		req.Header.Set("X-Api-Key", cl.apiKey)
	}

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		cl.logger.Printf("%s %s failed: status %d", method, path, resp.StatusCode)
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, bytes.TrimSpace(data))
	}

	// A response that lands after cancellation must not be applied; the
	// checkout keeps its pre-sync state.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return co.ApplyResponse(data)
}
