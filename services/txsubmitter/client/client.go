// Package client provides a client for interacting with the TxSubmitter service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	slhttputil "github.com/R3E-Network/service_layer/internal/httputil"
	"github.com/R3E-Network/service_layer/internal/serviceauth"
)

// Client is a client for the TxSubmitter service.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	serviceID    string // Calling service identifier
	maxBodyBytes int64
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	// ServiceID identifies the caller. In strict identity mode this is redundant
	// (caller identity is enforced by MarbleRun mTLS), but it's still useful for
	// local development and debugging.
	ServiceID string
	Timeout   time.Duration
	// HTTPClient optionally overrides the client used to execute requests.
	// For MarbleRun mesh calls, prefer using `marble.Marble.HTTPClient()` so
	// requests are sent over verified mTLS.
	HTTPClient *http.Client
	// MaxBodyBytes caps responses to prevent memory exhaustion.
	MaxBodyBytes int64
}

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxBodySize = 1 << 20 // 1MiB
)

// New creates a new TxSubmitter client.
func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("txsubmitter: BaseURL is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("txsubmitter: BaseURL must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("txsubmitter: BaseURL scheme must be http or https")
	}
	if parsed.User != nil {
		return nil, fmt.Errorf("txsubmitter: BaseURL must not include user info")
	}
	if slhttputil.StrictIdentityMode() && parsed.Scheme != "https" {
		return nil, fmt.Errorf("txsubmitter: BaseURL must use https in strict identity mode")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	} else {
		// Avoid mutating a caller-supplied client.
		copied := *client
		if copied.Timeout == 0 || cfg.Timeout != 0 {
			copied.Timeout = timeout
		}
		client = &copied
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodySize
	}

	return &Client{
		baseURL:      baseURL,
		serviceID:    strings.TrimSpace(cfg.ServiceID),
		httpClient:   client,
		maxBodyBytes: maxBodyBytes,
	}, nil
}

// =============================================================================
// Request/Response Types
// =============================================================================

// SubmitRequest is the request to submit a transaction.
type SubmitRequest struct {
	RequestID           string          `json:"request_id"`
	TxType              string          `json:"tx_type"`
	ContractAddress     string          `json:"contract_address,omitempty"`
	MethodName          string          `json:"method_name,omitempty"`
	Params              json.RawMessage `json:"params"`
	Priority            int             `json:"priority,omitempty"`
	WaitForConfirmation bool            `json:"wait_for_confirmation,omitempty"`
	Timeout             time.Duration   `json:"timeout,omitempty"`
}

// SubmitResponse is the response from submitting a transaction.
type SubmitResponse struct {
	ID          int64      `json:"id"`
	TxHash      string     `json:"tx_hash,omitempty"`
	Status      string     `json:"status"`
	GasConsumed int64      `json:"gas_consumed,omitempty"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// FulfillParams are parameters for fulfill_request transactions.
type FulfillParams struct {
	RequestID string `json:"request_id"`
	Result    string `json:"result"` // hex-encoded
}

// FailParams are parameters for fail_request transactions.
type FailParams struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

// SetMasterKeyParams are parameters for set_tee_master_key transactions.
type SetMasterKeyParams struct {
	PubKey     string `json:"pubkey"`      // hex-encoded
	PubKeyHash string `json:"pubkey_hash"` // hex-encoded
	AttestHash string `json:"attest_hash"` // hex-encoded
}

// UpdatePricesParams are parameters for update_prices transactions.
type UpdatePricesParams struct {
	FeedIDs    []string `json:"feed_ids"`
	Prices     []string `json:"prices"`     // big.Int as string
	Timestamps []uint64 `json:"timestamps"` // seconds since Unix epoch
}

// ResolveDisputeParams are parameters for resolve_dispute transactions.
type ResolveDisputeParams struct {
	RequestHash     string `json:"request_hash"`     // hex-encoded (32 bytes)
	CompletionProof string `json:"completion_proof"` // hex-encoded
}

// =============================================================================
// API Methods
// =============================================================================

// Submit submits a transaction to the blockchain via TxSubmitter.
func (c *Client) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("txsubmitter: client is nil")
	}
	if c.httpClient == nil {
		return nil, fmt.Errorf("txsubmitter: http client not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.serviceID != "" {
		httpReq.Header.Set(serviceauth.ServiceIDHeader, c.serviceID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, truncated, readErr := slhttputil.ReadAllWithLimit(resp.Body, 32<<10)
		if readErr != nil {
			return nil, fmt.Errorf("request failed: %s (failed to read body: %v)", resp.Status, readErr)
		}
		msg := strings.TrimSpace(string(body))
		if truncated {
			msg += "...(truncated)"
		}
		if msg != "" {
			return nil, fmt.Errorf("request failed: %s - %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}

	respBody, err := slhttputil.ReadAllStrict(resp.Body, c.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result SubmitResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Convenience Methods
// =============================================================================

// FulfillRequest submits a fulfill_request transaction.
func (c *Client) FulfillRequest(ctx context.Context, requestID string, resultHex string) (*SubmitResponse, error) {
	params, err := json.Marshal(FulfillParams{
		RequestID: requestID,
		Result:    resultHex,
	})
	if err != nil {
		return nil, err
	}

	return c.Submit(ctx, &SubmitRequest{
		RequestID: fmt.Sprintf("%s:fulfill:%s", c.serviceID, requestID),
		TxType:    "fulfill_request",
		Params:    params,
	})
}

// FailRequest submits a fail_request transaction.
func (c *Client) FailRequest(ctx context.Context, requestID string, errorMsg string) (*SubmitResponse, error) {
	params, err := json.Marshal(FailParams{
		RequestID: requestID,
		Reason:    errorMsg,
	})
	if err != nil {
		return nil, err
	}

	return c.Submit(ctx, &SubmitRequest{
		RequestID: fmt.Sprintf("%s:fail:%s", c.serviceID, requestID),
		TxType:    "fail_request",
		Params:    params,
	})
}

// SetTEEMasterKey submits a set_tee_master_key transaction.
func (c *Client) SetTEEMasterKey(ctx context.Context, pubKey, pubKeyHash, attestHash string) (*SubmitResponse, error) {
	params, err := json.Marshal(SetMasterKeyParams{
		PubKey:     pubKey,
		PubKeyHash: pubKeyHash,
		AttestHash: attestHash,
	})
	if err != nil {
		return nil, err
	}

	return c.Submit(ctx, &SubmitRequest{
		RequestID:           fmt.Sprintf("globalsigner:masterkey:%d", time.Now().UnixNano()),
		TxType:              "set_tee_master_key",
		Params:              params,
		WaitForConfirmation: true,
	})
}

// UpdatePrices submits an update_prices transaction.
func (c *Client) UpdatePrices(ctx context.Context, feedIDs []string, prices []string, timestamps []uint64) (*SubmitResponse, error) {
	params, err := json.Marshal(UpdatePricesParams{
		FeedIDs:    feedIDs,
		Prices:     prices,
		Timestamps: timestamps,
	})
	if err != nil {
		return nil, err
	}

	return c.Submit(ctx, &SubmitRequest{
		RequestID: fmt.Sprintf("neofeeds:prices:%d", time.Now().UnixNano()),
		TxType:    "update_prices",
		Params:    params,
	})
}

// ResolveDispute submits a resolve_dispute transaction.
func (c *Client) ResolveDispute(ctx context.Context, requestHashHex string, completionProofHex string) (*SubmitResponse, error) {
	params, err := json.Marshal(ResolveDisputeParams{
		RequestHash:     requestHashHex,
		CompletionProof: completionProofHex,
	})
	if err != nil {
		return nil, err
	}

	return c.Submit(ctx, &SubmitRequest{
		RequestID: fmt.Sprintf("%s:dispute:%s", c.serviceID, requestHashHex),
		TxType:    "resolve_dispute",
		Params:    params,
	})
}

// GetStatus gets the status of a submitted transaction.
func (c *Client) GetStatus(ctx context.Context, txID int64) (*SubmitResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("txsubmitter: client is nil")
	}
	if c.httpClient == nil {
		return nil, fmt.Errorf("txsubmitter: http client not configured")
	}

	endpoint := fmt.Sprintf("%s/tx/%d", c.baseURL, txID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.serviceID != "" {
		httpReq.Header.Set(serviceauth.ServiceIDHeader, c.serviceID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, truncated, readErr := slhttputil.ReadAllWithLimit(resp.Body, 32<<10)
		if readErr != nil {
			return nil, fmt.Errorf("request failed: %s (failed to read body: %v)", resp.Status, readErr)
		}
		msg := strings.TrimSpace(string(body))
		if truncated {
			msg += "...(truncated)"
		}
		if msg != "" {
			return nil, fmt.Errorf("request failed: %s - %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}

	respBody, err := slhttputil.ReadAllStrict(resp.Body, c.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result SubmitResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

// Health checks if TxSubmitter is healthy.
func (c *Client) Health(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("txsubmitter: client is nil")
	}
	if c.httpClient == nil {
		return fmt.Errorf("txsubmitter: http client not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: %s", resp.Status)
	}

	return nil
}
