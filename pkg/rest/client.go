package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/uniclient-go/pkg/metrics"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	PathSimulate  = "/cosmos/tx/v1beta1/simulate"
	PathBroadcast = "/cosmos/tx/v1beta1/txs"

	opSimulate  = "simulate"
	opBroadcast = "broadcast"
)

type ClientConfig struct {
	// HTTPClient defaults to a client with no timeout; callers bound requests
	// through the context.
	HTTPClient *http.Client
	// RateLimit is the maximum requests per second. Zero disables pacing.
	RateLimit float64
	// Burst defaults to 1 when RateLimit is set.
	Burst   int
	Metrics *metrics.Metrics
}

// Client submits envelopes to a node's REST gateway. It never retries.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewClient(cfg *ClientConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit cannot be negative")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

type txRequest struct {
	TxBytes string `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

// TxResponse is the decoded tx_response of a broadcast. Numeric fields accept
// both the string and number encodings gateways use.
type TxResponse struct {
	Height    int64           `json:"height"`
	TxHash    string          `json:"txhash"`
	Codespace string          `json:"codespace"`
	Code      uint32          `json:"code"`
	Data      string          `json:"data"`
	RawLog    string          `json:"raw_log"`
	GasWanted uint64          `json:"gas_wanted"`
	GasUsed   uint64          `json:"gas_used"`
	Events    json.RawMessage `json:"events,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// BroadcastResponse carries the gateway's body verbatim alongside the decoded tx_response.
type BroadcastResponse struct {
	Raw        json.RawMessage
	TxResponse *TxResponse
}

// Simulate posts env for gas estimation and returns the gas used.
func (c *Client) Simulate(ctx context.Context, endpoint string, env *types.SignedEnvelope, mode types.BroadcastMode) (uint64, error) {
	start := time.Now()
	gas, err := c.simulate(ctx, endpoint, env, mode)
	c.metrics.RecordGatewayRequest(opSimulate, start, err)
	return gas, err
}

func (c *Client) simulate(ctx context.Context, endpoint string, env *types.SignedEnvelope, mode types.BroadcastMode) (uint64, error) {
	body, err := c.post(ctx, opSimulate, endpoint, PathSimulate, env, mode)
	if err != nil {
		return 0, err
	}
	doc, err := checkResponse(body)
	if err != nil {
		return 0, err
	}

	gasUsed, ok := lookup(doc, "gas_info", "gas_used")
	if !ok {
		gasUsed, ok = lookup(doc, "tx_response", "gas_info", "gas_used")
	}
	if !ok {
		return 0, fmt.Errorf("simulate response has no gas_info.gas_used")
	}
	gas, err := cast.ToUint64E(gasUsed)
	if err != nil {
		return 0, fmt.Errorf("invalid gas_used %v: %w", gasUsed, err)
	}
	c.logger.Sugar().Debugw("Simulated transaction", "endpoint", endpoint, "gasUsed", gas)
	return gas, nil
}

// Broadcast submits env. Broadcasting is not idempotent; the caller decides
// whether a failed submission may be resent.
func (c *Client) Broadcast(ctx context.Context, endpoint string, env *types.SignedEnvelope, mode types.BroadcastMode) (*BroadcastResponse, error) {
	start := time.Now()
	resp, err := c.broadcast(ctx, endpoint, env, mode)
	c.metrics.RecordGatewayRequest(opBroadcast, start, err)
	return resp, err
}

func (c *Client) broadcast(ctx context.Context, endpoint string, env *types.SignedEnvelope, mode types.BroadcastMode) (*BroadcastResponse, error) {
	body, err := c.post(ctx, opBroadcast, endpoint, PathBroadcast, env, mode)
	if err != nil {
		return nil, err
	}
	doc, err := checkResponse(body)
	if err != nil {
		return nil, err
	}

	resp := &BroadcastResponse{Raw: json.RawMessage(body)}
	if txResp, ok := doc["tx_response"].(map[string]interface{}); ok {
		resp.TxResponse, err = decodeTxResponse(txResp)
		if err != nil {
			return nil, err
		}
		c.logger.Sugar().Infow("Broadcast transaction", "endpoint", endpoint, "txhash", resp.TxResponse.TxHash, "mode", mode)
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, op, endpoint, path string, env *types.SignedEnvelope, mode types.BroadcastMode) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is not set")
	}
	txBytes, err := txcodec.EncodeEnvelopeBase64(env)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = types.BroadcastMode_Sync
	}
	payload, err := json.Marshal(&txRequest{TxBytes: txBytes, Mode: mode.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &types.NetworkError{Op: op, Err: err}
		}
	}

	url := strings.TrimRight(endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	// Gateways report rejections with non-2xx statuses and a JSON body, so the
	// body is interpreted whenever it parses.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if !json.Valid(body) {
			return nil, &types.NetworkError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		c.logger.Sugar().Debugw("Gateway returned non-2xx status", "op", op, "status", resp.StatusCode)
	}
	return body, nil
}

// checkResponse applies the two-tier code contract: a top-level code first,
// then tx_response.code.
func checkResponse(body []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid gateway response: %w", err)
	}

	if code, ok := lookup(doc, "code"); ok {
		if err := rejection(code, doc["message"]); err != nil {
			return nil, err
		}
	}
	if code, ok := lookup(doc, "tx_response", "code"); ok {
		rawLog, _ := lookup(doc, "tx_response", "raw_log")
		if err := rejection(code, rawLog); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// rejection returns nil only for a code that reads as zero. A code that is not
// a valid uint32 counts as nonzero.
func rejection(code, message interface{}) error {
	n, err := cast.ToUint32E(code)
	if err != nil {
		return &types.ServerRejectedTxError{RawCode: fmt.Sprint(code), Message: cast.ToString(message)}
	}
	if n == 0 {
		return nil
	}
	return &types.ServerRejectedTxError{Code: n, Message: cast.ToString(message)}
}

func lookup(doc map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = doc
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func decodeTxResponse(m map[string]interface{}) (*TxResponse, error) {
	var err error
	resp := &TxResponse{
		TxHash:    cast.ToString(m["txhash"]),
		Codespace: cast.ToString(m["codespace"]),
		Data:      cast.ToString(m["data"]),
		RawLog:    cast.ToString(m["raw_log"]),
		Timestamp: cast.ToString(m["timestamp"]),
	}
	if resp.Height, err = cast.ToInt64E(orZero(m["height"])); err != nil {
		return nil, fmt.Errorf("invalid tx_response.height: %w", err)
	}
	if resp.Code, err = cast.ToUint32E(orZero(m["code"])); err != nil {
		return nil, fmt.Errorf("invalid tx_response.code: %w", err)
	}
	if resp.GasWanted, err = cast.ToUint64E(orZero(m["gas_wanted"])); err != nil {
		return nil, fmt.Errorf("invalid tx_response.gas_wanted: %w", err)
	}
	if resp.GasUsed, err = cast.ToUint64E(orZero(m["gas_used"])); err != nil {
		return nil, fmt.Errorf("invalid tx_response.gas_used: %w", err)
	}
	if events, ok := m["events"]; ok && events != nil {
		if resp.Events, err = json.Marshal(events); err != nil {
			return nil, fmt.Errorf("invalid tx_response.events: %w", err)
		}
	}
	return resp, nil
}

func orZero(v interface{}) interface{} {
	if v == nil {
		return 0
	}
	if s, ok := v.(string); ok && s == "" {
		return 0
	}
	return v
}
