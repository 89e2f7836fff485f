package web3signer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/pkg/config"
)

const (
	defaultBaseURL      = "http://localhost:9000"
	defaultTimeout      = 30 * time.Second
	reloadPollInterval  = 500 * time.Millisecond
	pathPublicKeys      = "/api/v1/eth1/publicKeys"
	pathReload          = "/reload"
	jsonRPCVersion      = "2.0"
	pemBeginMarker      = "-----BEGIN"
	maxErrorBodyPreview = 512
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// CACert, Cert and Key are PEM contents or paths to PEM files.
	CACert string
	Cert   string
	Key    string
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL: defaultBaseURL,
		Timeout: defaultTimeout,
	}
}

func NewConfigWithTLS(baseURL, caCert, cert, key string) *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.CACert = caCert
	cfg.Cert = cert
	cfg.Key = key
	return cfg
}

// Client talks JSON-RPC and REST to a Web3Signer instance.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.CACert != "" || cfg.Cert != "" {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		logger:     logger,
	}, nil
}

// NewWeb3SignerClientFromRemoteSignerConfig builds a client from the shared
// remote signer config. A nil config uses DefaultConfig.
func NewWeb3SignerClientFromRemoteSignerConfig(cfg *config.RemoteSignerConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return NewClient(DefaultConfig(), logger)
	}
	return NewClient(NewConfigWithTLS(cfg.Url, cfg.CACert, cfg.Cert, cfg.Key), logger)
}

func readPEM(value string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(value), pemBeginMarker) {
		return []byte(value), nil
	}
	return os.ReadFile(value)
}

func buildTLSConfig(cfg *Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CACert != "" {
		caPEM, err := readPEM(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates found in CA bundle")
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.Cert != "" {
		certPEM, err := readPEM(cfg.Cert)
		if err != nil {
			return nil, fmt.Errorf("failed to read client certificate: %w", err)
		}
		keyPEM, err := readPEM(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to read client key: %w", err)
		}
		pair, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("invalid client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{pair}
	}
	return tlsConfig, nil
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      string        `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	ID      string          `json:"id"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(&jsonRPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  method,
		Params:  params,
		ID:      uuid.New().String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	respBody, err := c.do(ctx, http.MethodPost, c.config.BaseURL, "application/json", body)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}

	var resp jsonRPCResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s returned error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview := string(respBody)
		if len(preview) > maxErrorBodyPreview {
			preview = preview[:maxErrorBodyPreview]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, preview)
	}
	return respBody, nil
}

func (c *Client) EthAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, "eth_accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) EthSign(ctx context.Context, account string, data string) (string, error) {
	var signature string
	if err := c.call(ctx, "eth_sign", []interface{}{account, data}, &signature); err != nil {
		return "", err
	}
	c.logger.Sugar().Debugw("Signed data with Web3Signer", "account", account)
	return signature, nil
}

func (c *Client) EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error) {
	var signature string
	if err := c.call(ctx, "eth_signTypedData", []interface{}{account, typedData}, &signature); err != nil {
		return "", err
	}
	c.logger.Sugar().Debugw("Signed typed data with Web3Signer", "account", account)
	return signature, nil
}

func (c *Client) ListPublicKeys(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, c.config.BaseURL+pathPublicKeys, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list public keys: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("failed to decode public keys: %w", err)
	}
	return keys, nil
}

func (c *Client) ReloadKeys(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, c.config.BaseURL+pathReload, "", nil); err != nil {
		return fmt.Errorf("failed to reload keys: %w", err)
	}
	c.logger.Sugar().Infow("Requested Web3Signer key reload", "url", c.config.BaseURL)
	return nil
}

// ReloadKeysAndWaitForPublicKey reloads keys and polls until publicKey is
// listed or ctx is done.
func (c *Client) ReloadKeysAndWaitForPublicKey(ctx context.Context, publicKey string) error {
	if err := c.ReloadKeys(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(reloadPollInterval)
	defer ticker.Stop()

	for {
		keys, err := c.ListPublicKeys(ctx)
		if err != nil {
			c.logger.Sugar().Debugw("Public key listing failed while waiting for reload", "error", err)
		}
		for _, k := range keys {
			if strings.EqualFold(k, publicKey) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("public key %s not loaded: %w", publicKey, ctx.Err())
		case <-ticker.C:
		}
	}
}
