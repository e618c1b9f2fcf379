package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"market-simulator/src/helpers"
	"market-simulator/src/interfaces"
	"market-simulator/src/logger"
	"market-simulator/src/models"

	"github.com/goccy/go-json"
)

// -----------------------------------------------------------------------------
// JSON-RPC wire types
// -----------------------------------------------------------------------------

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcBlock struct {
	Number       string            `json:"number"`
	Transactions []json.RawMessage `json:"transactions"`
}

// -----------------------------------------------------------------------------

// RPCClient reads block and gas data from an Ethereum style JSON-RPC endpoint.
type RPCClient struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Logger       *logger.Logger

	mu     sync.RWMutex
	client *http.Client
	nextID atomic.Uint64
}

// -----------------------------------------------------------------------------

func NewRPCClient(cfg *models.MConfig, log *logger.Logger) *RPCClient {
	c := &RPCClient{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(cfg.Network.Proxies, cfg.Network.UserAgent, log),
		Logger:       log,
	}
	c.client = c.createClient()
	return c
}

// -----------------------------------------------------------------------------

func (c *RPCClient) createClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}

	if c.ProxyManager.HasProxies() {
		proxyStr, err := c.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout(),
	}
}

// -----------------------------------------------------------------------------

func (c *RPCClient) timeout() time.Duration {
	return time.Duration(c.Config.Network.RequestTimeout) * time.Second
}

// -----------------------------------------------------------------------------

func (c *RPCClient) rotateProxy() {
	if !c.ProxyManager.HasProxies() {
		return
	}

	c.ProxyManager.RotateProxy()
	c.mu.Lock()
	c.client = c.createClient()
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Call performs one JSON-RPC call with the configured timeout and retries.
// Every failure comes back classified (timeout, transport, decode).
func (c *RPCClient) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}

	attempts := c.Config.Network.MaxRetries + 1
	return helpers.RetryWithBackoff(ctx, c.Logger, method, attempts, 200*time.Millisecond, func(ctx context.Context) (json.RawMessage, error) {
		res, err := c.callOnce(ctx, method, params)
		if err != nil && !isDecode(err) {
			c.rotateProxy()
		}
		return res, err
	})
}

// -----------------------------------------------------------------------------

func (c *RPCClient) callOnce(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, helpers.NewTransportError(method, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Config.Network.RPCURL, bytes.NewReader(body))
	if err != nil {
		return nil, helpers.NewTransportError(method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.ProxyManager.GetUserAgent())

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	resp, err := client.Do(req)
	if err != nil {
		return nil, helpers.ClassifyTransportError(method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, helpers.NewTransportError(method, fmt.Errorf("bad status: %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.ClassifyTransportError(method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, helpers.NewDecodeError(method, err)
	}
	if rpcResp.Error != nil {
		return nil, helpers.NewTransportError(method, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return nil, helpers.NewDecodeError(method, fmt.Errorf("empty result"))
	}

	return rpcResp.Result, nil
}

// -----------------------------------------------------------------------------

// LatestBlock implements interfaces.IChainClient
func (c *RPCClient) LatestBlock(ctx context.Context) (interfaces.BlockSummary, error) {
	const method = "eth_getBlockByNumber"

	raw, err := c.Call(ctx, method, "latest", false)
	if err != nil {
		return interfaces.BlockSummary{}, err
	}

	var block rpcBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return interfaces.BlockSummary{}, helpers.NewDecodeError(method, err)
	}

	number, err := parseHexBig(block.Number)
	if err != nil {
		return interfaces.BlockSummary{}, helpers.NewDecodeError(method, err)
	}
	if !number.IsUint64() {
		return interfaces.BlockSummary{}, helpers.NewDecodeError(method, fmt.Errorf("block number %s overflows uint64", number))
	}

	return interfaces.BlockSummary{
		Number:  number.Uint64(),
		TxCount: int64(len(block.Transactions)),
	}, nil
}

// -----------------------------------------------------------------------------

// GasPrice implements interfaces.IChainClient
func (c *RPCClient) GasPrice(ctx context.Context) (*big.Int, error) {
	const method = "eth_gasPrice"

	raw, err := c.Call(ctx, method)
	if err != nil {
		return nil, err
	}

	var hexPrice string
	if err := json.Unmarshal(raw, &hexPrice); err != nil {
		return nil, helpers.NewDecodeError(method, err)
	}

	wei, err := parseHexBig(hexPrice)
	if err != nil {
		return nil, helpers.NewDecodeError(method, err)
	}
	return wei, nil
}

// -----------------------------------------------------------------------------

// parseHexBig decodes a 0x-prefixed hex quantity
func parseHexBig(s string) (*big.Int, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("quantity %q lacks 0x prefix", s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex quantity %q", s)
	}
	return v, nil
}

// -----------------------------------------------------------------------------

func isDecode(err error) bool {
	var decodeErr *helpers.DecodeError
	return errors.As(err, &decodeErr)
}
