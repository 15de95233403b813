package da

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/nftzone/registry-indexer/internal/adapter"
)

const defaultGasPrice = 0.002

// celestiaClient implements Client against a celestia-node JSON-RPC
// endpoint with bearer-token auth.
type celestiaClient struct {
	endpoint  string
	authToken string

	// namespace in the node's wire form, base64-encoded once at startup
	namespaceB64 string

	httpClient adapter.HTTPClient
	base64     adapter.Base64
	json       adapter.JSON

	requestID atomic.Int64
}

// NewCelestiaClient creates a Client for the given RPC endpoint and hex
// namespace.
func NewCelestiaClient(endpoint, authToken, namespaceHex string, httpClient adapter.HTTPClient) (Client, error) {
	user, err := ParseNamespace(namespaceHex)
	if err != nil {
		return nil, err
	}

	b64 := adapter.NewBase64()
	return &celestiaClient{
		endpoint:     endpoint,
		authToken:    authToken,
		namespaceB64: b64.Encode(wireNamespace(user)),
		httpClient:   httpClient,
		base64:       b64,
		json:         adapter.NewJSON(),
	}, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcBlob is the node's wire shape for a blob
type rpcBlob struct {
	Namespace    string `json:"namespace"`
	Data         string `json:"data"`
	ShareVersion int    `json:"share_version"`
	Commitment   string `json:"commitment,omitempty"`
	Index        int    `json:"index,omitempty"`
}

func (c *celestiaClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := c.json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if c.authToken != "" {
		headers["Authorization"] = "Bearer " + c.authToken
	}

	respBody, err := c.httpClient.Post(ctx, c.endpoint, headers, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	var resp rpcResponse
	if err := c.json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("rpc error from %s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
	}

	if result != nil {
		if err := c.json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}

	return nil
}

func (c *celestiaClient) Submit(ctx context.Context, payload []byte) (*SubmitResult, error) {
	blobs := []rpcBlob{{
		Namespace:    c.namespaceB64,
		Data:         c.base64.Encode(payload),
		ShareVersion: 0,
	}}

	var height uint64
	err := c.call(ctx, "blob.Submit",
		[]interface{}{blobs, map[string]interface{}{"gas_price": defaultGasPrice}},
		&height)
	if err != nil {
		return nil, err
	}

	// blob.Submit only reports the height; the blob's commitment serves as
	// the transaction id, so read it back from the included height
	included, err := c.GetAll(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("failed to read back submitted blob: %w", err)
	}
	for _, blob := range included {
		if bytes.Equal(blob.Data, payload) {
			return &SubmitResult{Height: height, TxHash: blob.TxID}, nil
		}
	}

	return nil, fmt.Errorf("submitted blob not found at height %d", height)
}

func (c *celestiaClient) GetAll(ctx context.Context, height uint64) ([]Blob, error) {
	var raw []rpcBlob
	err := c.call(ctx, "blob.GetAll",
		[]interface{}{height, []string{c.namespaceB64}},
		&raw)
	if err != nil {
		// Older nodes answer "blob: not found" instead of an empty list
		if strings.Contains(err.Error(), "blob: not found") {
			return nil, nil
		}
		return nil, err
	}

	// The node answers null when the namespace has nothing at this height
	blobs := make([]Blob, 0, len(raw))
	for _, b := range raw {
		data, err := c.base64.Decode(b.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode blob data at height %d: %w", height, err)
		}
		blobs = append(blobs, Blob{Data: data, TxID: b.Commitment})
	}

	return blobs, nil
}

// localHead is the subset of header.LocalHead we care about. Heights travel
// as strings in header payloads.
type localHead struct {
	Header struct {
		Height string `json:"height"`
	} `json:"header"`
}

func (c *celestiaClient) LocalHead(ctx context.Context) (uint64, error) {
	var head localHead
	if err := c.call(ctx, "header.LocalHead", []interface{}{}, &head); err != nil {
		return 0, err
	}

	height, err := strconv.ParseUint(head.Header.Height, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse head height %q: %w", head.Header.Height, err)
	}

	return height, nil
}
