package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAPIHost Razorpay API 地址
const DefaultAPIHost = "https://api.razorpay.com"

// Order 支付订单
type Order struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int               `json:"amount"` // 派萨
	AmountDue int               `json:"amount_due"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes,omitempty"`
	CreatedAt int64             `json:"created_at"`
}

// OrderRequest 创建订单请求
type OrderRequest struct {
	Amount   int               `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// APIError 网关返回的错误
type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: %s (status %d): %s", e.Code, e.StatusCode, e.Description)
}

// Client Razorpay API 客户端
type Client struct {
	httpClient *http.Client
	apiHost    string
	keyID      string
	keySecret  string
}

// NewClient 创建客户端
func NewClient(apiHost, keyID, keySecret string) *Client {
	if apiHost == "" {
		apiHost = DefaultAPIHost
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiHost:   apiHost,
		keyID:     keyID,
		keySecret: keySecret,
	}
}

// KeyID 前端收银台使用的公钥
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder 创建支付订单
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiHost+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do order request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var wrapped struct {
			Error APIError `json:"error"`
		}
		_ = json.Unmarshal(data, &wrapped)
		wrapped.Error.StatusCode = resp.StatusCode
		return nil, &wrapped.Error
	}

	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	return &order, nil
}

// Signature 计算回调签名：HMAC-SHA256(order_id|payment_id)
func (c *Client) Signature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 校验收银台回调签名
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(c.Signature(orderID, paymentID)), []byte(signature))
}
