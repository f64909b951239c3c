package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/langchou/sparkreach/internal/models"
)

// apiClient SparkReach HTTP API 客户端
type apiClient struct {
	endpoint   string
	httpClient *http.Client
	token      string
}

type apiResponse[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error"`
}

func newAPIClient(endpoint string) (*apiClient, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	return &apiClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func do[T any](c *apiClient, method, path string, body interface{}) (T, error) {
	var out apiResponse[T]

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return out.Data, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.endpoint+path, reader)
	if err != nil {
		return out.Data, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return out.Data, err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return out.Data, fmt.Errorf("decode response (%s): %w", res.Status, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		if out.Error == "" {
			out.Error = res.Status
		}
		return out.Data, fmt.Errorf("%s %s: %s", method, path, out.Error)
	}
	return out.Data, nil
}

// Chargers 充电桩列表
func (c *apiClient) Chargers(search, chargerType string) ([]models.Charger, error) {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	if chargerType != "" {
		q.Set("type", chargerType)
	}
	path := "/api/chargers"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return do[[]models.Charger](c, http.MethodGet, path, nil)
}

// AdminLogin 管理员登录，保存 token
func (c *apiClient) AdminLogin(email, password string) error {
	resp, err := do[struct {
		Token string `json:"token"`
	}](c, http.MethodPost, "/api/admin/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Bookings 管理后台预约列表
func (c *apiClient) Bookings(status string) ([]models.Booking, error) {
	path := "/api/admin/bookings"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	return do[[]models.Booking](c, http.MethodGet, path, nil)
}

// Statistics 管理后台统计
func (c *apiClient) Statistics() (*models.Statistics, error) {
	return do[*models.Statistics](c, http.MethodGet, "/api/admin/statistics", nil)
}
