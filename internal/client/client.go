// Package client 食譜 API 的 Go 客戶端，供呈現層或匯入工具使用
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	recipeService "recipe-manager/internal/core/recipe"
	"recipe-manager/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// APIError 伺服器返回的非 2xx 響應
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("recipe api: %d %s: %s (field %s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("recipe api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound 檢查是否為找不到食譜
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsValidation 檢查是否為輸入驗證錯誤
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// HealthStatus 健康檢查結果
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Storage struct {
		Driver  string `json:"driver"`
		Recipes int    `json:"recipes"`
	} `json:"storage"`
}

const favoritePath = "/favorite"

// Client 食譜 API 客戶端
type Client struct {
	client *resty.Client
}

// Option 客戶端選項
type Option func(*resty.Client)

// WithTimeout 設定單次請求逾時
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetry 對冪等請求的連線錯誤與 5xx 重試
// Create 與 ToggleFavorite 不重試
func WithRetry(count int, wait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if r == nil || !idempotent(r.Request) {
					return false
				}
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}
}

// idempotent GET、DELETE 與整筆取代的 PUT 可安全重送
func idempotent(req *resty.Request) bool {
	if req == nil {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodDelete:
		return true
	case http.MethodPut:
		return !strings.HasSuffix(req.URL, favoritePath)
	default:
		return false
	}
}

// New 創建客戶端，baseURL 例如 http://localhost:5000
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "recipe-manager-client")
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{client: rc}
}

// List 列出所有食譜
func (c *Client) List(ctx context.Context) ([]common.Recipe, error) {
	var recipes []common.Recipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&recipes).
		Get("/recipes")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Get 依 id 取得食譜
func (c *Client) Get(ctx context.Context, id int) (*common.Recipe, error) {
	var recipe common.Recipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		SetResult(&recipe).
		Get("/recipes/{id}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Create 新增食譜
func (c *Client) Create(ctx context.Context, in recipeService.Input) (*common.Recipe, error) {
	var recipe common.Recipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&recipe).
		Post("/recipes")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Replace 整筆取代食譜
func (c *Client) Replace(ctx context.Context, id int, in recipeService.Input) (*common.Recipe, error) {
	var recipe common.Recipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		SetBody(in).
		SetResult(&recipe).
		Put("/recipes/{id}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Delete 刪除食譜
func (c *Client) Delete(ctx context.Context, id int) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		Delete("/recipes/{id}")
	return check(resp, err)
}

// Search 依名稱或食材搜尋
func (c *Client) Search(ctx context.Context, q string) ([]common.Recipe, error) {
	var recipes []common.Recipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("q", q).
		SetResult(&recipes).
		Get("/recipes/search")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return recipes, nil
}

// ToggleFavorite 切換收藏
func (c *Client) ToggleFavorite(ctx context.Context, id int) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		Put("/recipes/{id}" + favoritePath)
	return check(resp, err)
}

// Health 健康檢查
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/health")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &status, nil
}

// check 將傳輸錯誤與非 2xx 響應轉為 error
func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("recipe api request failed: %w", err)
	}
	if !resp.IsError() && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Message:    resp.Status(),
	}
	var body common.ErrorResponse
	if common.ParseJSONBytes(resp.Body(), &body) == nil && body.Error != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		apiErr.Field = body.Field
	}
	return apiErr
}
