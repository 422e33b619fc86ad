// Package client cxr-learning HTTP API 客户端（供 cxr-cli 使用）
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"cxr-learning/internal/casestudy"
	"cxr-learning/internal/domain"
	httpapi "cxr-learning/internal/http"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/pattern"
	"cxr-learning/internal/quality"
	"cxr-learning/internal/service"
)

// ErrAPI 服务端返回 code != 2000
var ErrAPI = errors.New("api error")

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client 会话 id 由第一次响应下发，之后每个请求都带上
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
	mu         sync.RWMutex
	sessionID  string
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second). // 影像上传可能较慢
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient, logger: logger}
}

func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// SetSessionID 复用已有会话（如 CXR_SESSION）
func (c *Client) SetSessionID(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

func (c *Client) request() *resty.Request {
	req := c.httpClient.R()
	if id := c.SessionID(); id != "" {
		req.SetHeader(httpapi.SessionHeader, id)
	}
	return req
}

func (c *Client) remember(resp *resty.Response) {
	if id := resp.Header().Get(httpapi.SessionHeader); id != "" && id != c.SessionID() {
		c.SetSessionID(id)
		c.logger.Debug("Session assigned", zap.String("session_id", id))
	}
}

// call 发送请求并把 result 解到 out
func (c *Client) call(method, path string, body, out any) error {
	req := c.request()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("API call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	c.remember(resp)

	if resp.IsError() {
		return fmt.Errorf("%w: %s %s: http %d", ErrAPI, method, path, resp.StatusCode())
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if env.Code != httpapi.ResultSuccess {
		c.logger.Warn("API returned error",
			zap.String("path", path),
			zap.Int("code", env.Code),
			zap.String("message", env.Message),
		)
		return fmt.Errorf("%w: %s", ErrAPI, env.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}

func (c *Client) Session() (httpapi.SessionInfo, error) {
	var info httpapi.SessionInfo
	err := c.call(resty.MethodGet, "/api/v1/session", nil, &info)
	return info, err
}

func (c *Client) ResetSession() (httpapi.SessionInfo, error) {
	var info httpapi.SessionInfo
	err := c.call(resty.MethodDelete, "/api/v1/session", nil, &info)
	return info, err
}

func (c *Client) Knowledge() (*knowledge.Base, error) {
	var kb knowledge.Base
	if err := c.call(resty.MethodGet, "/api/v1/knowledge", nil, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// RecordTechnical 提交一个技术质量 section 的答案
func (c *Client) RecordTechnical(section string, answers map[string]string) (quality.Result, error) {
	var res quality.Result
	err := c.call(resty.MethodPost, "/api/v1/technical/"+url.PathEscape(section), answers, &res)
	return res, err
}

func (c *Client) Cases(difficulty, category string) (httpapi.CaseListResponse, error) {
	q := url.Values{}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	if category != "" {
		q.Set("category", category)
	}
	path := "/api/v1/cases"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out httpapi.CaseListResponse
	err := c.call(resty.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Case(id string) (service.CaseView, error) {
	var view service.CaseView
	err := c.call(resty.MethodGet, "/api/v1/cases/"+url.PathEscape(id), nil, &view)
	return view, err
}

func (c *Client) AttemptCase(id string, in casestudy.AttemptInput) (domain.CaseAttempt, error) {
	var a domain.CaseAttempt
	err := c.call(resty.MethodPost, "/api/v1/cases/"+url.PathEscape(id)+"/attempt", in, &a)
	return a, err
}

func (c *Client) CTR(cardiacWidth, thoracicWidth float64) (domain.CTRMeasurement, error) {
	var m domain.CTRMeasurement
	err := c.call(resty.MethodPost, "/api/v1/measure/ctr", httpapi.CTRRequest{CardiacWidth: cardiacWidth, ThoracicWidth: thoracicWidth}, &m)
	return m, err
}

func (c *Client) Match(features []string, distribution string) ([]pattern.Score, error) {
	var scores []pattern.Score
	err := c.call(resty.MethodPost, "/api/v1/patterns/match", httpapi.MatchRequest{Features: features, Distribution: distribution}, &scores)
	return scores, err
}

func (c *Client) Differential(p, distribution string) ([]string, error) {
	q := url.Values{"pattern": {p}, "distribution": {distribution}}
	var out httpapi.DifferentialResponse
	if err := c.call(resty.MethodGet, "/api/v1/patterns/differential?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Differentials, nil
}

func (c *Client) SetImpression(impression string) error {
	return c.call(resty.MethodPost, "/api/v1/report/impression", httpapi.ImpressionRequest{Impression: impression}, nil)
}

// Report 纯文本报告
func (c *Client) Report() (string, error) {
	resp, err := c.request().SetHeader("Accept", "text/plain").Get("/api/v1/report")
	if err != nil {
		return "", fmt.Errorf("failed to fetch report: %w", err)
	}
	c.remember(resp)
	if resp.IsError() {
		return "", fmt.Errorf("%w: report: http %d", ErrAPI, resp.StatusCode())
	}
	return resp.String(), nil
}

// ExportReport xlsx 字节
func (c *Client) ExportReport() ([]byte, error) {
	resp, err := c.request().Get("/api/v1/report/export")
	if err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}
	c.remember(resp)
	if resp.IsError() {
		return nil, fmt.Errorf("%w: export: http %d", ErrAPI, resp.StatusCode())
	}
	return resp.Body(), nil
}
