// Package gemini はGoogle Gemini APIによるロースト生成を提供する。
// generateContentエンドポイントの呼び出しとレスポンスの構造化パースを含む。
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

const (
	// defaultEndpoint はGemini generateContent APIのベースエンドポイント。
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	// defaultBackoffBase はリトライ間隔の基準値。試行ごとに倍増する。
	defaultBackoffBase = 500 * time.Millisecond
)

// Config はGeminiクライアントの設定。
type Config struct {
	APIKey     string
	Model      string
	MaxRetries int

	// テスト用にエンドポイントを差し替え可能
	Endpoint string
}

// Client はGemini APIのクライアント。
// 429と5xxに対して指数バックオフ付きで限定回数リトライする。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
	sleep      func(ctx context.Context, d time.Duration) error // テスト用に差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
		sleep:      sleepContext,
	}
}

// generateContentRequest はgenerateContent APIのリクエストボディ。
type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

// generateContentResponse はgenerateContent APIのレスポンスボディ。
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate はロースト依頼からGeminiでロースト結果を生成する。
// 一時的な失敗（429、5xx、ネットワークエラー）は設定された回数までリトライし、
// それでも失敗した場合はエラーを返す（呼び出し元が502相当として扱う）。
func (c *Client) Generate(ctx context.Context, req *model.RoastRequest) (*model.RoastResponse, error) {
	prompt := buildPrompt(req)

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      temperatureFor(req.RoastLevel),
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s:generateContent", c.config.Endpoint, c.config.Model)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBackoffBase * time.Duration(1<<(attempt-1))
			c.logger.Warn("retrying roast generation",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.String("error", lastErr.Error()),
			)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		resp, retryable, err := c.doGenerate(ctx, reqURL, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	c.logger.Error("roast generation failed",
		slog.String("model", c.config.Model),
		slog.String("error", lastErr.Error()),
	)
	return nil, lastErr
}

// doGenerate は1回のgenerateContent呼び出しを行う。
// 2番目の戻り値は失敗がリトライ可能かどうかを示す。
func (c *Client) doGenerate(ctx context.Context, reqURL string, body []byte) (*model.RoastResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("Gemini APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("Gemini APIがステータス %d を返しました: %s", resp.StatusCode, string(respBody))
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, false, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, false, fmt.Errorf("レスポンスに候補が含まれていません")
	}

	roast, err := parseRoastResponse(genResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, false, err
	}

	return roast, false, nil
}

// sleepContext はコンテキストのキャンセルを考慮して待機する。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
