package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/go-course-finder/pkg/retry"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 30 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB: レスポンスボディの最大読み込みサイズ

	// サイトからのブロックを避けるためのUser-Agent
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

	maxErrorBodyPreview = 1024
)

// StatusError は非2xx系のHTTPステータスコードを示すカスタムエラー型です。
// 元々の挙動はステータスコードを検査せずボディをそのまま解析していましたが、
// 既定では非2xxをエラーとして扱います（WithStatusCheck(false) で従来挙動に戻せます）。
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) > 0 {
		body := strings.TrimSpace(string(e.Body))
		if len(body) > maxErrorBodyPreview {
			body = body[:maxErrorBodyPreview] + "..."
		}
		return fmt.Sprintf("HTTPステータスコードエラー: %d, ボディ: %s", e.StatusCode, body)
	}
	return fmt.Sprintf("HTTPステータスコードエラー: %d, ボディなし", e.StatusCode)
}

// IsStatusError は与えられたエラーがHTTPステータスコードエラーであるかを判断します。
func IsStatusError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	return errors.As(err, &statusErr)
}

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client はHTTPリクエストと指数バックオフを用いたリトライロジックを管理します。
// baseURL が設定されている場合、相対パスはそのベースに対して解決されます。
type Client struct {
	httpClient  Doer
	retryConfig retry.Config
	baseURL     *url.URL
	checkStatus bool
	userAgent   string
}

// Option はClientの設定を行うための関数型です。
type Option func(*Client)

// WithHTTPClient はカスタムのDoerを設定します。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithMaxRetries は最大リトライ回数を設定します。
func WithMaxRetries(max uint64) Option {
	return func(c *Client) {
		c.retryConfig.MaxRetries = max
	}
}

// WithBaseURL はリクエストの基準となるベースURLを設定します。
// パースに失敗した場合、ベースURLは設定されません（相対パスの解決は失敗します）。
func WithBaseURL(rawBase string) Option {
	return func(c *Client) {
		parsed, err := url.Parse(rawBase)
		if err != nil {
			return
		}
		c.baseURL = parsed
	}
}

// WithStatusCheck は非2xxステータスをエラーとして扱うかどうかを設定します。
// false を指定すると、ステータスコードに関わらずボディをそのまま返します。
func WithStatusCheck(enabled bool) Option {
	return func(c *Client) {
		c.checkStatus = enabled
	}
}

// New は、新しいClientを生成します。
func New(timeout time.Duration, options ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryConfig: retry.DefaultConfig(),
		checkStatus: true,
		userAgent:   UserAgent,
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Resolve は与えられたURLを、設定されたベースURLに対して解決します。
// ベースURL未設定の場合は入力をそのまま返します。
func (c *Client) Resolve(rawURL string) (string, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー (%s): %w", rawURL, err)
	}
	if c.baseURL == nil {
		return rawURL, nil
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// addCommonHeaders は共通のHTTPヘッダーを設定します。
func (c *Client) addCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
}

// FetchBytes はURLからコンテンツを取得し、生のバイト配列として返します。
// 相対パスはベースURLに対して解決されます。
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := c.Resolve(rawURL)
	if err != nil {
		return nil, err
	}

	var bodyBytes []byte

	op := func() error {
		var fetchErr error
		bodyBytes, fetchErr = c.doFetch(ctx, target)
		return fetchErr
	}

	err = retry.Do(
		ctx,
		c.retryConfig,
		fmt.Sprintf("URL(%s)のフェッチ", target),
		op,
		c.isRetryableError,
	)

	if err != nil {
		return nil, err
	}
	return bodyBytes, nil
}

// FetchDocument はURLからHTMLを取得し、goquery.Documentを返します。
func (c *Client) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	bodyBytes, err := c.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	return doc, nil
}

// doFetch は実際の一度のHTTP GETリクエストを実行し、レスポンスボディを返します。
func (c *Client) doFetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)
	}
	c.addCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}

	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, MaxBodySize)
	bodyBytes, readErr := io.ReadAll(limitedReader)

	if resp.ContentLength > 0 && resp.ContentLength > MaxBodySize {
		return nil, fmt.Errorf("レスポンスボディが最大サイズ (%dバイト) を超えました", MaxBodySize)
	}

	// ステータス検査が無効な場合、従来挙動としてボディをそのまま返す
	if !c.checkStatus {
		if readErr != nil {
			return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", readErr)
		}
		return bodyBytes, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if readErr != nil {
			return nil, &StatusError{StatusCode: resp.StatusCode}
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: bodyBytes}
	}

	if readErr != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", readErr)
	}

	return bodyBytes, nil
}

// isRetryableError はエラーがリトライ対象かどうかを判定します。
// この関数は retry.ShouldRetryFunc 型のシグネチャを満たします。
func (c *Client) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// 1. Contextエラー（タイムアウト/キャンセル）はリトライを打ち切る
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 2. ステータスコードエラーは 5xx 系のみリトライ対象
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 && statusErr.StatusCode <= 599
	}

	// 3. ネットワークエラーはすべてリトライ対象
	return true
}
