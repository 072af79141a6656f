package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shouni/go-course-finder/pkg/retry"
)

// MockHTTPClient は http.Client の Do メソッドをモックします。
// Doer インターフェースを満たします。
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	// エラーは常に args.Error(1) から取得
	err := args.Error(1)

	// レスポンスが存在する場合のみ型アサーションを行う
	if args.Get(0) != nil {
		return args.Get(0).(*http.Response), err
	}
	return nil, err
}

// newResponse はテスト用のレスポンスを生成します。
func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

// fastRetryConfig はリトライテスト用の高速な設定です。
func fastRetryConfig(maxRetries uint64) retry.Config {
	return retry.Config{
		MaxRetries:      maxRetries,
		InitialInterval: 1 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
	}
}

func TestNew(t *testing.T) {
	t.Run("default timeout", func(t *testing.T) {
		client := New(0)
		assert.Equal(t, DefaultHTTPTimeout, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("custom timeout", func(t *testing.T) {
		timeout := 30 * time.Second
		client := New(timeout)
		assert.Equal(t, timeout, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("with HTTP client option", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		client := New(10*time.Second, WithHTTPClient(mockClient))
		assert.Equal(t, mockClient, client.httpClient)
	})
	t.Run("status check enabled by default", func(t *testing.T) {
		client := New(0)
		assert.True(t, client.checkStatus)
	})
	t.Run("with max retries option", func(t *testing.T) {
		client := New(0, WithMaxRetries(5))
		assert.Equal(t, uint64(5), client.retryConfig.MaxRetries)
	})
}

func TestResolve(t *testing.T) {
	t.Run("relative path against base URL", func(t *testing.T) {
		client := New(0, WithBaseURL("https://www.alura.com.br"))
		resolved, err := client.Resolve("/cursos-online-programacao/php")
		assert.NoError(t, err)
		assert.Equal(t, "https://www.alura.com.br/cursos-online-programacao/php", resolved)
	})
	t.Run("absolute URL is preserved", func(t *testing.T) {
		client := New(0, WithBaseURL("https://www.alura.com.br"))
		resolved, err := client.Resolve("https://example.com/outro")
		assert.NoError(t, err)
		assert.Equal(t, "https://example.com/outro", resolved)
	})
	t.Run("no base URL passes input through", func(t *testing.T) {
		client := New(0)
		resolved, err := client.Resolve("https://example.com/cursos")
		assert.NoError(t, err)
		assert.Equal(t, "https://example.com/cursos", resolved)
	})
	t.Run("invalid URL returns error", func(t *testing.T) {
		client := New(0, WithBaseURL("https://www.alura.com.br"))
		_, err := client.Resolve("http://[::1]:namedport")
		assert.Error(t, err)
	})
}

func TestStatusError_Error(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		expected   string
		statusCode int
	}{
		{"non-empty body", []byte("error body"), "HTTPステータスコードエラー: 404, ボディ: error body", 404},
		{"empty body", nil, "HTTPステータスコードエラー: 404, ボディなし", 404},
		{"truncated body", []byte(strings.Repeat("a", 1025)), "HTTPステータスコードエラー: 500, ボディ: " + strings.Repeat("a", 1024) + "...", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &StatusError{StatusCode: tt.statusCode, Body: tt.body}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestFetchBytes(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusOK, "<html></html>"), nil)

		client := New(0, WithHTTPClient(mockClient))
		body, err := client.FetchBytes(context.Background(), "https://example.com")
		assert.NoError(t, err)
		assert.Equal(t, []byte("<html></html>"), body)
		mockClient.AssertExpectations(t)
	})
	t.Run("sets user agent header", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			return req.Header.Get("User-Agent") == UserAgent
		})).Return(newResponse(http.StatusOK, "ok"), nil)

		client := New(0, WithHTTPClient(mockClient))
		_, err := client.FetchBytes(context.Background(), "https://example.com")
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})
	t.Run("resolves relative path against base URL", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			return req.URL.String() == "https://www.alura.com.br/cursos-online-programacao/php"
		})).Return(newResponse(http.StatusOK, "ok"), nil)

		client := New(0, WithHTTPClient(mockClient), WithBaseURL("https://www.alura.com.br"))
		_, err := client.FetchBytes(context.Background(), "/cursos-online-programacao/php")
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})
	t.Run("network error surfaces to caller", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(nil, errors.New("connection refused"))

		client := New(0, WithHTTPClient(mockClient))
		body, err := client.FetchBytes(context.Background(), "https://unreachable.example.com")
		assert.Error(t, err)
		assert.Nil(t, body)
		assert.Contains(t, err.Error(), "connection refused")
	})
	t.Run("non-2xx status is an error by default", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusNotFound, "not found"), nil)

		client := New(0, WithHTTPClient(mockClient))
		body, err := client.FetchBytes(context.Background(), "https://example.com/missing")
		assert.Error(t, err)
		assert.Nil(t, body)
		assert.True(t, IsStatusError(err), "StatusErrorであることが期待されます")

		var statusErr *StatusError
		assert.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})
	t.Run("legacy mode parses body regardless of status", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusNotFound, "<html>corpo</html>"), nil)

		client := New(0, WithHTTPClient(mockClient), WithStatusCheck(false))
		body, err := client.FetchBytes(context.Background(), "https://example.com/missing")
		assert.NoError(t, err)
		assert.Equal(t, []byte("<html>corpo</html>"), body)
	})
	t.Run("5xx is retried up to max retries", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusInternalServerError, "erro"), nil).Once()
		mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusInternalServerError, "erro"), nil).Once()
		mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusOK, "ok"), nil).Once()

		client := New(0, WithHTTPClient(mockClient))
		client.retryConfig = fastRetryConfig(2)

		body, err := client.FetchBytes(context.Background(), "https://example.com")
		assert.NoError(t, err)
		assert.Equal(t, []byte("ok"), body)
		mockClient.AssertNumberOfCalls(t, "Do", 3)
	})
	t.Run("4xx is not retried", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(newResponse(http.StatusBadRequest, "ruim"), nil)

		client := New(0, WithHTTPClient(mockClient))
		client.retryConfig = fastRetryConfig(3)

		_, err := client.FetchBytes(context.Background(), "https://example.com")
		assert.Error(t, err)
		assert.True(t, IsStatusError(err))
		mockClient.AssertNumberOfCalls(t, "Do", 1)
	})
	t.Run("zero retries issues a single request", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(nil, errors.New("timeout"))

		client := New(0, WithHTTPClient(mockClient))

		_, err := client.FetchBytes(context.Background(), "https://example.com")
		assert.Error(t, err)
		mockClient.AssertNumberOfCalls(t, "Do", 1)
	})
}

func TestFetchDocument(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(
			newResponse(http.StatusOK, `<html><body><span class="card-curso__nome">PHP Básico</span></body></html>`), nil)

		client := New(0, WithHTTPClient(mockClient))
		doc, err := client.FetchDocument(context.Background(), "https://example.com")
		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "PHP Básico", doc.Find("span.card-curso__nome").Text())
		mockClient.AssertExpectations(t)
	})
	t.Run("fetch error propagates", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockClient.On("Do", mock.Anything).Return(nil, errors.New("network error"))

		client := New(0, WithHTTPClient(mockClient))
		doc, err := client.FetchDocument(context.Background(), "https://example.com")
		assert.Error(t, err)
		assert.Nil(t, doc)
	})
}

func TestIsStatusError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.False(t, IsStatusError(nil))
	})
	t.Run("status error", func(t *testing.T) {
		err := &StatusError{StatusCode: 404}
		assert.True(t, IsStatusError(err))
	})
	t.Run("other error type", func(t *testing.T) {
		assert.False(t, IsStatusError(errors.New("some error")))
	})
}

func TestIsRetryableError(t *testing.T) {
	client := New(0)

	t.Run("nil error", func(t *testing.T) {
		assert.False(t, client.isRetryableError(nil))
	})
	t.Run("context cancellation is not retried", func(t *testing.T) {
		assert.False(t, client.isRetryableError(context.Canceled))
		assert.False(t, client.isRetryableError(context.DeadlineExceeded))
	})
	t.Run("5xx status is retryable", func(t *testing.T) {
		assert.True(t, client.isRetryableError(&StatusError{StatusCode: 503}))
	})
	t.Run("4xx status is not retryable", func(t *testing.T) {
		assert.False(t, client.isRetryableError(&StatusError{StatusCode: 404}))
	})
	t.Run("network error is retryable", func(t *testing.T) {
		assert.True(t, client.isRetryableError(errors.New("connection reset")))
	})
}
