package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-course-finder/pkg/finder"
	"github.com/shouni/go-course-finder/pkg/httpclient"
	"github.com/shouni/go-course-finder/pkg/types"
)

// DefaultBaseURL は、コースカタログの既定のベースURLです。
const DefaultBaseURL = "https://www.alura.com.br"

// SearchCourses は、URL（またはベースURLに対する相対パス）からコース名一覧を
// 取得して返すメインの処理パイプラインです。
// ライブラリとして最小の手間で利用するための便宜関数であり、
// クライアントとFinderを既定値で構築します。
func SearchCourses(rawURL string) (*types.SearchResult, error) {
	const (
		clientTimeout  = 30 * time.Second
		overallTimeout = 60 * time.Second
	)

	// 1. 外部の Fetcher 実装を初期化 (依存性の初期化)
	client := httpclient.New(clientTimeout, httpclient.WithBaseURL(DefaultBaseURL))

	// 2. Finder を初期化 (DI)
	f, err := finder.NewFinder(client)
	if err != nil {
		return nil, fmt.Errorf("Finderの初期化エラー: %w", err)
	}

	// 3. 全体処理のコンテキストを設定
	ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
	defer cancel()

	// 4. 検索の実行
	courses, err := f.Search(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("コース名抽出エラー: %w", err)
	}

	resolved, err := client.Resolve(rawURL)
	if err != nil {
		return nil, err
	}

	return &types.SearchResult{
		URL:      resolved,
		Selector: f.Selector(),
		Courses:  courses,
	}, nil
}
