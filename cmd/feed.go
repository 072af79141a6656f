package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"

	"github.com/shouni/go-course-finder/pkg/client"
	feedpkg "github.com/shouni/go-course-finder/pkg/feed"
	"github.com/shouni/go-course-finder/pkg/parser"
)

// フィードURLを保持するフラグ変数
var feedURL string

// フィードの全体処理のタイムアウト設定 (searchCmdと統一)
// Flags.TimeoutSec はHTTPクライアントのタイムアウト秒数を表します。
const overallFeedTimeoutFactor = 2 // クライアントタイムアウトの2倍

// runFeedPipeline は、フィードの取得とパースを実行するメインロジックです。
func runFeedPipeline(url string, p *parser.Parser, overallTimeout time.Duration) (*gofeed.Feed, error) {
	// 1. 全体処理のコンテキストを設定
	ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
	defer cancel()

	// 2. 取得とパースの実行
	parsedFeed, err := p.FetchAndParse(ctx, url)
	if err != nil {
		// エラーのラッピング
		return nil, fmt.Errorf("フィードの取得およびパースエラー (URL: %s): %w", url, err)
	}

	return parsedFeed, nil
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "RSS/Atomフィードを解析し、カタログページ候補のリンクを一覧表示します",
	Long:  `指定されたURLからRSSまたはAtomフィードを取得し、その内容（フィードタイトル、各エントリのリンク）を整形して表示します。得られたリンクは search コマンドの対象ページとして利用できます。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		// 全体タイムアウトを設定: クライアントタイムアウトの2倍 (searchCmdと統一)
		overallTimeout := time.Duration(Flags.TimeoutSec) * overallFeedTimeoutFactor * time.Second
		if Flags.TimeoutSec == 0 {
			overallTimeout = DefaultOverallTimeout
		}

		// URLのスキーム補完とバリデーション
		processedURL, err := ensureScheme(feedURL)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}
		log.Printf("処理対象フィードURL: %s (全体タイムアウト: %s)", processedURL, overallTimeout)

		// 1. 依存性の初期化
		// フィードの取得には httpkit ベースのクライアントを利用します。
		timeout := time.Duration(Flags.TimeoutSec) * time.Second
		fetcher := client.New(timeout, client.WithMaxRetries(uint64(Flags.MaxRetries)))

		p, err := parser.NewParser(fetcher)
		if err != nil {
			return fmt.Errorf("Parserの初期化エラー: %w", err)
		}

		// 2. メインロジックの実行
		parsedFeed, err := runFeedPipeline(processedURL, p, overallTimeout)
		if err != nil {
			return fmt.Errorf("フィード解析パイプラインの実行エラー: %w", err)
		}

		// 3. リンクの抽出 (LinkSource アダプター経由)
		links := feedpkg.GetAllLinks(feedpkg.NewFeedAdapter(parsedFeed))

		// 4. 結果の出力
		fmt.Printf("--- フィード解析結果 ---\n")
		fmt.Printf("フィードタイトル: %s\n", parsedFeed.Title)
		if parsedFeed.Link != "" {
			fmt.Printf("リンク: %s\n", parsedFeed.Link)
		}
		fmt.Printf("カタログページ候補数: %d\n", len(links))
		fmt.Println("-----------------------")

		for i, link := range links {
			fmt.Printf("[%d] %s\n", i+1, link)
		}
		// 最後に改行を加えて出力完了とする
		fmt.Println()

		return nil
	},
}

func init() {
	// サブコマンド固有のフラグ定義
	feedCmd.Flags().StringVarP(&feedURL, "url", "u", "", "解析対象のフィード (RSS/Atom) URL")

	// URLフラグを必須にする
	feedCmd.MarkFlagRequired("url")
}
