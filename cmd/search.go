package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	textUtils "github.com/shouni/go-utils/text"
	"github.com/spf13/cobra"

	"github.com/shouni/go-course-finder/pkg/finder"
	"github.com/shouni/go-course-finder/pkg/types"
)

// コマンドラインフラグ変数を定義
var (
	searchPath     string // --path 検索対象のカタログページのパスまたはURL
	searchSelector string // --selector 抽出対象のCSSセレクター
	outputJSON     bool   // --json 結果をJSONで出力
	normalizeNames bool   // --normalize 表示用にコース名の空白を正規化
)

// DefaultSearchPath は、既定の検索対象カタログページ（ベースURLに対する相対パス）です。
const DefaultSearchPath = "/cursos-online-programacao/php"

// マジックナンバーを定数化
const defaultOverallTimeoutIfClientTimeoutIsZero = 20 * time.Second

// runSearchPipeline は、コース名の検索を実行するメインロジックです。
// Goの慣習に従い、エラーを最後の戻り値にします。
func runSearchPipeline(rawURL string, f *finder.Finder, overallTimeout time.Duration) ([]string, error) {
	// 1. 全体処理のコンテキストを設定
	ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
	defer cancel()

	// 2. 検索の実行
	// Context付きで f.Search を呼び出し、タイムアウトを伝播させる
	courses, err := f.Search(ctx, rawURL)
	if err != nil {
		// エラーのラッピング
		return nil, fmt.Errorf("コース名抽出エラー (URL: %s): %w", rawURL, err)
	}

	return courses, nil
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "カタログページを取得し、コース名の一覧を表示します",
	Long:  `指定されたパス（またはURL）のカタログページを取得し、CSSセレクターに一致したコース名をドキュメント順に一覧表示します。既定ではプログラミングカテゴリのPHPカタログを対象とします。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		// overallTimeout の設定: クライアントタイムアウト (Flags.TimeoutSec) の2倍を全体のタイムアウトとします。
		overallTimeout := time.Duration(Flags.TimeoutSec*2) * time.Second
		if Flags.TimeoutSec == 0 {
			overallTimeout = defaultOverallTimeoutIfClientTimeoutIsZero
		}

		log.Printf("処理対象パス: %s (全体タイムアウト: %s)\n", searchPath, overallTimeout)

		// 1. 依存性の初期化
		// cmd/root.go で初期化された共有クライアントを使用。
		// ユーザー指定の --timeout、--max-retries、--base-url、--legacy-status が反映されます。
		client := GetGlobalClient()
		if client == nil {
			return fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
		}

		f, err := finder.NewFinder(client, finder.WithSelector(searchSelector))
		if err != nil {
			return fmt.Errorf("Finderの初期化エラー: %w", err)
		}

		// 2. メインロジックの実行
		courses, err := runSearchPipeline(searchPath, f, overallTimeout)
		if err != nil {
			return fmt.Errorf("検索パイプラインの実行エラー (パス: %s): %w", searchPath, err)
		}

		// 3. 結果の出力
		resolved, err := client.Resolve(searchPath)
		if err != nil {
			return err
		}

		if outputJSON {
			result := types.SearchResult{
				URL:      resolved,
				Selector: f.Selector(),
				Courses:  courses,
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				return fmt.Errorf("JSON出力エラー: %w", err)
			}
			return nil
		}

		fmt.Printf("--- コース一覧 (%s) ---\n", resolved)
		for i, name := range courses {
			// --normalize 指定時は表示用に空白を正規化する（抽出結果そのものは変換しない）
			if normalizeNames {
				name = textUtils.NormalizeText(name)
			}
			fmt.Printf("[%d] %s\n", i+1, name)
		}
		fmt.Println("-----------------------")
		fmt.Printf("合計: %d 件\n", len(courses))

		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchPath, "path", "p", DefaultSearchPath,
		"検索対象のカタログページのパスまたはURL（相対パスはベースURLに対して解決）")
	searchCmd.Flags().StringVarP(&searchSelector, "selector", "s", finder.DefaultCourseSelector,
		"コース名要素を特定するCSSセレクター")
	searchCmd.Flags().BoolVar(&outputJSON, "json", false, "結果をJSONで出力")
	searchCmd.Flags().BoolVar(&normalizeNames, "normalize", false, "表示用にコース名の空白を正規化")
}
