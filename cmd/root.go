package cmd

import (
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-course-finder/internal/pipeline"
	"github.com/shouni/go-course-finder/pkg/httpclient"
)

// --- グローバル定数 ---

const (
	appName           = "course-finder" // アプリケーション名
	defaultTimeoutSec = 10              // 秒
	defaultMaxRetries = 0               // デフォルトのリトライ回数（単発GETが既定の挙動）

	// 全体処理のタイムアウト定数 (searchCmd, feedCmd で利用)
	DefaultOverallTimeout = 20 * time.Second
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec   int    // --timeout タイムアウト
	MaxRetries   int    // --max-retries リトライ回数
	BaseURL      string // --base-url カタログのベースURL
	LegacyStatus bool   // --legacy-status 非2xxでもボディを解析する従来挙動
}

var Flags AppFlags                    // アプリケーション固有フラグにアクセスするためのグローバル変数
var globalClient *httpclient.Client   // 共有HTTPクライアント

// ルートコマンドの定義 (clibaseがルートコマンドを生成するため、UseとLongのみ残す)
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "コースカタログページからコース名を抽出するツール",
	Long:  `コースカタログページの取得とコース名の抽出（search）、およびRSS/Atomフィードからのカタログページ発見（feed）を実行します。`,
}

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"HTTPリクエストのタイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxRetries,
		"max-retries",
		defaultMaxRetries,
		"HTTPリクエストのリトライ最大回数",
	)
	rootCmd.PersistentFlags().StringVar(
		&Flags.BaseURL,
		"base-url",
		pipeline.DefaultBaseURL,
		"相対パスの解決に使用するベースURL",
	)
	rootCmd.PersistentFlags().BoolVar(
		&Flags.LegacyStatus,
		"legacy-status",
		false,
		"非2xxステータスでもエラーとせずボディを解析する（従来挙動）",
	)
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {

	timeout := time.Duration(Flags.TimeoutSec) * time.Second

	// clibase.Flags の利用
	if clibase.Flags.Verbose {
		log.Printf("HTTPクライアントのタイムアウトを設定しました (Timeout: %s)。", timeout)
		log.Printf("HTTPクライアントのリトライ回数を設定しました (MaxRetries: %d)。", Flags.MaxRetries)
		log.Printf("ベースURLを設定しました (BaseURL: %s)。", Flags.BaseURL)
	}

	// 共有クライアントの初期化
	globalClient = httpclient.New(
		timeout,
		httpclient.WithMaxRetries(uint64(Flags.MaxRetries)),
		httpclient.WithBaseURL(Flags.BaseURL),
		httpclient.WithStatusCheck(!Flags.LegacyStatus),
	)

	return nil
}

// GetGlobalClient は、初期化された共有クライアントを返す関数 (DIの代わり)
func GetGlobalClient() *httpclient.Client {
	return globalClient
}

// --- エントリポイント ---

// Execute は、rootCmd を実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	// clibase.Execute を使用して、アプリケーションの初期化、フラグ設定、サブコマンドの登録を一括で行う
	clibase.Execute(
		appName,
		addAppPersistentFlags, // カスタムフラグの追加コールバック
		initAppPreRunE,        // カスタムPersistentPreRunEコールバック
		searchCmd,
		feedCmd,
	)
	// clibase.Execute() の中で os.Exit(1) が処理されるため、ここでは不要
}
