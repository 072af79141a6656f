package types

// SearchResult は、特定のURLに対するコース名検索の結果を保持します。
// これは、Finderの出力、CLIの出力整形の入力として利用されます。
type SearchResult struct {
	URL      string   `json:"url"`      // 処理対象のURL（ベースURL解決後）
	Selector string   `json:"selector"` // 抽出に使用したCSSセレクター
	Courses  []string `json:"courses"`  // 抽出されたコース名（ドキュメント順）
}
