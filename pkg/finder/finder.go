package finder

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ----------------------------------------------------------------------
// 定数定義 (解析関連のみ)
// ----------------------------------------------------------------------

const (
	// DefaultCourseSelector は、コースカードのコース名要素を特定するCSSセレクターです。
	DefaultCourseSelector = "span.card-curso__nome"
)

// Finder は、Fetcher を使ってコース名の抽出プロセスを管理します。
// 呼び出しごとに新しいドキュメントを構築するため、複数ゴルーチンから同時に利用できます。
type Finder struct {
	fetcher  Fetcher
	selector string
}

// Option はFinderの設定を行うための関数型です。
type Option func(*Finder)

// WithSelector は抽出対象のCSSセレクターを設定します。
// 空文字列を指定した場合、デフォルトのセレクターが維持されます。
func WithSelector(selector string) Option {
	return func(f *Finder) {
		if selector != "" {
			f.selector = selector
		}
	}
}

// NewFinder は、新しいFinderのインスタンスを生成します。
func NewFinder(fetcher Fetcher, options ...Option) (*Finder, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("finder.NewFinder: Fetcher cannot be nil")
	}

	f := &Finder{
		fetcher:  fetcher,
		selector: DefaultCourseSelector,
	}

	for _, opt := range options {
		opt(f)
	}

	return f, nil
}

// Selector は現在設定されているCSSセレクターを返します。
func (f *Finder) Selector() string {
	return f.selector
}

// ----------------------------------------------------------------------
// メイン関数 (メソッド化)
// ----------------------------------------------------------------------

// Search は指定されたURLからHTMLを取得し、セレクターに一致した各要素の
// テキストコンテンツをドキュメント順に返します。
// 一致する要素がゼロ件の場合、空のスライスを返します（エラーではありません）。
func (f *Finder) Search(ctx context.Context, url string) ([]string, error) {
	// 1. Fetcherから生のバイト配列を取得 (通信の責務)
	htmlBytes, err := f.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	// 2. Finder内でgoquery.Documentに変換 (解析の責務)
	// ドキュメントは呼び出しごとに新規構築し、呼び出し間で共有しません。
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	return f.extractCourseNames(doc), nil
}

// extractCourseNames はgoquery.Documentからセレクターに一致した要素の
// テキストをドキュメント順に収集します。
func (f *Finder) extractCourseNames(doc *goquery.Document) []string {
	selection := doc.Find(f.selector)
	names := make([]string, 0, selection.Length())

	// goqueryのEachはDOMの深さ優先探索順序（＝ドキュメント順）で要素を走査します。
	// 重複排除・整列・空白正規化は行いません。
	selection.Each(func(i int, s *goquery.Selection) {
		names = append(names, nodeText(s))
	})

	return names
}

// nodeText は一致した要素の子孫テキストノードをドキュメント順に連結します。
// マークアップタグのみを取り除き、テキストはパーサーが生成したとおりに保持します。
func nodeText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		appendTextNodes(&sb, n)
	}
	return sb.String()
}

// appendTextNodes はノード配下を深さ優先で走査し、テキストノードを連結します。
func appendTextNodes(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		appendTextNodes(sb, child)
	}
}
