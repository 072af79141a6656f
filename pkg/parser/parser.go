package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Fetcher は、Parserが依存すべきインターフェースです。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Parser は、フィードの取得とパースを管理します。
type Parser struct {
	client Fetcher // インターフェースに依存
}

// NewParser は、新しいParserのインスタンスを生成します。
// *httpkit.Client などの Fetcher 実装をそのまま渡せます。
func NewParser(client Fetcher) (*Parser, error) {
	if client == nil {
		return nil, fmt.Errorf("parser.NewParser: Fetcher cannot be nil")
	}
	return &Parser{client: client}, nil
}

// FetchAndParse は指定されたURLからフィードを取得し、パースします。
// context.Context は Go の慣習に従い第一引数に配置しています。
func (p *Parser) FetchAndParse(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := p.client.FetchBytes(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得失敗 (URL: %s): %w", feedURL, err)
	}

	fp := gofeed.NewParser()
	feed, parseErr := fp.Parse(bytes.NewReader(body))
	if parseErr != nil {
		return nil, fmt.Errorf("RSSフィードのパース失敗 (URL: %s): %w", feedURL, parseErr)
	}
	return feed, nil
}
