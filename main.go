package main

import (
	"github.com/shouni/go-course-finder/cmd"
)

// main 関数は、cmd.Execute を実行します。
// エラーハンドリングと終了コードの処理は clibase 側で一元化されています。
func main() {
	cmd.Execute()
}
