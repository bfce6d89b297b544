// cmd/ledger/main.go

// 帳本服務入口：所有功能（HTTP 服務與離線指令）都在 internal/cli 的 cobra 指令樹中。

package main

import (
	"os"

	"ledger/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
