package main

import "hedera-defi/internal/cli"

func main() {
	cli.Execute()
}
