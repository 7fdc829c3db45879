package main

import "github.com/vietddude/callguard/internal/cli"

func main() {
	cli.Execute()
}
