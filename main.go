package main

import "github.com/zapista-bot/zapista-core/cmd"

func main() {
	cmd.Execute()
}
