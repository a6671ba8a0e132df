package main

import "github.com/cryptoedge/bot/cmd"

func main() {
	cmd.Execute()
}
