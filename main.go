package main

import "github.com/relloyd/bronze/cmd"

func main() {
	cmd.Execute()
}
