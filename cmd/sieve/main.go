package main

import "github.com/hainenber/sieve/cmd"

func main() {
	cmd.Execute()
}
