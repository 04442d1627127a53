package main

import "github.com/versemark/versemark/cmd"

func main() {
	cmd.Execute()
}
