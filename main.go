package main

import "github.com/huanfeng/mia-cli/cmd"

func main() {
	cmd.Execute()
}
