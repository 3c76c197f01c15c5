package main

import "github.com/zainulabidin776/apodflow/internal/cli"

func main() {
	cli.Execute()
}
