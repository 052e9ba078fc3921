package main

import "github.com/fliphawk/backend/internal/delivery/cli"

func main() {
	cli.Execute()
}
