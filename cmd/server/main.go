package main

import (
	"github.com/alumni-informatik/events-server/cmd/server/cmd"
)

func main() {
	cmd.Execute()
}
