package main

import (
	"log"

	"github.com/zapdesk/signup-harness/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
