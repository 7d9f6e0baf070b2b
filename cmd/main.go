package main

import (
	"os"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
