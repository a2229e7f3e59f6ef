package main

import (
	"os"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
