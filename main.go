package main

import (
	"os"

	"github.com/countersuite/countersuite/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
