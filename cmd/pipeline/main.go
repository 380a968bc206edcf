package main

import (
	"os"

	"github.com/romariotrain/clip-pipeline/internal/app"
)

func main() {
	os.Exit(app.Run("pipeline", run))
}
