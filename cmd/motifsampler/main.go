// cmd/motifsampler/main.go
package main

import (
	"motifsampler/internal/app"
	"motifsampler/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
