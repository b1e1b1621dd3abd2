// Command capture-demo runs the full capture -> scale -> convert -> encode
// pipeline plus discovery and the status API, grounded on the teacher's
// examples/capture/main.go harness shape.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lmshao/remote-desk/internal/app"
)

func main() {
	configPath := flag.String("config", "remote-desk.yaml", "path to YAML config file")
	flag.Parse()

	a, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "capture-demo:", err)
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "capture-demo:", err)
		os.Exit(1)
	}
}
