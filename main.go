package main

import (
	cmdcalculate "cloudspend/command/calculate"
	cmdimport "cloudspend/command/import"
	cmdweb "cloudspend/command/web"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Cloud cost dashboard backend.
// Usage:
//   cloudspend import [-aws] [-gcp] [-months 12]
//   cloudspend calculate
//   cloudspend web [-addr :8080] [-data ./data] [-ui ./ui/dist]
// Notes:
// - Normalizes AWS and GCP billing exports into one canonical record set,
//   serves it (plus filtered/aggregated views) as JSON for the SPA dashboard,
//   and can batch-write the same derived views as CSV reports.
// - Set CONFIG_PATH to point to a YAML config file (default ./config.yml).

func main() {
	args := os.Args

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize slog logger (text to stderr)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		switch sub {
		case "import":
			if err := cmdimport.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "calculate":
			if err := cmdcalculate.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "web":
			if err := cmdweb.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: cloudspend import [-aws] [-gcp] [-months 12] | calculate | web [-addr :8080] [-data ./data]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}
