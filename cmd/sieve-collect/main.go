// sieve-collect runs a single collection cycle and exits. Intended for
// cron-driven collection or for seeding storage before first serve.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielsohn/sieve/internal/app"
	"github.com/danielsohn/sieve/internal/models"
)

func main() {
	configPath := flag.String("config", "", "path to sieve.toml (defaults to SIEVE_CONFIG, then binary dir)")
	force := flag.Bool("force", false, "collect even outside market hours")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall cycle deadline")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	outcome := a.Collector.Run(ctx, *force)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(outcome)

	if outcome.Status == models.RefreshError {
		os.Exit(1)
	}
}
