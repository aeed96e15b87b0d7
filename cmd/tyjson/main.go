package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ttdf/tyjson"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "sign":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: tyjson sign <cid>")
			os.Exit(1)
		}
		if err := runSign(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("tyjson %s (framework %s)\n", version, tyjson.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	app := tyjson.New(tyjson.LoadConfig())
	defer app.Close()
	return app.Start()
}

// runSign prints a signed AI summary URL for server-side callers.
func runSign(arg string) error {
	cid, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || cid <= 0 {
		return fmt.Errorf("invalid cid %q", arg)
	}
	cfg := tyjson.LoadConfig()
	if cfg.SiteSecret == "" {
		return fmt.Errorf("SITE_SECRET is not set")
	}
	app := tyjson.New(cfg)
	ts := time.Now().Unix()
	q := url.Values{}
	q.Set("cid", arg)
	q.Set("trigger", "async")
	q.Set("time", strconv.FormatInt(ts, 10))
	q.Set("sign", tyjson.RequestSignature(cid, ts, cfg.SiteSecret))
	fmt.Printf("%s%s/ai-summary?%s\n", app.Config.SiteURL, app.Config.BasePath, q.Encode())
	return nil
}

func printUsage() {
	fmt.Println(`tyjson - REST API server for TTDF themes

Usage:
  tyjson <command> [arguments]

Commands:
  serve         Start the API server (configured from the environment and .env)
  sign <cid>    Print a signed AI summary URL valid for five minutes
  version       Print the tyjson version
  help          Show this help message

Examples:
  ADMIN_PASSWORD=secret SESSION_SECRET=changeme tyjson serve
  SITE_SECRET=s3cret tyjson sign 42`)
}
