// Command token mints an ops API token for an admin.
//
//	token -admin 123456789 -ttl 12h
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/suspectuso/otc-escrow/internal/config"
	"github.com/suspectuso/otc-escrow/internal/httpserver"
)

func main() {
	adminID := flag.Int64("admin", 0, "telegram id of the admin the token is issued to")
	ttl := flag.Duration("ttl", httpserver.TokenTTL, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if *adminID <= 0 {
		fmt.Fprintln(os.Stderr, "-admin is required")
		flag.Usage()
		os.Exit(2)
	}
	if cfg.APISecret == "" {
		fmt.Fprintln(os.Stderr, "API_SECRET is not set")
		os.Exit(1)
	}

	token, err := httpserver.IssueToken(cfg.APISecret, *adminID, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
