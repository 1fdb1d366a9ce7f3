package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/credigate/credigate/internal/model"
	"github.com/credigate/credigate/internal/repository"
)

// grant-credits adds credits to an account out-of-band, bypassing the
// recharge-unit arithmetic. For operator use: onboarding grants, refunds,
// support adjustments.

type output struct {
	Identity  string `json:"identity"`
	KeyPrefix string `json:"key_prefix"`
	Granted   int64  `json:"granted"`
	Credits   int64  `json:"credits"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		apiKey      = flag.String("api-key", "", "API key of the account to credit")
		identity    = flag.String("identity", "", "Identity of the account to credit (alternative to -api-key)")
		credits     = flag.Int64("credits", 0, "Credits to grant (positive integer)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *credits <= 0 {
		fmt.Fprintln(os.Stderr, "-credits must be a positive integer")
		os.Exit(1)
	}
	if (*apiKey == "") == (*identity == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -api-key or -identity is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL, 5*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	key := *apiKey
	if key == "" {
		acct, err := repo.AccountByIdentity(ctx, strings.TrimSpace(*identity))
		if err != nil {
			fmt.Fprintln(os.Stderr, "lookup identity:", err)
			os.Exit(1)
		}
		key = acct.APIKey
	}

	newBalance, err := repo.Credit(ctx, key, *credits)
	if err != nil {
		fmt.Fprintln(os.Stderr, "grant credits:", err)
		os.Exit(1)
	}

	acct, err := repo.AccountByKey(ctx, key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read account:", err)
		os.Exit(1)
	}

	out := output{
		Identity:  acct.Identity,
		KeyPrefix: model.MaskKey(key),
		Granted:   *credits,
		Credits:   newBalance,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("granted %d credits to %s (%s), balance now %d\n",
			out.Granted, out.Identity, out.KeyPrefix, out.Credits)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
