package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"nf_gateway/internal/auth"
	"nf_gateway/internal/config"
	"nf_gateway/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "configuration document; required with -owner")
	owner := flag.String("owner", "", "issue an ordinary key for this owner into the configured Redis key store")
	flag.Parse()

	_ = godotenv.Load()

	if *owner == "" {
		key, err := auth.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("NF Gateway - administrative key")
		fmt.Println()
		fmt.Println(key)
		fmt.Println()
		fmt.Println("Set it as auth.admin_key in the configuration or as ADMIN_API_KEY in the environment.")
		fmt.Println("It is shown only once; store it securely.")
		return
	}

	if err := issue(*configPath, *owner); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

// issue creates an ordinary key for owner directly in the Redis key store,
// for bootstrapping clients before the server is reachable.
func issue(configPath, owner string) error {
	if configPath == "" {
		return fmt.Errorf("-config is required with -owner")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Auth.Store != config.KeyStoreRedis {
		return fmt.Errorf("auth.store is %q; keys issued offline only persist in the redis store", cfg.Auth.Store)
	}

	client, err := storage.NewRedisClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	guard := auth.NewGuard(cfg.Auth.AdminKey, auth.NewRedisKeyStore(client, cfg.Auth.RedisKey))
	key, rec, err := guard.IssueKey(context.Background(), &auth.Principal{Privilege: auth.Administrative}, owner)
	if err != nil {
		return err
	}

	fmt.Printf("Issued key %s for %q:\n\n%s\n", rec.ID, rec.Owner, key)
	return nil
}
