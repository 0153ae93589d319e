// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hamed0406/alertledger/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fail(err.Error())
	}

	if len(cfg.AdminAPIKeys) == 0 {
		fail("ADMIN_API_KEYS is empty (alert creation would be open to anyone).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		warn("PUBLIC_API_KEYS is empty; only admin keys can read and acknowledge.")
	}
	for name, v := range map[string]string{"ADMIN_API_KEYS": os.Getenv("ADMIN_API_KEYS"), "PUBLIC_API_KEYS": os.Getenv("PUBLIC_API_KEYS")} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	ok("API_ADDR=" + cfg.Addr)
	ok("STORE_DRIVER=" + cfg.StoreDriver)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		warn("memory store: alerts and the task log are lost on restart.")
	case config.DriverSQLite:
		ok("SQLITE_PATH=" + cfg.SQLitePath)
	case config.DriverPostgres:
		if os.Getenv("DATABASE_URL") == "" {
			warn("DATABASE_URL empty; falling back to the local development database.")
		} else {
			ok("DATABASE_URL present")
		}
	}

	ok("CACHE_DIR=" + cfg.CacheDir)
	if cfg.RedisURL == "" {
		warn("REDIS_URL empty; alert reads go straight to the store.")
	}
	if len(cfg.KafkaBrokers) == 0 && cfg.SlackWebhook == "" {
		warn("no KAFKA_BROKERS or SLACK_WEBHOOK_URL; acknowledgements are only logged to the store.")
	}

	ok("preflight passed")
}
