package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/migrations"
)

func main() {
	var (
		projectID  = flag.String("project", envOr("SPANNER_PROJECT", "test-project"), "Spanner project ID")
		instanceID = flag.String("instance", envOr("SPANNER_INSTANCE", "test-instance"), "Spanner instance ID")
		databaseID = flag.String("database", envOr("SPANNER_DATABASE", "paywall"), "Spanner database ID")
		timeout    = flag.Duration("timeout", 5*time.Minute, "Timeout for migration operations")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := migrations.RunMigrations(ctx, *projectID, *instanceID, *databaseID); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("All migrations applied successfully!")
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
