package main

import (
	"context"
	"flag"
	"log"

	"github.com/wuyiadepoju/paywall/internal/app/bootstrap"
)

func main() {
	var (
		configPath = flag.String("config", "configs/default.yaml", "YAML config file")
		envFile    = flag.String("env-file", ".env", "dotenv file, ignored when missing")
	)
	flag.Parse()

	r, err := bootstrap.NewRuntime(context.Background(), *configPath, *envFile)
	if err != nil {
		log.Fatalf("bootstrap runtime: %v", err)
	}
	if err := r.RunAPI(context.Background()); err != nil {
		log.Fatalf("run api: %v", err)
	}
}
