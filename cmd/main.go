package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"CashbookRecon/internal/appmanager"
	"CashbookRecon/internal/config"
	"CashbookRecon/internal/reportstore"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// Load .env for local dev
	_ = godotenv.Load(envOr("ENV_FILE", config.DefaultEnvFile))

	store, closeStore, err := reportstore.Open(context.Background(),
		envOr("REPORT_STORE", config.DefaultStoreKind), reportstore.DBConfigFromEnv())
	if err != nil {
		log.Fatal("failed to open report store:", err)
	}
	defer closeStore()
	appmanager.SetStore(store)

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence(envOr("SERVICES_FILE", config.DefaultServicesFile))
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	manager.AutoRegisterServices(servicesCfg)

	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if err := manager.StopAll(); err != nil {
		log.Println("failed to stop:", err)
	}
}
