package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/meshmon/meshmon/pkg/api"
	"github.com/meshmon/meshmon/pkg/config"
	"github.com/meshmon/meshmon/pkg/core"
	"github.com/meshmon/meshmon/pkg/db"
	"github.com/meshmon/meshmon/pkg/gossip"
	"github.com/meshmon/meshmon/pkg/lifecycle"
)

// cmd/meshmon/main.go

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	fetcher := gossip.NewClient(cfg.RelayEndpoints)
	server := core.NewServer(cfg, database, fetcher, clockwork.NewRealClock())

	apiServer := api.NewAPIServer(server)
	server.SetBroadcaster(apiServer.Hub())

	if err := lifecycle.RunServer(context.Background(), &lifecycle.ServerOptions{
		ListenAddr:  cfg.ListenAddr,
		ServiceName: "meshmon",
		Service:     server,
		APIServer:   apiServer,
	}); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
