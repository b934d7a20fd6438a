package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/avelichko/shelfdrive/internal/server"
	"github.com/avelichko/shelfdrive/internal/server/config"
)

func main() {

	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
