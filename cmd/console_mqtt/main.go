package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/line_follower/internal/app"
	"github.com/relabs-tech/line_follower/internal/config"
)

func main() {
	configPath := flag.String("config", "./vehicle_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting line-follower console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
