// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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

	log.Println("starting line-follower web server (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("Note: telemetry requires the vehicle to be running (sudo ./vehicle)")

	if err := app.RunWeb(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
