// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/line_follower/internal/app"
	"github.com/relabs-tech/line_follower/internal/motion"
)

func main() {
	mission := flag.Int("mission", motion.MissionCircuit, "mission to run (1=straight, 2=circuit)")
	cruise := flag.Float64("speed", motion.DefaultCruiseSpeed, "cruise speed in [-1, 1]")
	flag.Parse()

	log.Println("starting line-follower bench (mock sensors, no MQTT)")

	if _, err := app.RunBench(os.Stdout, *mission, *cruise); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
