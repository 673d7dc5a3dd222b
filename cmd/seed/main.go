package main

import (
	"flag"
	"log"

	"github.com/fleetops/geoguard/internal/config"
	"github.com/fleetops/geoguard/internal/database"
	"github.com/fleetops/geoguard/seeds"
)

func main() {
	clear := flag.Bool("clear", false, "clear all seed data before seeding")
	help := flag.Bool("help", false, "show help message")
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	log.Println("loading configuration...")
	cfg := config.Load()

	log.Println("connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if *clear {
		if err := seeds.ClearAll(db); err != nil {
			log.Fatalf("failed to clear data: %v", err)
		}
	}

	if err := seeds.RunAll(db); err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}

	log.Println("seeding complete")
}

func showHelp() {
	log.Println(`geoguard seed — populate the database with sample fleet data

Usage:
  seed [flags]

Flags:
  -clear   delete all existing seed data before seeding
  -help    show this message

Seeds two office geofences (one circular, one polygon), eight vehicles,
one driver per vehicle, and one trip per vehicle with pickup points;
in-progress trips also get a short location-log history.`)
}
