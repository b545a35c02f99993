package main

import (
	"flag"
	"log"

	"BakeryStore/config"
	"BakeryStore/internal/app"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply postgres migrations and exit")
	seed := flag.String("seed", "", "seed file, overrides SEED_FILE")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}
	if *seed != "" {
		cfg.SeedFile = *seed
	}

	if *migrate {
		if err := app.Migrate(cfg); err != nil {
			log.Fatalf("Migration error: %s", err)
		}
		return
	}
	app.Run(cfg)
}
