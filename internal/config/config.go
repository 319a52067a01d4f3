package config

import (
	"log"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	DBDSN    string `env:"DB_DSN" envDefault:"bazaar.db"`
	LogFile  string `env:"LOG_FILE" envDefault:"./bazaar.log"`
	Seed     bool   `env:"SEED_DEMO_DATA" envDefault:"true"`
	MediaDir string `env:"MEDIA_DIR" envDefault:"./web/media"`
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("[config] %v", err)
	}
	log.Printf("[config] ADDR=%s DB_DSN=%s LOG_FILE=%s SEED=%v", cfg.Addr, cfg.DBDSN, cfg.LogFile, cfg.Seed)
	return cfg
}
