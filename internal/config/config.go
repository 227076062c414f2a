package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	SubscriptionsFile string
	BotToken          string
	AdminID           int64
	CardNumber        string
	CardName          string
	BaseURL           string
	AdminPassword     string
	AuthSecret        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:              os.Getenv("PORT"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SubscriptionsFile: os.Getenv("SUBSCRIPTIONS_FILE"),
		BotToken:          os.Getenv("BOT_TOKEN"),
		CardNumber:        os.Getenv("CARD_NUMBER"),
		CardName:          os.Getenv("CARD_NAME"),
		BaseURL:           os.Getenv("BASE_URL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AuthSecret:        os.Getenv("AUTH_SECRET"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SubscriptionsFile == "" {
		cfg.SubscriptionsFile = "subscriptions.json"
	}

	if raw := os.Getenv("ADMIN_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("Warning: invalid ADMIN_ID %q", raw)
		} else {
			cfg.AdminID = id
		}
	}

	return cfg
}
