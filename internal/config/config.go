package config

import (
	"log"
	"os"
)

type Config struct {
	Port      string
	DBDSN     string
	MediaDir  string
	LogFile   string
	JWTSecret string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "peminjaman.db"
	} // sqlite file in project root
	media := os.Getenv("MEDIA_DIR")
	if media == "" {
		media = "./media"
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./peminjaman.log"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Development fallback only; set JWT_SECRET in any real deployment.
		secret = "dev-insecure-secret"
		log.Printf("[config] JWT_SECRET not set, using development default")
	}

	cfg := Config{Port: port, DBDSN: dsn, MediaDir: media, LogFile: logFile, JWTSecret: secret}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s", cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile)
	return cfg
}
