package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultMongoURI      = "mongodb://localhost:27017/windowcalculator"
	DefaultPort          = "3000"
	defaultSessionSecret = "window-calculator-dev-secret"
)

// Config regroupe tout ce que le serveur lit dans l'environnement.
type Config struct {
	Env  string
	Port string

	MongoURI      string
	RedisHost     string
	RedisPassword string

	SessionSecret string
	PublicDir     string
	LogDir        string
	PricingFile   string
	BaseURL       string
	CORSOrigins   []string

	RateLimitRPS   int
	RateLimitBurst int
}

// Load charge le fichier .env s'il existe puis lit la configuration.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ .env file loaded")
	}
	return FromEnv()
}

// FromEnv lit la configuration sans toucher au fichier .env.
func FromEnv() *Config {
	cfg := &Config{
		Env:            getEnv("NODE_ENV", ""),
		Port:           getEnv("PORT", DefaultPort),
		MongoURI:       getEnv("MONGODB_URI", DefaultMongoURI),
		RedisHost:      os.Getenv("REDIS_HOST"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		PublicDir:      getEnv("PUBLIC_DIR", "public"),
		LogDir:         getEnv("LOG_DIR", "logs"),
		PricingFile:    os.Getenv("PRICING_FILE"),
		BaseURL:        os.Getenv("BASE_URL"),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
	}

	// APP_ENV sert d'alias quand NODE_ENV n'est pas défini
	if cfg.Env == "" {
		cfg.Env = getEnv("APP_ENV", EnvDevelopment)
	}
	cfg.Normalize()
	return cfg
}

// Normalize complète les champs dérivés. À rappeler après un override de Port ou Env.
func (c *Config) Normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.SessionSecret == "" {
		if c.IsProduction() {
			log.Println("⚠️ SESSION_SECRET missing in production, falling back to the development secret")
		}
		c.SessionSecret = defaultSessionSecret
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:" + c.Port
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 5
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = c.RateLimitRPS * 2
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
