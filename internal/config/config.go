package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Notify   NotifyConfig
	Shop     ShopConfig
	PayQRURL string
	Gemini   string
}

type ServerConfig struct {
	Port              string
	Env               string
	BaseURL           string
	CORSOrigins       []string
	JWTSecret         string
	JWTExpiration     time.Duration
	AllowRegistration bool
}

type DatabaseConfig struct {
	Driver string // mysql | sqlite
	DSN    string
	Host   string
	Port   string
	User   string
	Pass   string
	Name   string
}

type NotifyConfig struct {
	RedisAddr      string
	RabbitURL      string
	RabbitExchange string
}

type ShopConfig struct {
	Location       *time.Location
	DayStartHour   int
	CloseCheckSpec string
	TicketWindow   time.Duration
	DineInTables   int
	TakeawayTables int
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "production")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("RABBITMQ_EXCHANGE", "pos.events")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("DAY_START_HOUR", 12)
	v.SetDefault("CLOSE_CHECK_SPEC", "@every 1m")
	v.SetDefault("TICKET_WINDOW", "2m")
	v.SetDefault("DINE_IN_TABLES", 0)
	v.SetDefault("TAKEAWAY_TABLES", 0)
	_ = v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		log.Printf("Warning: unknown TIMEZONE %q, using Local", v.GetString("TIMEZONE"))
		loc = time.Local
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              v.GetString("SERVER_PORT"),
			Env:               v.GetString("SERVER_ENV"),
			BaseURL:           v.GetString("BASE_URL"),
			CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
			JWTSecret:         v.GetString("JWT_SECRET"),
			JWTExpiration:     time.Duration(v.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour,
			AllowRegistration: v.GetBool("ALLOW_REGISTRATION"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("DB_DRIVER"),
			DSN:    v.GetString("DB_DSN"),
			Host:   v.GetString("DB_HOST"),
			Port:   v.GetString("DB_PORT"),
			User:   v.GetString("DB_USER"),
			Pass:   v.GetString("DB_PASSWORD"),
			Name:   v.GetString("DB_NAME"),
		},
		Notify: NotifyConfig{
			RedisAddr:      v.GetString("REDIS_ADDR"),
			RabbitURL:      v.GetString("RABBITMQ_URL"),
			RabbitExchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Shop: ShopConfig{
			Location:       loc,
			DayStartHour:   v.GetInt("DAY_START_HOUR"),
			CloseCheckSpec: v.GetString("CLOSE_CHECK_SPEC"),
			TicketWindow:   v.GetDuration("TICKET_WINDOW"),
			DineInTables:   v.GetInt("DINE_IN_TABLES"),
			TakeawayTables: v.GetInt("TAKEAWAY_TABLES"),
		},
		PayQRURL: v.GetString("PAYQR_URL"),
		Gemini:   v.GetString("GEMINI_API_KEY"),
	}

	if cfg.Server.JWTSecret == "" {
		log.Println("⚠️ WARNING: JWT_SECRET is not set. Tokens cannot be issued.")
	}

	log.Printf("Configuration loaded: env=%s port=%s db=%s tz=%s", cfg.Server.Env, cfg.Server.Port, cfg.Database.Driver, loc)
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
