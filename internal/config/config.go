package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	PGSQL      PGSQL      `yaml:"pgsql" env-required:"true"`
	Redis      Redis      `yaml:"redis"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
	Email      Email      `yaml:"email" env-required:"true"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"super_secret_key"`
	SiteOrigin string     `yaml:"site_origin" env:"SITE_ORIGIN" env-default:"http://localhost:3000"`
	AdminEmail string     `yaml:"admin_email" env:"ADMIN_EMAIL" env-required:"true"`
}

type HTTPServer struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
}

type PGSQL struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-default:"postgres"`
	Password string `yaml:"password" env-default:"password"`
	DBName   string `yaml:"dbname" env-default:"portfolio_db"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

// Redis is optional. An empty address disables the shared rate limiter and
// the count cache; the service falls back to in-process equivalents.
type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type Email struct {
	APIKey  string `yaml:"api_key" env:"EMAIL_API_KEY" env-required:"true"`
	BaseURL string `yaml:"base_url" env-default:"https://api.resend.com"`
	From    string `yaml:"from" env-default:"Portfolio <noreply@portfolio.dev>"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
