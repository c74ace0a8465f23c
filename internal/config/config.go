package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // в минутах
	} `yaml:"jwt"`

	Frontend struct {
		URL string `yaml:"url"` // origin для CORS и websocket-рукопожатия
	} `yaml:"frontend"`

	Chat struct {
		MaxMessageLength    int `yaml:"max_message_length"`
		DefaultHistoryLimit int `yaml:"default_history_limit"`
		MaxHistoryLimit     int `yaml:"max_history_limit"`
	} `yaml:"chat"`
}

var AppConfig *Config

// LoadConfig загружает конфигурацию.
// Если задан DATABASE_URL - берем всё из переменных окружения (режим теста/деплоя),
// иначе читаем config/config.yaml.
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyChatDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Frontend.URL = os.Getenv("FRONTEND_URL")

	applyChatDefaults(&cfg)
	AppConfig = &cfg
}

func applyChatDefaults(cfg *Config) {
	if cfg.Chat.MaxMessageLength <= 0 {
		cfg.Chat.MaxMessageLength = 2000
	}
	if cfg.Chat.DefaultHistoryLimit <= 0 {
		cfg.Chat.DefaultHistoryLimit = 20
	}
	if cfg.Chat.MaxHistoryLimit <= 0 {
		cfg.Chat.MaxHistoryLimit = 100
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
