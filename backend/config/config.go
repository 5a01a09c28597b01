package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`

	ServerPort       string `yaml:"server_port"`
	CORSAllowOrigins string `yaml:"cors_allow_origins"`

	GraphDir         string `yaml:"graph_dir"`
	PlaceholderGraph string `yaml:"placeholder_graph"`

	// initial experimenter account, created at startup when the username is set
	ExperimenterUsername string `yaml:"experimenter_username"`
	ExperimenterEmail    string `yaml:"experimenter_email"`
	ExperimenterPassword string `yaml:"experimenter_password"`

	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json, text
	ToFile     bool   `yaml:"to_file"`
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxAge     int    `yaml:"max_age"`  // days
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Info("No .env file loaded, using environment variables")
	}

	cfg := &Config{
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "quizapp"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		JWTTTL:           getEnvDuration("JWT_TTL", 72*time.Hour),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		GraphDir:         getEnv("GRAPH_DIR", "static/graphs"),
		PlaceholderGraph: getEnv("PLACEHOLDER_GRAPH", "placeholder.png"),

		ExperimenterUsername: getEnv("EXPERIMENTER_USERNAME", ""),
		ExperimenterEmail:    getEnv("EXPERIMENTER_EMAIL", ""),
		ExperimenterPassword: getEnv("EXPERIMENTER_PASSWORD", ""),

		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			ToFile:     getEnvBool("LOG_TO_FILE", false),
			Filename:   getEnv("LOG_FILENAME", "logs/quizapp.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", false),
		},
	}

	if path := os.Getenv("CONFIG_FILE_PATH"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyFile overrides cfg with every non-empty value of the YAML file at path.
func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overrideString(&cfg.DBDriver, fileCfg.DBDriver)
	overrideString(&cfg.DBHost, fileCfg.DBHost)
	overrideString(&cfg.DBPort, fileCfg.DBPort)
	overrideString(&cfg.DBUser, fileCfg.DBUser)
	overrideString(&cfg.DBPassword, fileCfg.DBPassword)
	overrideString(&cfg.DBName, fileCfg.DBName)
	overrideString(&cfg.DBSSLMode, fileCfg.DBSSLMode)
	overrideString(&cfg.JWTSecret, fileCfg.JWTSecret)
	overrideString(&cfg.ServerPort, fileCfg.ServerPort)
	overrideString(&cfg.CORSAllowOrigins, fileCfg.CORSAllowOrigins)
	overrideString(&cfg.GraphDir, fileCfg.GraphDir)
	overrideString(&cfg.PlaceholderGraph, fileCfg.PlaceholderGraph)
	overrideString(&cfg.ExperimenterUsername, fileCfg.ExperimenterUsername)
	overrideString(&cfg.ExperimenterEmail, fileCfg.ExperimenterEmail)
	overrideString(&cfg.ExperimenterPassword, fileCfg.ExperimenterPassword)
	if fileCfg.JWTTTL > 0 {
		cfg.JWTTTL = fileCfg.JWTTTL
	}

	overrideString(&cfg.Log.Level, fileCfg.Log.Level)
	overrideString(&cfg.Log.Format, fileCfg.Log.Format)
	overrideString(&cfg.Log.Filename, fileCfg.Log.Filename)
	if fileCfg.Log.ToFile {
		cfg.Log.ToFile = true
	}
	if fileCfg.Log.Compress {
		cfg.Log.Compress = true
	}
	if fileCfg.Log.MaxSize > 0 {
		cfg.Log.MaxSize = fileCfg.Log.MaxSize
	}
	if fileCfg.Log.MaxAge > 0 {
		cfg.Log.MaxAge = fileCfg.Log.MaxAge
	}
	if fileCfg.Log.MaxBackups > 0 {
		cfg.Log.MaxBackups = fileCfg.Log.MaxBackups
	}
	return nil
}

// DSN renders the connection string for the configured driver.
func (cfg *Config) DSN() string {
	if cfg.DBDriver == "sqlite" {
		return cfg.DBName
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
