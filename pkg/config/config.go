package config

import "os"

// Config holds server configuration.
type Config struct {
	Port          string
	LogLevel      string
	DatabaseURL   string
	DBDriver      string
	OTLPEndpoint  string
	CapabilityKey string
	ProfilesDir   string
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		switch driver {
		case "postgres":
			dbURL = "postgres://dropforge@localhost:5432/dropforge?sslmode=disable"
		default:
			dbURL = "file:dropforge.db?_pragma=journal_mode(WAL)"
		}
	}

	profilesDir := os.Getenv("PROFILES_DIR")
	if profilesDir == "" {
		profilesDir = "profiles"
	}

	return &Config{
		Port:          port,
		LogLevel:      logLevel,
		DatabaseURL:   dbURL,
		DBDriver:      driver,
		OTLPEndpoint:  os.Getenv("OTLP_ENDPOINT"),
		CapabilityKey: os.Getenv("CAPABILITY_SIGNING_KEY"),
		ProfilesDir:   profilesDir,
	}
}
