package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/relaychat/relay/internal/models"
)

// DefaultHistoryLimit is the per-room message history capacity.
const DefaultHistoryLimit = 100

// Config holds all environment configuration values for the server.
type Config struct {
	// Port the HTTP server listens on
	Port string

	// Env selects development or production behavior (log format)
	Env string

	// CORSOrigins are the allowed browser origins
	CORSOrigins []string

	// Rooms is the fixed room catalog, in declaration order
	Rooms []models.RoomInfo

	// HistoryLimit caps each room's stored history (FIFO eviction)
	HistoryLimit int

	// MaxMessageSize is the largest accepted websocket frame; inline file
	// payloads ride inside frames, so this is the effective file ceiling
	MaxMessageSize int64
}

// Load reads configuration from environment variables, loading a .env
// file first if one is present. Missing values fall back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		CORSOrigins:    parseList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		Rooms:          parseRooms(getEnv("ROOMS", "general:General,random:Random,tech:Tech Talk")),
		HistoryLimit:   parseInt(getEnv("HISTORY_LIMIT", ""), DefaultHistoryLimit),
		MaxMessageSize: int64(parseInt(getEnv("MAX_MESSAGE_SIZE", ""), 512*1024)),
	}
	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// parseRooms parses a catalog spec of the form "id:Name,id:Name".
// Entries without a display name use the id as the name.
func parseRooms(spec string) []models.RoomInfo {
	var rooms []models.RoomInfo
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, found := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if !found || name == "" {
			name = id
		}
		if id != "" {
			rooms = append(rooms, models.RoomInfo{ID: id, Name: name})
		}
	}
	return rooms
}

func parseList(value string) []string {
	var out []string
	for _, entry := range strings.Split(value, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func parseInt(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
