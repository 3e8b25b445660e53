package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Odoo      OdooConfig
	Scanner   ScannerConfig
	Sounds    SoundConfig
	Bridge    BridgeConfig
	Heartbeat HeartbeatConfig
}

// OdooConfig contains connection credentials for the Odoo JSON-RPC endpoint.
type OdooConfig struct {
	URL      string
	Database string
	Username string
	Password string
}

// ScannerConfig holds the control tokens and routing tables driving scan
// interpretation.
type ScannerConfig struct {
	AddToken    string
	RemoveToken string
	MultiToken  string
	UndoToken   string
	ExitWords   []string

	// ProductionTriggers maps product barcodes to the bill-of-materials id
	// used when an Add scan must start a manufacturing order instead of a
	// plain receipt.
	ProductionTriggers map[string]int

	FallbackSupplierLocationID int
	FallbackCustomerLocationID int
	FallbackPickingTypeID      int

	HistoryCapacity int
}

// SoundConfig maps notification tags to local audio asset paths.
type SoundConfig struct {
	Paths map[string]string
}

// BridgeConfig holds options for the optional HTTP scan bridge. An empty port
// disables the bridge entirely.
type BridgeConfig struct {
	Port string
}

// HeartbeatConfig holds the backend connectivity check schedule.
type HeartbeatConfig struct {
	CronSchedule string
}

var soundTags = []string{
	"add_mode", "remove_mode", "item_removed",
	"single_mode", "multi_mode",
	"added_one", "added_many", "removed_one", "removed_many",
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable
		// when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	triggers, err := parseProductionTriggers(getenvWithDefault("PRODUCTION_TRIGGERS", "202500000076:1"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Odoo: OdooConfig{
			URL:      os.Getenv("ODOO_URL"),
			Database: os.Getenv("ODOO_DATABASE"),
			Username: os.Getenv("ODOO_USERNAME"),
			Password: os.Getenv("ODOO_PASSWORD"),
		},
		Scanner: ScannerConfig{
			AddToken:                   getenvWithDefault("SCAN_ADD_TOKEN", "dodajetowar"),
			RemoveToken:                getenvWithDefault("SCAN_REMOVE_TOKEN", "zdejmujetowar"),
			MultiToken:                 getenvWithDefault("SCAN_MULTI_TOKEN", "wiele"),
			UndoToken:                  getenvWithDefault("SCAN_UNDO_TOKEN", "cofnij"),
			ExitWords:                  []string{"exit", "quit", "wyjście"},
			ProductionTriggers:         triggers,
			FallbackSupplierLocationID: getenvIntWithDefault("FALLBACK_SUPPLIER_LOCATION_ID", 8),
			FallbackCustomerLocationID: getenvIntWithDefault("FALLBACK_CUSTOMER_LOCATION_ID", 9),
			FallbackPickingTypeID:      getenvIntWithDefault("FALLBACK_PICKING_TYPE_ID", 1),
			HistoryCapacity:            getenvIntWithDefault("HISTORY_CAPACITY", 10),
		},
		Sounds: SoundConfig{
			Paths: loadSoundPaths(),
		},
		Bridge: BridgeConfig{
			Port: os.Getenv("BRIDGE_PORT"),
		},
		Heartbeat: HeartbeatConfig{
			CronSchedule: getenvWithDefault("HEARTBEAT_CRON_SCHEDULE", "*/5 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.Odoo.URL == "":
		return errors.New("ODOO_URL must be provided")
	case c.Odoo.Database == "":
		return errors.New("ODOO_DATABASE must be provided")
	case c.Odoo.Username == "":
		return errors.New("ODOO_USERNAME must be provided")
	case c.Odoo.Password == "":
		return errors.New("ODOO_PASSWORD must be provided")
	}

	switch {
	case c.Scanner.AddToken == "":
		return errors.New("SCAN_ADD_TOKEN must not be empty")
	case c.Scanner.RemoveToken == "":
		return errors.New("SCAN_REMOVE_TOKEN must not be empty")
	case c.Scanner.MultiToken == "":
		return errors.New("SCAN_MULTI_TOKEN must not be empty")
	case c.Scanner.UndoToken == "":
		return errors.New("SCAN_UNDO_TOKEN must not be empty")
	}

	if c.Scanner.HistoryCapacity <= 0 {
		return errors.New("HISTORY_CAPACITY must be positive")
	}

	if c.Heartbeat.CronSchedule == "" {
		return errors.New("HEARTBEAT_CRON_SCHEDULE must be provided")
	}

	return nil
}

// parseProductionTriggers parses a "barcode:bomID,barcode:bomID" list.
func parseProductionTriggers(raw string) (map[string]int, error) {
	triggers := make(map[string]int)
	if strings.TrimSpace(raw) == "" {
		return triggers, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		barcode, bom, found := strings.Cut(pair, ":")
		if !found {
			return nil, fmt.Errorf("invalid PRODUCTION_TRIGGERS entry %q", pair)
		}

		bomID, err := strconv.Atoi(strings.TrimSpace(bom))
		if err != nil {
			return nil, fmt.Errorf("invalid BOM id in PRODUCTION_TRIGGERS entry %q: %w", pair, err)
		}

		triggers[strings.TrimSpace(barcode)] = bomID
	}

	return triggers, nil
}

// loadSoundPaths reads SOUND_<TAG> variables (e.g. SOUND_ADD_MODE) for every
// known notification tag. Unset tags simply have no audio asset.
func loadSoundPaths() map[string]string {
	paths := make(map[string]string)
	for _, tag := range soundTags {
		envKey := "SOUND_" + strings.ToUpper(tag)
		if value := os.Getenv(envKey); value != "" {
			paths[tag] = value
		}
	}
	return paths
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntWithDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
