package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/plume-im/plume/internal/flagx"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr    string `json:"endpoint_addr"`
	PublicServerURL string `json:"public_server_url"`
	DatabaseDSN     string `json:"database_dsn"`
	SessionTTLHours int    `json:"session_ttl_hours"`
	UseMemoryStore  bool   `json:"use_memory_store"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config command-line flags. If neither flag is set, nothing is loaded.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.PublicServerURL = c.PublicServerURL
	config.DatabaseDSN = c.DatabaseDSN
	config.SessionTTL = time.Duration(c.SessionTTLHours) * time.Hour
	config.UseMemoryStore = c.UseMemoryStore
}
