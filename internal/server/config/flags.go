package config

import (
	"flag"
	"os"
	"time"

	"github.com/plume-im/plume/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-p string   public base URL of this server
//	-d string   PostgreSQL DSN
//	-t int      session validity, hours
//	-m          use the in-memory store instead of PostgreSQL
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-p", "-d", "-t", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.PublicServerURL, "p", config.PublicServerURL, "public base URL of this server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	sessionTTLHours := fs.Int("t", int(config.SessionTTL.Hours()), "session validity (in hours)")

	fs.BoolVar(&config.UseMemoryStore, "m", config.UseMemoryStore, "use in-memory store")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTLHours) * time.Hour
}
