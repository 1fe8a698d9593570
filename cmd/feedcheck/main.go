// Command feedcheck runs the Merchant Center feed validation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"feedcheck/pkg/catalog"
	"feedcheck/pkg/config"
	"feedcheck/pkg/logx"
	"feedcheck/pkg/metrics"
	"feedcheck/pkg/persistence"
	"feedcheck/pkg/version"
	"feedcheck/pkg/webui"
)

func main() {
	var (
		dataDir     = flag.String("datadir", ".feedcheck", "Data directory for config and run history")
		host        = flag.String("host", "", "Listen host (overrides config)")
		port        = flag.Int("port", 0, "Listen port (overrides config)")
		noHistory   = flag.Bool("nohistory", false, "Disable run history storage")
		setPass     = flag.Bool("setpass", false, "Set the API password and exit")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("feedcheck %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
		os.Exit(0)
	}

	os.Exit(run(*dataDir, *host, *port, *noHistory, *setPass))
}

// run contains the main application logic and returns an exit code.
// This allows defers to execute before os.Exit is called.
func run(dataDir, host string, port int, noHistory, setPass bool) int {
	logger := logx.NewLogger("main")

	if err := config.Load(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	if setPass {
		if err := runSetPassword(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set password: %v\n", err)
			return 1
		}
		fmt.Println("Password updated.")
		return 0
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		return 1
	}
	if host == "" {
		host = cfg.Server.Host
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	cat, err := loadCatalog(cfg.RulebookPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rulebook: %v\n", err)
		return 1
	}
	logger.Info("Rulebook loaded: %d attribute specs across profiles %v", cat.Len(), cat.Profiles())

	if !noHistory {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create data dir: %v\n", err)
			return 1
		}
		if err := persistence.Initialize(cfg.DBPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize run history: %v\n", err)
			return 1
		}
		defer func() {
			if err := persistence.Close(); err != nil {
				logger.Warn("Failed to close database: %v", err)
			}
		}()
	} else {
		logger.Info("Run history disabled")
	}

	server, err := webui.NewServer(cat, metrics.NewRecorder())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		return 1
	}

	// Shut down on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.StartServer(ctx, host, port); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	logger.Info("Shutdown complete")
	return 0
}

// loadCatalog loads the rulebook: a configured on-disk override when set,
// otherwise the embedded rulebook.
func loadCatalog(rulebookPath string, logger *logx.Logger) (*catalog.Catalog, error) {
	if rulebookPath != "" {
		logger.Info("Loading rulebook override from %s", rulebookPath)
		return catalog.LoadFile(rulebookPath)
	}
	return catalog.Load()
}

// runSetPassword prompts for a password without echo and stores its bcrypt
// hash in the config. An empty password disables auth.
func runSetPassword() error {
	fmt.Print("New API password (empty to disable auth): ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	auth := config.AuthConfig{}
	if len(password) > 0 {
		hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		auth.Username = defaultUsernameOrCurrent()
		auth.PasswordHash = string(hash)
	}
	return config.UpdateAuth(auth)
}

// defaultUsernameOrCurrent keeps a previously configured username across
// password changes.
func defaultUsernameOrCurrent() string {
	cfg, err := config.GetConfig()
	if err == nil && cfg.Auth.Username != "" {
		return cfg.Auth.Username
	}
	return "feedcheck"
}
