package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/crastinus/hlfun-auth-srv/pkg/auth"
	"github.com/crastinus/hlfun-auth-srv/pkg/bans"
	"github.com/crastinus/hlfun-auth-srv/pkg/geoip"
	"github.com/crastinus/hlfun-auth-srv/pkg/httpserver"
	"github.com/crastinus/hlfun-auth-srv/pkg/logging"
	"github.com/crastinus/hlfun-auth-srv/pkg/status"
	"github.com/crastinus/hlfun-auth-srv/pkg/users"
)

var (
	version     = "dev" // Will be set during build
	cfgFile     string
	showVersion bool
)

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:           "authd",
	Short:         "Authentication and geofencing server",
	SilenceUsage:  false,
	SilenceErrors: true,
	Long: `Authentication and geofencing server (authd)

Serves token-based authentication over a keep-alive TCP protocol, with
per-country geofencing backed by GeoLite2 reference tables and admin
ban lists for accounts and IPv4 subnets.

Configuration file must be in JSON format with the following structure:
{
    "listen_addr": "0.0.0.0",
    "port": 8080,
    "users_file_path": "/var/lib/authd/users.ndjson",
    "geoip_locations_path": "/var/lib/authd/GeoLite2-Country-Locations-en.csv",
    "geoip_blocks_path": "/var/lib/authd/GeoLite2-Country-Blocks-IPv4.csv",
    "token_key": "base64-encoded HS256 key",
    "ban_store": "octet",
    "max_header_bytes": 10240,
    "max_body_bytes": 102400,
    "app_log_path": "/var/log/authd/authd.log",
    "access_log_path": "/var/log/authd/access.log",
    "log_level": "info",
    "status_dir": "/var/run/authd",
    "status_interval": 60
}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("authd %s\n", version)
			return nil
		}

		if cfgFile == "" {
			return fmt.Errorf("config file is required (use --config)")
		}
		if !filepath.IsAbs(cfgFile) {
			var err error
			cfgFile, err = filepath.Abs(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to get absolute path: %v", err)
			}
		}

		var config Config
		if err := LoadConfig(cfgFile, &config); err != nil {
			return fmt.Errorf("failed to load config: %v", err)
		}

		logConfig := logging.Config{
			AppLogPath:    config.AppLogPath,
			AccessLogPath: config.AccessLogPath,
			Level:         logging.LogLevel(config.LogLevel),
			MaxSize:       int64(config.LogMaxSizeMB) * 1024 * 1024,
		}
		if err := logging.Initialize(&logConfig); err != nil {
			return fmt.Errorf("failed to initialize logging: %v", err)
		}

		key, err := config.TokenKeyBytes()
		if err != nil {
			return err
		}

		store, geoIndex, err := loadBootstrapData(&config)
		if err != nil {
			return err
		}

		banStore, err := newBanStore(config.BanStore)
		if err != nil {
			return err
		}

		engine := auth.NewEngine(store, geoIndex, key)
		server := httpserver.NewServer(&httpserver.Config{
			ListenAddr:     config.ListenAddr,
			Port:           config.Port,
			MaxHeaderBytes: config.MaxHeaderBytes,
			MaxBodyBytes:   config.MaxBodyBytes,
		}, engine, banStore)

		var statusWriter *status.Writer
		if config.StatusDir != "" {
			statusWriter, err = status.New(config.StatusDir, time.Duration(config.StatusInterval)*time.Second, version)
			if err != nil {
				return fmt.Errorf("failed to create status writer: %v", err)
			}
			statusWriter.SetMetricsProvider(server)
			statusWriter.SetStoreStats(storeStats{store})
			if err := statusWriter.WriteStartFile(); err != nil {
				logging.App.Error("Failed to write start file", "error", err)
			}
			statusWriter.StartHeartbeat()
		}

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		started := time.Now()
		fmt.Printf("Starting authd %s on %s:%d\n", version, config.ListenAddr, config.Port)

		var stopReason string
		select {
		case sig := <-sigCh:
			stopReason = "signal_" + sig.String()
			logging.App.Info("Shutting down", "signal", sig.String())
			server.Stop()
			<-serveErr
		case err := <-serveErr:
			stopReason = "serve_error"
			if err != nil {
				logging.App.Error("Server stopped", "error", err)
			}
		}

		if statusWriter != nil {
			statusWriter.Stop()
			if err := statusWriter.WriteStopFile(stopReason, time.Since(started)); err != nil {
				logging.App.Error("Failed to write stop file", "error", err)
			}
		}
		return nil
	},
}

// loadBootstrapData loads the user file and the two GeoLite2 tables.
// The geo tables are by far the larger input, so they load on their own
// goroutine while the user file parses on this one.
func loadBootstrapData(config *Config) (*users.Store, *geoip.Index, error) {
	fs := afero.NewOsFs()

	type geoResult struct {
		index *geoip.Index
		err   error
	}
	geoCh := make(chan geoResult, 1)
	go func() {
		index, err := geoip.NewFileSource(fs, config.GeoIPLocationsPath, config.GeoIPBlocksPath).Load()
		geoCh <- geoResult{index, err}
	}()

	store, err := users.NewStoreFromSource(users.NewFileSource(fs, config.UsersFilePath))
	if err != nil {
		return nil, nil, fmt.Errorf("loading users: %w", err)
	}
	logging.App.Info("Loaded user records", "count", store.Len())

	geo := <-geoCh
	if geo.err != nil {
		return nil, nil, fmt.Errorf("loading geoip tables: %w", geo.err)
	}
	logging.App.Info("Loaded geoip index", "countries", geo.index.Len())

	return store, geo.index, nil
}

func newBanStore(kind string) (bans.Store, error) {
	switch kind {
	case "", "octet":
		return bans.NewOctetStore(), nil
	case "range":
		return bans.NewRangeStore(), nil
	}
	return nil, fmt.Errorf("unknown ban_store %q (want octet or range)", kind)
}

// storeStats adapts the user store to the status writer
type storeStats struct {
	store *users.Store
}

func (s storeStats) UserCount() int { return s.store.Len() }

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to config file (required)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version information")
}
