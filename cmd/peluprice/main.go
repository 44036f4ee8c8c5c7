// PeluPrice backend - IoT device management platform
//
// This is the main entry point for the PeluPrice backend. It serves the
// REST API for user accounts and device lifecycle, listens to
// device-published MQTT telemetry, and runs the offline sweeper that
// flags silent devices.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PeluPrice/PeluPrice-MVP/internal/api"
	"github.com/PeluPrice/PeluPrice-MVP/internal/auth"
	"github.com/PeluPrice/PeluPrice-MVP/internal/device"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/config"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/database"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/influxdb"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/logging"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/mqtt"
	"github.com/PeluPrice/PeluPrice-MVP/internal/telemetry"
	"github.com/PeluPrice/PeluPrice-MVP/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PeluPrice backend",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete", "applied", applied)

	// Domain services
	deviceManager := device.NewManager(device.NewSQLiteRepository(db.DB), log)
	authService := auth.NewService(
		auth.NewUserRepository(db.DB),
		auth.NewTokenRepository(db.DB),
		log,
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.AccessTokenTTL,
		cfg.Security.JWT.RefreshTokenTTL,
	)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// Observe device-published telemetry
		listener := telemetry.NewListener(mqttClient, byte(cfg.MQTT.QoS), log)
		if startErr := listener.Start(); startErr != nil {
			return fmt.Errorf("starting telemetry listener: %w", startErr)
		}
		log.Info("telemetry listener started")
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Background offline sweeper
	sweeper := device.NewSweeper(deviceManager, cfg.GetSweepInterval(), cfg.GetOfflineThreshold(), log)
	go sweeper.Run(ctx)
	log.Info("offline sweeper started",
		"interval", cfg.GetSweepInterval(),
		"threshold", cfg.GetOfflineThreshold(),
	)

	// HTTP API server
	deps := api.Deps{
		Config:  cfg.Server,
		Logger:  log,
		Devices: deviceManager,
		Auth:    authService,
		Version: version,
	}
	// Assign through locals so a disabled client stays a nil interface.
	if mqttClient != nil {
		deps.Commands = mqttClient
	}
	if influxClient != nil {
		deps.Metrics = influxClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("PeluPrice backend stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PELUPRICE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PELUPRICE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB are skipped when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
