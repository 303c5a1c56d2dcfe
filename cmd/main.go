package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"heatbeat/internal/handlers"
	"heatbeat/internal/hub"
	"heatbeat/internal/logger"
	"heatbeat/internal/mqtt"
	"heatbeat/internal/repository"
	"heatbeat/internal/repository/db"
	"heatbeat/internal/server"
	"heatbeat/internal/service"

	"github.com/spf13/viper"
)

// @title           Heatbeat API
// @version         1.0
// @description     State synchronization service for smart thermostats: app
// @description     and device writes, command delivery, schedules, live push.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type appConfig struct {
	Port string `mapstructure:"port"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Auth struct {
		SigningKey      string `mapstructure:"signing_key"`
		TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
	} `mapstructure:"auth"`

	Device struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"device"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`

	Retention struct {
		Enabled         bool `mapstructure:"enabled"`
		IntervalSeconds int  `mapstructure:"interval_seconds"`
	} `mapstructure:"retention"`

	MQTT mqtt.Config `mapstructure:"mqtt"`
}

// fanoutNotifier forwards every event to all sinks: the in-process hub always,
// the MQTT bridge when one is configured.
type fanoutNotifier struct {
	sinks []service.Notifier
}

func (f *fanoutNotifier) Publish(thermostatID int, ev hub.Event) {
	for _, s := range f.sinks {
		s.Publish(thermostatID, ev)
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level)

	database, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(database)

	liveHub := hub.New()
	notifier := &fanoutNotifier{sinks: []service.Notifier{liveHub}}

	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		bridge, err = mqtt.NewBridge(cfg.MQTT, log)
		if err != nil {
			log.Fatalw("failed to connect mqtt bridge", "err", err)
		}
		notifier.sinks = append(notifier.sinks, bridge)
		log.Infow("mqtt bridge connected", "broker", cfg.MQTT.BrokerURL)
	}

	services := service.NewService(repos, notifier, service.AuthConfig{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
	})
	apiHandler := handlers.NewHandler(services, liveHub, log, cfg.Device.Token)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Retention.Enabled {
		go services.Retention.Run(ctx, time.Duration(cfg.Retention.IntervalSeconds)*time.Second)
	}

	srv := &server.Server{}
	go func() {
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes(), cfg.CORS.AllowedOrigins); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("server started", "port", cfg.Port)

	waitForShutdown(cancel, srv, bridge, log)
}

func loadConfig() (appConfig, error) {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.SetEnvPrefix("HEATBEAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("db.path", "heatbeat.db")
	viper.SetDefault("auth.token_ttl_minutes", 120)
	viper.SetDefault("retention.interval_seconds", 300)

	var cfg appConfig
	if err := viper.ReadInConfig(); err != nil {
		return cfg, err
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func openDB(cfg appConfig, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "heatbeat.db")
		path = "heatbeat.db"
	}
	return db.InitDB(path)
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, bridge *mqtt.Bridge, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	if bridge != nil {
		bridge.Close()
	}
}
