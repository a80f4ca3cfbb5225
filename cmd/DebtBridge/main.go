package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/debtbridge/DebtBridge/internal/api"
	"github.com/debtbridge/DebtBridge/internal/engine"
	"github.com/debtbridge/DebtBridge/internal/events"
	"github.com/debtbridge/DebtBridge/internal/faq"
	"github.com/debtbridge/DebtBridge/internal/genai"
	"github.com/debtbridge/DebtBridge/internal/interrupt"
	"github.com/debtbridge/DebtBridge/internal/messaging"
	"github.com/debtbridge/DebtBridge/internal/script"
	"github.com/debtbridge/DebtBridge/internal/store"
	"github.com/debtbridge/DebtBridge/internal/util"
)

// Default configuration constants
const (
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "debtbridge.db"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("DebtBridge failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("DebtBridge exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	ScriptPath  string
	OpenAIKey   string
	APIAddr     string
	NATSURL     string
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
}

// Flags holds command line flag values
type Flags struct {
	dbDSN       *string
	scriptPath  *string
	openaiKey   *string
	apiAddr     *string
	natsURL     *string
	twilioSID   *string
	twilioToken *string
	twilioFrom  *string
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("DEBTBRIDGE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("DEBTBRIDGE_STATE_DIR"),
		ScriptPath:  os.Getenv("DEBTBRIDGE_SCRIPT"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		NATSURL:     os.Getenv("NATS_URL"),
		TwilioSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken: os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:  os.Getenv("TWILIO_FROM_NUMBER"),
	}

	if config.APIAddr == "" {
		config.APIAddr = DefaultAPIAddr
	}

	// An explicit state directory without a DSN selects SQLite there; with
	// neither set the service runs on the in-memory store.
	if config.DatabaseURL == "" && config.StateDir != "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite in state directory", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"DEBTBRIDGE_STATE_DIR", config.StateDir,
		"DEBTBRIDGE_SCRIPT", config.ScriptPath,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"NATS_URL_SET", config.NATSURL != "",
		"TWILIO_CONFIGURED", config.TwilioSID != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN: Postgres URL, SQLite path, or empty for in-memory (overrides $DATABASE_URL)"),
		scriptPath:  flag.String("script", config.ScriptPath, "YAML script file, hot-reloaded on change (overrides $DEBTBRIDGE_SCRIPT)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		natsURL:     flag.String("nats-url", config.NATSURL, "NATS server URL for turn events (overrides $NATS_URL)"),
		twilioSID:   flag.String("twilio-account-sid", config.TwilioSID, "Twilio account SID (overrides $TWILIO_ACCOUNT_SID)"),
		twilioToken: flag.String("twilio-auth-token", config.TwilioToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)"),
		twilioFrom:  flag.String("twilio-from", config.TwilioFrom, "Twilio sending number in E.164 format (overrides $TWILIO_FROM_NUMBER)"),
	}

	flag.Parse()
	return flags
}

func run(flags Flags) error {
	st, err := buildStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	loader := buildScriptLoader(*flags.scriptPath)

	var gen genai.ClientInterface
	client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
	if err != nil {
		slog.Info("Generated phrasing disabled, using scripted text only", "reason", err)
	} else {
		gen = client
	}

	eng := engine.New(loader, interrupt.New(faq.Default()), gen)

	pub, err := events.NewPublisher(*flags.natsURL)
	if err != nil {
		slog.Warn("Turn event publishing disabled", "error", err)
		pub = nil
	}
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		if err := loader.WatchAndReload(done); err != nil {
			slog.Warn("Script hot reload unavailable", "error", err)
		}
	}()

	apiOpts := []api.Option{api.WithAddr(*flags.apiAddr), api.WithPublisher(pub)}

	if *flags.twilioSID != "" {
		smsClient, err := messaging.NewTwilioClient(
			messaging.WithAccountSID(*flags.twilioSID),
			messaging.WithAuthToken(*flags.twilioToken),
			messaging.WithFromNumber(*flags.twilioFrom),
		)
		if err != nil {
			return err
		}
		svc := messaging.NewTwilioService(smsClient)
		defer svc.Stop()

		handler := messaging.NewResponseHandler(svc, st, eng, pub)
		handler.Start(ctx)
		apiOpts = append(apiOpts, api.WithTwilioWebhook(svc.WebhookHandler))
		slog.Info("SMS channel enabled")
	} else {
		slog.Info("No Twilio credentials configured, SMS channel disabled")
	}

	server := api.NewServer(st, eng, loader, apiOpts...)
	return server.Run(ctx)
}

// buildStore selects a store backend from the DSN.
func buildStore(dsn string) (store.Store, error) {
	switch store.DetectDSNType(dsn) {
	case "postgres":
		slog.Info("Using PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	case "sqlite":
		slog.Info("Using SQLite store", "path", dsn)
		return store.NewSQLiteStore(store.WithDSN(dsn))
	default:
		slog.Info("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
}

// buildScriptLoader loads the configured script, falling back to the built-in
// default when no file is given.
func buildScriptLoader(path string) *script.Loader {
	loader := script.NewLoader(path)
	if err := loader.Load(); err != nil {
		slog.Error("Script load failed, serving fallback", "error", err)
	}
	return loader
}
