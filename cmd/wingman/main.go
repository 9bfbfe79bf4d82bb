package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/wingman/internal/profile"
	"github.com/hrygo/wingman/internal/version"
	"github.com/hrygo/wingman/server"
	"github.com/hrygo/wingman/store"
	"github.com/hrygo/wingman/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "wingman",
		Short: `A productivity copilot chat backend that can call external HTTP APIs on your behalf.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Systemd units provide their environment directly.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile, err := loadProfile()
			if err != nil {
				slog.Error("invalid configuration", "error", err)
				os.Exit(1)
			}
			setupLogger(instanceProfile)

			ctx, cancel := context.WithCancel(context.Background())
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				printDatabaseError(err, instanceProfile)
				slog.Error("failed to create db driver", "error", err)
				return
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				cancel()
				slog.Error("failed to migrate", "error", err)
				return
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("failed to start server", "error", err)
					cancel()
					return
				}
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres, mysql)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("wingman")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(tokenCmd, versionCmd)
}

// loadProfile merges flags, environment and defaults into a validated profile.
func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// setupLogger installs a debug text handler in dev and an info JSON handler otherwise.
func setupLogger(profile *profile.Profile) {
	var handler slog.Handler
	if profile.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler).With("version", profile.Version))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Wingman %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("File backend: %s\n", profile.FileBackend)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if profile.IsAIEnabled() {
		fmt.Printf("LLM: %s (%s)\n", profile.LLMProvider, profile.LLMModel)
	} else {
		fmt.Println("LLM: not configured, chat is disabled")
	}

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Access Wingman at: http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Access Wingman at: http://%s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError provides user-friendly error messages for database connection issues
func printDatabaseError(err error, profile *profile.Profile) {
	fmt.Fprintln(os.Stderr, "\nDatabase connection failed")

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintf(os.Stderr, "\n  The %s server is not reachable. Check that it is running and that the DSN is correct.\n", profile.Driver)
		fmt.Fprintf(os.Stderr, "  Or use SQLite for development: ./wingman --driver=sqlite --data=./data\n")

	case strings.Contains(errMsg, "SSL is not enabled") || strings.Contains(errMsg, "sslmode"):
		fmt.Fprintf(os.Stderr, "\n  PostgreSQL SSL configuration mismatch. Add ?sslmode=disable to your DSN.\n")

	case strings.Contains(errMsg, "password authentication failed") || strings.Contains(errMsg, "Access denied"):
		fmt.Fprintf(os.Stderr, "\n  Authentication failed. Check the credentials in WINGMAN_DSN or your .env file.\n")

	default:
		fmt.Fprintln(os.Stderr, "\n  Error:", errMsg)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
