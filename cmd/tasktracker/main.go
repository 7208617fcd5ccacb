package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/task-tracker/internal/auth"
	"github.com/nhle/task-tracker/internal/credential"
	"github.com/nhle/task-tracker/internal/lifecycle"
	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/scan"
	"github.com/nhle/task-tracker/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tasktracker",
	Short: "Task tracker with dependency-aware statuses",
	Long: `tasktracker manages tasks whose statuses follow their dependency
graph: tasks with incomplete prerequisites are blocked, completing a
prerequisite unblocks its dependents, and every status change is kept
in an audit trail.`,
}

var (
	configPath string
	actorID    string
	actorRole  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&actorID, "as", defaultActorID(), "Acting user id")
	rootCmd.PersistentFlags().StringVar(&actorRole, "role", string(model.RoleAdmin), "Acting user role (admin, manager, developer, tester)")

	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(credentialCmd)
}

func defaultActorID() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// app bundles everything a command needs.
type app struct {
	cfg       *model.AppConfig
	store     *store.SQLiteStore
	lifecycle *lifecycle.Lifecycle
	actor     model.Actor
}

// openApp loads configuration, opens the store, and wires the lifecycle
// service. The caller must Close the returned app.
func openApp() (*app, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.Scan.APIKey
	if cfg.Scan.APIKeyRef != "" {
		if key, err := credential.Get(cfg.Scan.APIKeyRef); err == nil {
			apiKey = key
		}
	}
	scanner := scan.NewHTTPScanner(cfg.Scan.BaseURL, apiKey)

	lc, err := lifecycle.New(st, scanner, cfg.Dependencies.RejectCycles)
	if err != nil {
		st.Close()
		return nil, err
	}

	provider := auth.StaticProvider{
		Actor: model.Actor{ID: actorID, Role: model.Role(actorRole)},
	}
	actor, err := provider.ActorFromContext(context.Background())
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		store:     st,
		lifecycle: lc,
		actor:     actor,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing store: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
