package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/m3rciful/dialogbot/app/flows"
	coreconfig "github.com/m3rciful/dialogbot/core/config"
	coredatabase "github.com/m3rciful/dialogbot/core/database"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/records"
)

// storeConfig is the slice of the config file the maintenance commands need.
// It skips the Telegram and API key checks of the full config.
type storeConfig struct {
	Logging  coreconfig.LoggingConfig `yaml:"logging"`
	Database coredatabase.Config      `yaml:"database"`
}

func loadStoreConfig(cmd *cobra.Command) (*storeConfig, error) {
	var cfg storeConfig
	if err := coreconfig.LoadInto(configPath(cmd), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&coreconfig.Config{Logging: cfg.Logging}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// openStore connects and migrates, so read commands work on a fresh database too.
func openStore(cmd *cobra.Command) (*records.Store, func(), error) {
	cfg, err := loadStoreConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := coredatabase.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := coredatabase.RunMigrations(cfg.Database); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return records.New(db), func() {
		_ = db.Close()
		_ = logger.Shutdown()
	}, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStoreConfig(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Shutdown() }()
		if cfg.Database.Driver == coredatabase.DriverSQLite {
			// Connect creates the database directory.
			db, err := coredatabase.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
		}
		rep, err := coredatabase.Migrate(cfg.Database)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rep)
		return nil
	},
}

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List registered students",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, done, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer done()
		list, err := store.ListStudents(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No students yet.")
			return nil
		}
		for _, s := range list {
			fmt.Fprintf(out, "%d\t%s\t%d\t%s\n", s.ID, s.Name, s.Age, s.Grade)
		}
		return nil
	},
}

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Show the last expense report of every user",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, done, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer done()
		users, err := store.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, u := range users {
			fmt.Fprintf(out, "== %s (%d)\n", u.Name, u.TelegramID)
			lines := u.Expenses()
			if len(lines) == 0 {
				fmt.Fprintln(out, "no report")
				continue
			}
			fmt.Fprintln(out, flows.ExpenseSummary(lines))
		}
		return nil
	},
}

var assessmentsCmd = &cobra.Command{
	Use:   "assessments <telegram-id>",
	Short: "Print the assessment reports of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid telegram id %q", args[0])
		}
		store, done, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer done()
		list, err := store.ListAssessments(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, a := range list {
			p, err := records.DecodeProfile(a.Report)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "== session %s\n", a.SessionID)
			fmt.Fprintf(out, "Имя: %s\nЗапрос: %s\nСроки: %s\nБюджет: %s\nКонтакт: %s\n",
				p.Name, p.Request, p.Deadline, p.Budget, p.Contact)
			for k, v := range p.Extra {
				fmt.Fprintf(out, "%s: %s\n", k, v)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, studentsCmd, expensesCmd, assessmentsCmd)
}
