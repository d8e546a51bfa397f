package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/catalog"
	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/logging"
	"github.com/sakif/taskquest/internal/model"
	sqliteRepo "github.com/sakif/taskquest/internal/repository/sqlite"
	"github.com/sakif/taskquest/internal/service"
)

const defaultDBPath = "data/taskquest.db"

// cli holds the flags shared by every subcommand.
type cli struct {
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "taskquestctl",
		Short:         "Administer a taskquest database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", envOr("DB_PATH", defaultDBPath), "SQLite database file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "debug, info, warn or error")

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect players",
	}
	userCmd.AddCommand(c.userShowCmd())

	root.AddCommand(c.migrateCmd(), c.seedCmd(), c.rankingCmd(), userCmd)
	return root
}

// open connects to the database. sqlite.New applies pending migrations, so
// every subcommand works on an up-to-date schema.
func (c *cli) open(cmd *cobra.Command) (*sqliteRepo.DB, *slog.Logger, error) {
	logger := logging.SetupWriter(cmd.ErrOrStderr(), c.logLevel)
	db, err := sqliteRepo.New(c.dbPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("database opened", slog.String("path", c.dbPath))
	return db, logger, nil
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := db.SchemaVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert or refresh the achievement catalog",
		Long: `Upserts achievements by key. Existing ids, and therefore grants already
earned by players, are kept. Without --file the built-in catalog is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs, err := loadDefs(file)
			if err != nil {
				return err
			}

			db, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if _, err := service.SeedAchievements(ctx, db, defs); err != nil {
				return err
			}
			all, err := db.Achievements().List(ctx)
			if err != nil {
				return err
			}
			return printAchievements(cmd.OutOrStdout(), all)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to seed instead of the built-in one")
	return cmd
}

func loadDefs(file string) ([]model.Achievement, error) {
	if file == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(file)
}

func printAchievements(out io.Writer, all []model.Achievement) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tKIND\tTHRESHOLD\tID\tNAME")
	for _, a := range all {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", a.Key, a.Kind, a.Threshold, a.ID, a.Name)
	}
	return tw.Flush()
}

func (c *cli) rankingCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Print the global ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, logger, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			deps := service.Deps{Logger: logger}
			ranking := service.NewRankingService(db, service.NewFriendService(db, deps))
			top, err := ranking.Top(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tLEVEL\tXP")
			for _, r := range top {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", r.Position, r.Name, r.Level, r.XP)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "rows to show, 0 for all")
	return cmd
}

func (c *cli) userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Show a player's progress and achievements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			return showUser(cmd.Context(), cmd.OutOrStdout(), db, strings.ToLower(strings.TrimSpace(args[0])))
		},
	}
}

func showUser(ctx context.Context, out io.Writer, db *sqliteRepo.DB, email string) error {
	u, err := db.Users().GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("no player with email %s", email)
	}
	if err != nil {
		return err
	}
	earned, err := db.Achievements().ListForUser(ctx, u.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "id:      %s\n", u.ID)
	fmt.Fprintf(out, "name:    %s\n", u.Name)
	fmt.Fprintf(out, "email:   %s\n", u.Email)
	fmt.Fprintf(out, "xp:      %d\n", u.XP)
	fmt.Fprintf(out, "level:   %d\n", u.Level)
	fmt.Fprintf(out, "streak:  %d\n", u.ConsecutiveLoginDays)
	if u.LastLoginDate != nil {
		fmt.Fprintf(out, "last:    %s\n", u.LastLoginDate.Format(model.DateLayout))
	}
	// The stored level must always be the one the XP implies.
	if want := game.LevelForXP(u.XP); want != u.Level {
		fmt.Fprintf(out, "WARNING: stored level %d, xp implies %d\n", u.Level, want)
	}

	fmt.Fprintf(out, "achievements (%d):\n", len(earned))
	for _, a := range earned {
		fmt.Fprintf(out, "  %s  %s\n", a.GrantedAt.Format(model.DateLayout), a.Name)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
