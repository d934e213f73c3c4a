package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/postop/postop/internal/config"
	"github.com/postop/postop/internal/domain/dashboard"
	"github.com/postop/postop/internal/domain/followup"
	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/platform/db"
	"github.com/postop/postop/internal/platform/submitclient"
	"github.com/postop/postop/internal/triage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "postop-server",
		Short:        "Postoperative follow-up API server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), patientsCmd(), followupCmd(), dashboardCmd())
	return root
}

func newLogger(env string, w io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	migrator := func(cmd *cobra.Command) (*db.Migrator, *pgxpool.Pool, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, nil, err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		pool, err := openPool(cmd.Context(), cfg)
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(pool, dir, cfg.DBSchema), pool, nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, pool, err := migrator(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := m.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, pool, err := migrator(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
		cmd.AddCommand(c)
	}
	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Manage registered patients",
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete patients and all of their follow-up responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("ids")
			yes, _ := cmd.Flags().GetBool("yes")

			ids, err := dashboard.ParseIDs(raw)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return dashboard.ErrNoPatientsSelected
			}
			if !yes {
				fmt.Fprintf(cmd.ErrOrStderr(), "Refusing to delete patients %v and their responses without --yes. This cannot be undone.\n", ids)
				return dashboard.ErrConfirmationRequired
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env, cmd.ErrOrStderr())
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := dashboard.NewService(followup.NewResponseRepoPG(pool), intake.NewPatientRepoPG(pool),
				dashboard.NewDeletionStorePG(pool), logger)
			res, err := svc.DeletePatients(cmd.Context(), ids, yes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d patient(s) and %d response(s).\n", res.DeletedPatients, res.DeletedResponses)
			return nil
		},
	}
	deleteCmd.Flags().String("ids", "", "Comma separated patient ids, e.g. 3,7")
	deleteCmd.Flags().Bool("yes", false, "Confirm the irreversible deletion")
	cmd.AddCommand(deleteCmd)
	return cmd
}

func followupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followup",
		Short: "Follow-up questionnaire tools",
	}

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Post a questionnaire to the submission endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetInt64("patient")
			answers, _ := cmd.Flags().GetStringSlice("answers")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			if patientID <= 0 {
				return fmt.Errorf("--patient is required")
			}
			if len(answers) != triage.QuestionCount {
				return fmt.Errorf("--answers needs %d values, got %d", triage.QuestionCount, len(answers))
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = cfg.SubmitEndpointURL
			}
			timeout := cfg.SubmitTimeout
			if timeout <= 0 {
				timeout = 10 * time.Second
			}

			client := submitclient.New(endpoint, timeout, newLogger(cfg.Env, cmd.ErrOrStderr()))
			res, err := client.Submit(cmd.Context(), patientID, answers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted response %d for patient %d.\n", res.ResponseID, patientID)
			return nil
		},
	}
	submitCmd.Flags().Int64("patient", 0, "Patient id from the follow-up link")
	submitCmd.Flags().StringSlice("answers", nil, "The 11 answers in questionnaire order, comma separated. Quote an answer that contains a comma, e.g. '3,2,no,no,no,no,no,no,yes,\"Good, thanks\",'")
	submitCmd.Flags().String("endpoint", "", "Submission endpoint base URL (default SUBMIT_ENDPOINT_URL)")
	cmd.AddCommand(submitCmd)
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Triage dashboard tools",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export all classified responses to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			rawLevel, _ := cmd.Flags().GetString("level")
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			var level *triage.Level
			if rawLevel != "" {
				l, err := triage.ParseLevel(rawLevel)
				if err != nil {
					return err
				}
				level = &l
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env, cmd.ErrOrStderr())
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := dashboard.NewService(followup.NewResponseRepoPG(pool), intake.NewPatientRepoPG(pool),
				dashboard.NewDeletionStorePG(pool), logger)
			n, err := writeExport(out, func(w io.Writer) (int, error) {
				return svc.Export(cmd.Context(), w, level)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s.\n", n, out)
			return nil
		},
	}
	exportCmd.Flags().String("out", "", "Output .xlsx path")
	exportCmd.Flags().String("level", "", "Only export rows at this level (critical, mild-concern, normal)")
	cmd.AddCommand(exportCmd)
	return cmd
}

// writeExport creates path for export and removes it again if the export or
// the close fails.
func writeExport(path string, export func(w io.Writer) (int, error)) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	n, err := export(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}
