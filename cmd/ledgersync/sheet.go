package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cashclarity/ledgersync/internal/adapter/idgen"
	"github.com/cashclarity/ledgersync/internal/adapter/remote"
	"github.com/cashclarity/ledgersync/internal/domain"
	"github.com/cashclarity/ledgersync/internal/infrastructure/config"
	"github.com/cashclarity/ledgersync/internal/infrastructure/logger"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

// backend is what a session needs from the persistence API.
type backend interface {
	usecase.EntryGateway
	usecase.PeriodOverrideGateway
	ListEntries(ctx context.Context, periodID string) ([]domain.EntryRecord, error)
	GetPeriodOverrides(ctx context.Context, periodID string) (domain.PeriodOverrides, error)
}

type sheetOptions struct {
	workspaceID string
	periodID    string
	categories  []string
	quietPeriod time.Duration
	saveTimeout time.Duration
}

func newSheetCmd() *cobra.Command {
	var opts sheetOptions

	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Open an editing session for one period",
		Long: `Reads commands from stdin, one per line:

  add <income|expense> [category]   add a row, prints its id
  set <id> <field> <value...>       field is description, amount or category_id
  rm <id>                           remove a row
  open <amount>                     opening balance override (empty clears)
  dividends <on|off>                dividends released
  closing-enabled <on|off>          enable the closing balance override
  closing <amount>                  closing balance override
  paste <direction>                 description<TAB>amount lines until "."
  save                              save now
  status                            sync state and pending changes
  list                              print all rows
  quit                              save pending changes and exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}

			cfg, err := config.LoadClient(files...)
			if err != nil {
				return err
			}
			if url, _ := cmd.Flags().GetString("url"); url != "" {
				cfg.APIURL = url
			}
			if opts.quietPeriod <= 0 {
				opts.quietPeriod = cfg.QuietPeriod
			}
			opts.saveTimeout = cfg.SaveTimeout

			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})

			client, err := remote.NewClient(remote.Config{BaseURL: cfg.APIURL, Timeout: cfg.APITimeout, Logger: log})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, err := openSession(ctx, client, opts, cmd.OutOrStdout(), log)
			if err != nil {
				return err
			}
			defer sess.close()

			return sess.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&opts.workspaceID, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&opts.periodID, "period", "", "Period ID, e.g. 2024-05")
	cmd.Flags().StringSliceVar(&opts.categories, "category", []string{"income:revenue", "expense:general"},
		"Categories as direction:id; the first of each direction is the default for new rows")
	cmd.Flags().DurationVar(&opts.quietPeriod, "quiet-period", 0, "Autosave quiet period (overrides LEDGERSYNC_QUIET_PERIOD)")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

// openSession loads the period from the backend and mounts a sheet on it.
func openSession(ctx context.Context, b backend, opts sheetOptions, out io.Writer, log zerolog.Logger) (*session, error) {
	categories, err := parseCategories(opts.categories)
	if err != nil {
		return nil, err
	}

	records, err := b.ListEntries(ctx, opts.periodID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	overrides, err := b.GetPeriodOverrides(ctx, opts.periodID)
	if err != nil {
		return nil, fmt.Errorf("load period overrides: %w", err)
	}

	entries := make([]domain.Entry, len(records))
	for i, r := range records {
		entries[i] = r.Entry()
	}

	sess := newSession(out)

	sheet, err := usecase.NewSheet(ctx, usecase.SheetConfig{
		WorkspaceID:     opts.workspaceID,
		PeriodID:        opts.periodID,
		Entries:         entries,
		Period:          domain.PeriodConfigFromOverrides(overrides),
		Categories:      categories,
		EntryGateway:    b,
		OverrideGateway: b,
		IDGenerator:     idgen.NewULIDGenerator(),
		Notifier:        sess,
		Refresher:       sess,
		OnStateChange:   sess.stateChanged,
		QuietPeriod:     opts.quietPeriod,
		SaveTimeout:     opts.saveTimeout,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}

	sess.sheet = sheet
	sess.printf("opened %s with %d entries\n", opts.periodID, len(entries))

	return sess, nil
}

// parseCategories reads direction:id pairs.
func parseCategories(specs []string) ([]domain.Category, error) {
	categories := make([]domain.Category, 0, len(specs))
	for _, spec := range specs {
		dir, id, ok := strings.Cut(spec, ":")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("invalid category %q, want direction:id", spec)
		}

		direction, err := domain.ParseDirection(dir)
		if err != nil {
			return nil, err
		}

		id = strings.TrimSpace(id)
		categories = append(categories, domain.Category{ID: id, Name: id, Direction: direction})
	}

	return categories, nil
}
