package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/importer"
	"github.com/cashcheck-dev/cashcheck/internal/ingest"
	"github.com/cashcheck-dev/cashcheck/internal/model"
)

func newImportCommand(configPath *string) *cobra.Command {
	var source string
	var dir string

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import Chase or Venmo CSV exports",
		Long: "Import the given CSV files. Without arguments every CSV in the import\n" +
			"directory is imported and moved to its processed/ subdirectory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if source != "" && !model.Provider(strings.ToUpper(source)).Valid() {
				return fmt.Errorf("unknown source %q (want chase or venmo)", source)
			}
			return withApp(*configPath, func(ctx context.Context, a *app) error {
				return runImport(ctx, a, args, model.Provider(strings.ToUpper(source)), dir)
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "provider of the files (chase or venmo); detected when empty")
	cmd.Flags().StringVar(&dir, "dir", "", "import directory (default from config)")

	return cmd
}

func runImport(ctx context.Context, a *app, files []string, source model.Provider, dir string) error {
	scanned := len(files) == 0
	if scanned {
		if dir == "" {
			dir = a.cfg.Import.Dir
		}
		dir = a.path(dir)
		found, err := importer.Scan(dir)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Printf("No CSV files in %s\n", dir)
			return nil
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	}

	var failed int
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		name := filepath.Base(path)
		res, err := a.svc.Import(ctx, ingest.Request{
			SessionID: a.sessionID(),
			Provider:  source,
			Filename:  name,
			Data:      data,
		})
		if err != nil {
			failed++
			fmt.Printf("%s: error: %v\n", name, err)
			continue
		}

		if res.AlreadyProcessed {
			fmt.Printf("%s: already imported (%d transactions)\n", name, res.Duplicates)
		} else {
			fmt.Printf("%s: %s, %d imported, %d duplicates, %d transfers matched\n",
				name, res.Source, res.Imported, res.Duplicates, res.Transfers.Matched)
		}

		if scanned {
			if err := importer.MarkProcessed(filepath.Dir(path), name); err != nil {
				a.logger.Warn("moving file to processed", zap.String("file", name), zap.Error(err))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(files))
	}
	return nil
}
