package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cashcheck-dev/cashcheck/internal/config"
	"github.com/cashcheck-dev/cashcheck/internal/importer"
	"github.com/cashcheck-dev/cashcheck/internal/session"
)

const rulesTemplate = `# Extra categorization rules, added when the session is initialized.
# Lower priority wins; the built-in rules use 10, 20 and 30.
#
# rules:
#   - pattern: NETFLIX
#     match: CONTAINS      # or REGEX
#     direction: OUTFLOW   # INFLOW, OUTFLOW or NONE
#     category: Entertainment
#     priority: 40
rules: []
`

func newInitCommand() *cobra.Command {
	var sessionID string
	var timezone string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cashcheck project and its session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, sessionID, timezone)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "default", "session id")
	cmd.Flags().StringVar(&timezone, "timezone", "America/Los_Angeles", "timezone CSV dates are interpreted in")

	return cmd
}

func runInit(dir, sessionID, timezone string) error {
	// Create directory structure.
	importDir := filepath.Join(dir, "import")
	if err := os.MkdirAll(filepath.Join(importDir, importer.ProcessedDir), 0o755); err != nil {
		return fmt.Errorf("creating import directory: %w", err)
	}

	// Write cashcheck.yaml unless one exists.
	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := config.Default()
		cfg.Session.ID = sessionID
		cfg.Import.Timezone = timezone
		cfg.Import.RulesFile = "rules.yaml"
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(configPath, cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
	}

	files := map[string]string{
		"rules.yaml":                        rulesTemplate,
		".gitignore":                        ".cashcheck/\n.env\n",
		filepath.Join("import", ".gitkeep"): "",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	// Seed the session.
	return withApp(configPath, func(ctx context.Context, a *app) error {
		created, err := session.Initialize(ctx, a.repo, a.sessionID())
		if err != nil {
			return fmt.Errorf("initializing session: %w", err)
		}
		if !created {
			fmt.Printf("Session %s already initialized at %s\n", a.sessionID(), dir)
			return nil
		}

		extra := 0
		if a.cfg.Import.RulesFile != "" {
			specs, err := session.LoadRulesFile(a.path(a.cfg.Import.RulesFile))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if extra, err = session.AddRules(ctx, a.repo, a.sessionID(), specs); err != nil {
				return err
			}
		}

		fmt.Printf("Initialized cashcheck project at %s (session %s, %d extra rules)\n", dir, a.sessionID(), extra)
		return nil
	})
}
