package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cashcheck-dev/cashcheck/internal/detect"
	"github.com/cashcheck-dev/cashcheck/internal/ingest"
)

func newDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Report which provider exported a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(args[0])
		},
	}
}

func runDetect(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	res, err := ingest.Detect(data)
	var unrecognized *detect.FormatUnrecognizedError
	if errors.As(err, &unrecognized) {
		fmt.Printf("unrecognized (best guess %s, confidence %.2f)\n", unrecognized.Fallback.Provider, unrecognized.Fallback.Confidence)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s (confidence %.2f, header line %d)\n", res.Provider, res.Confidence, res.HeaderOffset+1)
	fmt.Printf("columns: %s\n", strings.Join(res.Headers, ", "))
	if !detect.Validate(res.Provider, res.Headers) {
		return fmt.Errorf("%s: %w", res.Provider, detect.ErrFormatInvalid)
	}
	return nil
}
