package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mindfullens/internal/app"
	"mindfullens/internal/content"
	"mindfullens/internal/model"
	"mindfullens/internal/service"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a text file (or stdin) and print the report as JSON",
	Long: `Analyze runs the configured provider once over the given file, or over
standard input when no file is given. TXT files are read directly; PDF and
DOCX go through the extractor.

Example:
  mindfullens analyze journal.txt
  echo "I feel tired and hopeless every day" | mindfullens analyze`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("raw", false, "print the raw analysis response instead of the report")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pack, err := content.Load(cfg.Content.Path)
	if err != nil {
		return err
	}
	provider, err := app.NewProvider(cfg, pack, logger)
	if err != nil {
		return err
	}

	text, err := readInput(cmd, args, app.NewExtractor(cfg, pack, logger))
	if err != nil {
		return err
	}

	resp, err := provider.Analyze(cmd.Context(), model.AnalysisRequest{Text: text})
	if err != nil {
		return err
	}
	resp.Normalize()

	var out interface{} = service.BuildReport(resp, pack)
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		out = resp
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(cmd *cobra.Command, args []string, extractor *service.ExtractorService) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	upload := model.Upload{
		Name: filepath.Base(path),
		Size: info.Size(),
	}
	if _, err := extractor.Validate(upload); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	upload.Data = data

	text, err := extractor.Extract(cmd.Context(), upload)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s contains no text", path)
	}
	return text, nil
}
