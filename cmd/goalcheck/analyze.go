package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/config"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/formatting"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/planning"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/util"
)

const (
	outputText  = "text"
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTable = "table"
)

type analyzeOptions struct {
	analyzer   string
	output     string
	file       string
	configPath string
}

func newAnalyzeCmd(loggerFn func() *zap.Logger) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [goal...]",
		Short: "Analyze a goal and print its complexity assessment",
		Long: `Analyze reads the goal from the arguments, from --file, or from stdin when
neither is given, and prints the assessment in the selected format.`,
		Example: `  goalcheck analyze "Search the web for sales data and email me a summary"
  goalcheck analyze --file goal.txt --output json
  echo "What is 2+2?" | goalcheck analyze --analyzer basic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts, loggerFn())
		},
	}

	cmd.Flags().StringVarP(&opts.analyzer, "analyzer", "a", "", "analyzer implementation: "+strings.Join(complexity.Modes(), "|")+" (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "output format: text|json|yaml|table")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read the goal from a file ('-' for stdin)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "analyzer config file")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *analyzeOptions, logger *zap.Logger) error {
	defer func() { _ = logger.Sync() }()

	switch opts.output {
	case outputText, outputJSON, outputYAML, outputTable:
	default:
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mode := opts.analyzer
	if mode == "" {
		mode = cfg.Analyzer.Mode
	}
	analyzer, err := complexity.New(mode)
	if err != nil {
		return err
	}

	goal, err := readGoal(cmd.InOrStdin(), args, opts.file)
	if err != nil {
		return err
	}
	if len(goal) > cfg.Analyzer.MaxInputBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", planning.ErrGoalTooLarge, len(goal), cfg.Analyzer.MaxInputBytes)
	}

	start := time.Now()
	result := analyzer.Analyze(goal)
	logger.Debug("Goal analyzed",
		zap.String("analyzer", analyzer.Name()),
		zap.String("goal_preview", util.Preview(goal, util.PreviewRunes)),
		zap.Int("goal_bytes", len(goal)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("estimated_subtasks", result.EstimatedSubTasks),
		zap.Duration("duration", time.Since(start)),
	)

	return writeResult(cmd.OutOrStdout(), opts.output, analyzer.Name(), result)
}

// readGoal prefers positional arguments, then --file, then stdin
func readGoal(stdin io.Reader, args []string, file string) (string, error) {
	var goal string
	switch {
	case len(args) > 0:
		goal = strings.Join(args, " ")
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		goal = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read goal file: %w", err)
		}
		goal = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		goal = string(data)
	}

	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", ErrNoGoal
	}
	return goal, nil
}

func writeResult(out io.Writer, format, analyzerName string, result *complexity.ComplexityResult) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case outputTable:
		renderTables(out, analyzerName, result)
		return nil
	default:
		_, err := fmt.Fprintln(out, formatting.FormatComplexityReport(result))
		return err
	}
}

func renderTables(out io.Writer, analyzerName string, r *complexity.ComplexityResult) {
	summary := table.NewWriter()
	summary.SetOutputMirror(out)
	summary.SetStyle(table.StyleLight)
	summary.SetTitle("Complexity (" + analyzerName + ")")
	summary.AppendHeader(table.Row{"Complex", "Confidence", "Sub-tasks", "Decompose", "Strategy"})
	summary.AppendRow(table.Row{
		r.IsComplex,
		fmt.Sprintf("%.2f", r.Confidence),
		r.EstimatedSubTasks,
		r.RequiresDecomposition,
		planning.SelectStrategy(r, 0),
	})
	summary.Render()

	if len(r.Tools) > 0 {
		tools := table.NewWriter()
		tools.SetOutputMirror(out)
		tools.SetStyle(table.StyleLight)
		tools.AppendHeader(table.Row{"Tool category", "Confidence", "Suggested tools", "Keywords"})
		for _, t := range r.Tools {
			tools.AppendRow(table.Row{t.Category, fmt.Sprintf("%.2f", t.Confidence), strings.Join(t.SuggestedTools, ", "), strings.Join(t.Keywords, ", ")})
		}
		tools.Render()
	}

	if len(r.Resources) > 0 {
		resources := table.NewWriter()
		resources.SetOutputMirror(out)
		resources.SetStyle(table.StyleLight)
		resources.AppendHeader(table.Row{"Resource", "Kind", "External", "Action"})
		for _, res := range r.Resources {
			resources.AppendRow(table.Row{res.Reference, res.Kind, res.RequiresExternalTool, res.SuggestedAction})
		}
		resources.Render()
	}

	if len(r.Actions) > 0 {
		actions := table.NewWriter()
		actions.SetOutputMirror(out)
		actions.SetStyle(table.StyleLight)
		actions.AppendHeader(table.Row{"Verb", "Category", "Occurrences", "Priority"})
		for _, a := range r.Actions {
			actions.AppendRow(table.Row{a.Verb, a.Category, a.Occurrences, a.Priority})
		}
		actions.Render()
	}
}
