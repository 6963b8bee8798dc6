package main

import (
	"fmt"
	"io"

	"github.com/nao1215/humantouch/internal/hazard"
	"github.com/nao1215/humantouch/internal/replace"
	"github.com/spf13/cobra"
)

// NewTextCmd creates the text command.
func NewTextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Normalize text read from standard input",
		Long: `Text reads standard input, writes the normalized text to standard output
and reports hazards on standard error.

With --html the input is treated as markup: exclusion zones and the
attribute list from the configuration apply, as for 'humantouch run'.

Examples:
  # Clean up a paragraph
  echo "It’s done — finally…" | humantouch text

  # Normalize an HTML fragment
  humantouch text --html < fragment.html > clean.html`,
		Args: cobra.NoArgs,
		RunE: runTextCmd,
	}

	cmd.Flags().Bool("html", false, "Treat the input as HTML markup")
	cmd.Flags().BoolP("aggressive", "a", false,
		"Also apply rules that may change meaning (currency, math symbols)")
	cmd.Flags().StringSlice("disable-rule", nil,
		"Rules to switch off (see 'humantouch rules')")
	cmd.Flags().Bool("fail-on-hazards", false,
		"Exit with status 1 when invisible or bidirectional characters are found")

	return cmd
}

func runTextCmd(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("aggressive") {
		if cfg.Aggressive, err = flags.GetBool("aggressive"); err != nil {
			return err
		}
	}
	if flags.Changed("disable-rule") {
		if cfg.DisableRules, err = flags.GetStringSlice("disable-rule"); err != nil {
			return err
		}
	}
	if flags.Changed("fail-on-hazards") {
		if cfg.FailOnHazards, err = flags.GetBool("fail-on-hazards"); err != nil {
			return err
		}
	}
	asHTML, err := flags.GetBool("html")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var (
		output  string
		changes int
		hazards hazard.Report
	)
	if asHTML {
		normalizer, err := cfg.Normalizer()
		if err != nil {
			return err
		}
		res, err := normalizer.Normalize(string(input))
		if err != nil {
			return fmt.Errorf("normalize input: %w", err)
		}
		if res.Fallback != nil {
			logger.Warn("markup parse failed, using plain-text fallback", "error", res.Fallback)
		}
		output, changes, hazards = res.Markup, res.Changes, res.Hazards
	} else {
		engine := replace.NewEngine(replace.WithoutRules(cfg.DisableRules...))
		res, err := engine.Normalize(string(input), cfg.Aggressive)
		if err != nil {
			return fmt.Errorf("normalize input: %w", err)
		}
		output, changes, hazards = res.Text, res.Changes, res.Hazards
	}

	if _, err := io.WriteString(cmd.OutOrStdout(), output); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	for _, c := range hazard.Categories {
		if n := hazards.Get(c).Count; n > 0 {
			fmt.Fprintf(errOut, "hazard: %s: %d\n", c, n)
		}
	}
	logger.Debug("text normalized", "changes", changes, "hazards", hazards.Total())

	if n := hazards.Get(hazard.InvisibleBidi).Count; cfg.FailOnHazards && n > 0 {
		return fmt.Errorf("%w: %d invisible/bidi character(s) were found", errRunFailed, n)
	}
	return nil
}
