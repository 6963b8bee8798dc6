package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	htlog "github.com/nao1215/humantouch/internal/log"
	"github.com/nao1215/humantouch/internal/replace"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewRulesCmd creates the rules command.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the replacement rules",
		Long: `Rules lists every replacement rule in application order. The safe tier
always runs; the aggressive tier only runs with --aggressive.

Rule names can be used with --disable-rule or in the disable_rules key of
the configuration file. Rules disabled by the configuration are marked.`,
		Args: cobra.NoArgs,
		RunE: runRulesCmd,
	}

	cmd.Flags().String("tier", "", "Only list one tier: safe or aggressive")
	cmd.Flags().BoolP("json", "j", false, "Output the rules in JSON format")

	return cmd
}

// ruleInfo is the listing form of a replace.Rule.
type ruleInfo struct {
	Name        string `json:"name"`
	Tier        string `json:"tier"`
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Enabled     bool   `json:"enabled"`
}

func describeRule(r replace.Rule, disabled []string) ruleInfo {
	replacement := strconv.Quote(r.Replacement)
	if r.ReplaceFunc != nil {
		replacement = "(computed)"
	}
	return ruleInfo{
		Name:        r.Name,
		Tier:        r.Tier.String(),
		Pattern:     r.Pattern.String(),
		Replacement: replacement,
		Enabled:     !slices.Contains(disabled, r.Name),
	}
}

func runRulesCmd(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	tier, err := cmd.Flags().GetString("tier")
	if err != nil {
		return err
	}
	var rules []replace.Rule
	switch tier {
	case "":
		rules = slices.Concat(replace.SafeRules(), replace.AggressiveRules())
	case replace.TierSafe.String():
		rules = replace.SafeRules()
	case replace.TierAggressive.String():
		rules = replace.AggressiveRules()
	default:
		return fmt.Errorf("unknown tier %q (expected safe or aggressive)", tier)
	}

	infos := make([]ruleInfo, len(rules))
	for i, r := range rules {
		infos[i] = describeRule(r, cfg.DisableRules)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("NAME", "TIER", "PATTERN", "REPLACEMENT", "ENABLED")
	for _, info := range infos {
		enabled := "yes"
		if !info.Enabled {
			enabled = "no"
		}
		if err := table.Append(info.Name, info.Tier, htlog.Escape(info.Pattern), htlog.Escape(info.Replacement), enabled); err != nil {
			return err
		}
	}
	return table.Render()
}
