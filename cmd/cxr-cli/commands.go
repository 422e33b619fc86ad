package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cxr-learning/internal/render"
)

// kbCmd 知识库概览
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Show the chest radiograph knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		kb, err := src.Knowledge()
		if err != nil {
			return err
		}
		return printMarkdown(cmd.OutOrStdout(), render.KnowledgeMarkdown(kb))
	},
}

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List practice cases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		difficulty, _ := cmd.Flags().GetString("difficulty")
		category, _ := cmd.Flags().GetString("category")

		src, err := newSource()
		if err != nil {
			return err
		}
		cases, err := src.Cases(difficulty, category)
		if err != nil {
			return err
		}
		return printMarkdown(cmd.OutOrStdout(), render.CaseListMarkdown(cases))
	},
}

var caseCmd = &cobra.Command{
	Use:   "case <case_id>",
	Short: "Show one practice case",
	Long: `Show the history, clinical context and image description of a case.
Pass --reveal to also show the findings, diagnosis and teaching points.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reveal, _ := cmd.Flags().GetBool("reveal")

		src, err := newSource()
		if err != nil {
			return err
		}
		c, err := src.Case(args[0])
		if err != nil {
			return err
		}
		return printMarkdown(cmd.OutOrStdout(), render.CaseMarkdown(c, reveal))
	},
}

var ctrCmd = &cobra.Command{
	Use:   "ctr <cardiac_width> <thoracic_width>",
	Short: "Calculate the cardiothoracic ratio",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cardiac, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid cardiac width %q", args[0])
		}
		thoracic, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid thoracic width %q", args[1])
		}

		src, err := newSource()
		if err != nil {
			return err
		}
		m, err := src.CTR(cardiac, thoracic)
		if err != nil {
			return err
		}
		log.Debug("CTR calculated", zap.Float64("ctr", m.Ratio), zap.String("status", m.Status))

		out := cmd.OutOrStdout()
		if m.Interpretation == "" {
			fmt.Fprintf(out, "CTR: invalid (%s)\n", m.Status)
			return nil
		}
		fmt.Fprintf(out, "CTR: %.1f%% (%s)\n", m.Ratio, m.Interpretation)
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:     "match",
	Short:   "Score observed features against known radiographic patterns",
	Example: `  cxr-cli match -f linear_opacities -f interstitial_thickening -d basal`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		features, _ := cmd.Flags().GetStringSlice("feature")
		distribution, _ := cmd.Flags().GetString("distribution")
		if len(features) == 0 {
			return fmt.Errorf("at least one --feature is required")
		}

		src, err := newSource()
		if err != nil {
			return err
		}
		scores, err := src.Match(features, distribution)
		if err != nil {
			return err
		}
		return printMarkdown(cmd.OutOrStdout(), render.ScoresMarkdown(scores))
	},
}

var differentialCmd = &cobra.Command{
	Use:   "differential <pattern> <distribution>",
	Short: "Look up the differential diagnosis for a pattern and distribution",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		dx, err := src.Differential(args[0], args[1])
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "## Differential: %s, %s\n\n", args[0], args[1])
		for _, d := range dx {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		return printMarkdown(cmd.OutOrStdout(), b.String())
	},
}

var impressionCmd = &cobra.Command{
	Use:   "impression <text>",
	Short: "Record the clinical impression in the server session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		if err := src.SetImpression(strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Impression saved")
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the session report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		xlsxPath, _ := cmd.Flags().GetString("xlsx")

		src, err := newSource()
		if err != nil {
			return err
		}
		text, err := src.Report()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)

		if xlsxPath == "" {
			return nil
		}
		data, err := src.ExportReport()
		if err != nil {
			return err
		}
		if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", xlsxPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Workbook written to %s\n", xlsxPath)
		return nil
	},
}
