package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cxr-learning/internal/client"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/logger"
)

var (
	// Global flags
	serverURL string
	sessionID string
	kbFile    string
	raw       bool
	verbose   bool
	wordWrap  int

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cxr-cli",
	Short: "Chest radiograph interpretation study tool",
	Long: `cxr-cli browses the teaching knowledge base and practice cases,
and runs the measurement and pattern tools from the terminal.

Without --server every command works offline against the embedded knowledge base.
With --server (or CXR_SERVER) commands go through a running cxr-learning API,
so measurements and impressions land in that session's report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		l, err := logger.NewLogger(level, "console", "cxr-cli")
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", os.Getenv("CXR_SERVER"), "cxr-learning base URL (or set CXR_SERVER env)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", os.Getenv("CXR_SESSION"), "Reuse an existing session id (or set CXR_SESSION env)")
	rootCmd.PersistentFlags().StringVar(&kbFile, "kb", os.Getenv("KNOWLEDGE_FILE"), "Knowledge base JSON for offline mode (default: embedded)")
	rootCmd.PersistentFlags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().IntVar(&wordWrap, "width", 100, "Word wrap width for rendered output")

	casesCmd.Flags().String("difficulty", "", "beginner | intermediate | advanced")
	casesCmd.Flags().String("category", "", "Case category, e.g. \"Pleural Disease\"")
	caseCmd.Flags().Bool("reveal", false, "Show diagnosis and teaching points")
	matchCmd.Flags().StringSliceP("feature", "f", nil, "Observed feature (repeatable)")
	matchCmd.Flags().StringP("distribution", "d", "", "Observed distribution")
	reportCmd.Flags().String("xlsx", "", "Also export the report workbook to this path")

	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(ctrCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(differentialCmd)
	rootCmd.AddCommand(impressionCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newSource 有 --server 时走 API，否则离线使用知识库
func newSource() (source, error) {
	if serverURL != "" {
		c := client.NewClient(serverURL, log)
		if sessionID != "" {
			c.SetSessionID(sessionID)
		}
		return &remoteSource{c: c}, nil
	}
	kb, err := knowledge.LoadFile(kbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	return newLocalSource(kb), nil
}

// printMarkdown 终端渲染；--raw 时原样输出
func printMarkdown(w io.Writer, md string) error {
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
