package commands

import (
	"fmt"
	"os"

	"github.com/kcalliga/rca-core/internal/incident"
	"github.com/kcalliga/rca-core/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportIncidentPath string
	reportOutPath      string
	reportPlain        bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render an incident JSON file as a human-readable Markdown report",
	Run:   runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportIncidentPath, "incident", "", "Path to an incident JSON file")
	reportCmd.Flags().StringVar(&reportOutPath, "out", "", "Write the rendered report to this path instead of stdout")
	reportCmd.Flags().BoolVar(&reportPlain, "plain", false, "Write raw Markdown instead of an ANSI-rendered terminal view")
	_ = reportCmd.MarkFlagRequired("incident")
}

func runReport(cmd *cobra.Command, args []string) {
	inc, err := incident.ReadFile(reportIncidentPath)
	if err != nil {
		HandleError(err, "Failed to read incident file")
	}

	var out string
	if reportPlain {
		out = report.ToMarkdown(inc)
	} else {
		rendered, err := report.Render(inc)
		if err != nil {
			HandleError(err, "Failed to render report")
		}
		out = rendered
	}

	if reportOutPath == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(reportOutPath, []byte(out), 0o644); err != nil {
		HandleError(err, "Failed to write report file")
	}
}
