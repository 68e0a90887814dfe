package commands

import (
	"fmt"

	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/koyote-engine/koyote/platform/sdlwindow"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List GPU adapters and their suitability",
	Long: `Enumerate every adapter the Vulkan loader exposes and report how the
device selector ranks it. Rejected adapters show the first failed check.`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	window, err := sdlwindow.New(sdlwindow.Config{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	loader, err := window.Loader()
	if err != nil {
		return err
	}

	reports, err := gfx.ProbeDevices(loader, window, logging.Component("devices"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "No adapters found")
		return nil
	}
	for _, report := range reports {
		fmt.Fprintln(out, formatReport(report))
	}
	return nil
}

func formatReport(report gfx.DeviceReport) string {
	kind, rank := "unknown", "-"
	if report.Candidate != nil && report.Candidate.Properties != nil {
		kind = report.Candidate.Properties.Type.String()
		rank = fmt.Sprint(report.Candidate.Rank)
	}

	verdict := "suitable"
	if !report.Suitable {
		verdict = "rejected: " + report.Reason
	}
	return fmt.Sprintf("[%d] %-32s %-10s rank %-2s %s", report.Index, report.Name(), kind, rank, verdict)
}
