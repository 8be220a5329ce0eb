package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/profile"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(22)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active configuration",
	Long: `Prints the configuration boostd would run with: the active
control profile, metrics endpoint, and supported platform hints.`,
	RunE: showStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func showStatus(cmd *cobra.Command, args []string) error {
	cfg, err := profile.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	p := cfg.Profile

	var b strings.Builder
	row := func(label string, format string, args ...any) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(fmt.Sprintf(format, args...)))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("profile %q", p.Name)))
	b.WriteString("\n")
	if p.PidOn {
		row("pid", "on")
		row("gains p (over/under)", "%.3f / %.3f", p.PidPo, p.PidPu)
		row("gain i (bounds)", "%.4f (%.1f .. %.1f)", p.PidI, p.PidILow, p.PidIHigh)
		row("gains d (over/under)", "%.1f / %.1f", p.PidDo, p.PidDu)
		row("windows p/i/d", "%d / %d / %d",
			p.SamplingWindowP, p.SamplingWindowI, p.SamplingWindowD)
	} else {
		b.WriteString(warnStyle.Render("pid controller disabled; reports pin the high clamp"))
		b.WriteString("\n")
	}
	row("uclamp.min", "low=%d high=%d init=%d (apply=%t)",
		p.UclampMinLow, p.UclampMinHigh, p.UclampMinInit, p.UclampMinOn)
	row("stale factor", "%.1f", p.StaleTimeFactor)
	row("target factor", "%.2f", p.TargetTimeFactor)

	b.WriteString(titleStyle.Render("daemon"))
	b.WriteString("\n")
	if cfg.Metrics.Enabled {
		row("metrics", "http://localhost:%d%s", cfg.Metrics.Port, cfg.Metrics.Path)
	} else {
		row("metrics", "disabled")
	}
	row("log level", "%s", cfg.Logging.Level)
	row("hints", "%s", strings.Join(cfg.Hints.Supported, ", "))

	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
