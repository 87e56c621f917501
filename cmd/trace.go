package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cottand/ivars/infer"
	"github.com/cottand/ivars/internal/log"
	"github.com/cottand/ivars/scenario"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var TraceCmd = &cobra.Command{
	Use:          "trace scenario.yaml...",
	Short:        "Run inference scenarios and print the bounds and merges they produce",
	RunE:         runTrace,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var traceStats *bool

var traceLogger = log.DefaultLogger.With("section", "trace")

func init() {
	traceStats = TraceCmd.Flags().BoolP("stats", "s", false, "print event counters after each scenario")
}

type traceOptions struct {
	stats bool
	// styles are nil when output is not colored
	mergeStyle, substStyle *lipgloss.Style
}

func runTrace(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	opts := traceOptions{stats: *traceStats}
	if useColor(config.GetString(cfgKeyColor), out) {
		r := lipgloss.NewRenderer(out)
		r.SetColorProfile(termenv.ANSI256)
		merge := r.NewStyle().Bold(true)
		subst := r.NewStyle().Faint(true)
		opts.mergeStyle, opts.substStyle = &merge, &subst
	}

	for i, path := range args {
		script, err := scenario.LoadFile(path)
		if err != nil {
			return fmt.Errorf("could not load scenario: %w", err)
		}
		if len(args) > 1 {
			if i > 0 {
				_, _ = fmt.Fprintln(out)
			}
			_, _ = fmt.Fprintf(out, "# %s\n", path)
		}
		if err := writeTrace(out, script, opts); err != nil {
			return fmt.Errorf("scenario %s failed: %w", path, err)
		}
	}
	return nil
}

// writeTrace runs script and prints one line per event, then the counters if
// requested. The events leading to a failure are printed before it is
// returned.
func writeTrace(w io.Writer, script *scenario.Script, opts traceOptions) error {
	reg := prometheus.NewRegistry()
	metrics := infer.NewMetrics(reg)
	res, runErr := scenario.Run(script, metrics, infer.LogListener{Logger: traceLogger})
	if res != nil {
		traceLogger.Info("scenario done", "session", res.Session.ID().String(), "events", res.Recorder.Len())
		for _, e := range res.Recorder.Events() {
			_, _ = fmt.Fprintln(w, opts.render(e))
		}
	}
	if opts.stats {
		if err := writeStats(w, reg); err != nil {
			return err
		}
	}
	return runErr
}

func (o traceOptions) render(e infer.Event) string {
	line := e.String()
	switch {
	case e.Kind == infer.EventMerged && o.mergeStyle != nil:
		return o.mergeStyle.Render(line)
	case e.IsSubstitution && o.substStyle != nil:
		return o.substStyle.Render(line)
	}
	return line
}

func writeStats(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("could not gather metrics: %w", err)
	}
	var lines []string
	for _, family := range families {
		for _, m := range family.GetMetric() {
			var labels []string
			for _, label := range m.GetLabel() {
				labels = append(labels, label.GetName()+"="+label.GetValue())
			}
			name := family.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
