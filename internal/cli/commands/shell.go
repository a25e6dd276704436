package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/spf13/cobra"
)

const shellPrompt = "leapflow> "

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell over the flow explorer",
		Long: `Start an interactive shell that loads the flow graph once and lets you
switch modes, trace records and flows, click elements and inspect tooltips.

Every command is an intent applied to the interaction state; the shell
prints the resulting event.`,
		Example: `  leapflow shell --sample`,
		Args:    cobra.NoArgs,
		RunE:    runShell,
	}
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)
	ex, cleanup, err := cc.LoadExplorer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sh := newShell(ex, cc.Renderer, cmd.OutOrStdout())

	historyFile := filepath.Join(filepath.Dir(cc.Cfg.StatePath), "shell_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    sh.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	snap := ex.Snapshot()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "LeapFlow shell (%s, %d records, steps: %s)\n",
		snap.Config.Object, snap.Graph.RecordCount(), strings.Join(snap.Graph.Steps(), " → "))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		quit, err := sh.exec(ctx, line)
		if err != nil {
			cc.Renderer.Error(err.Error())
		}
		if quit {
			break
		}
	}
	return nil
}

// shell interprets one line at a time against an explorer.
type shell struct {
	ex  *explorer.Explorer
	r   *output.Renderer
	out io.Writer
}

func newShell(ex *explorer.Explorer, r *output.Renderer, out io.Writer) *shell {
	return &shell{ex: ex, r: r, out: out}
}

// exec runs one shell line. It reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch name {
	case ".quit", ".exit", "quit", "exit":
		return true, nil
	case ".help", "help":
		printShellHelp(s.out)
		return false, nil
	case "graph":
		return false, renderSnapshot(s.r, s.ex.Snapshot())
	case "state":
		return false, s.r.JSON(s.ex.Snapshot().State)
	case "insights":
		snap := s.ex.Snapshot()
		return false, renderInsights(s.r, InsightsOutput{
			Object:   snap.Config.Object,
			Metric:   string(snap.Config.MetricType),
			KPIs:     insights.Summarize(snap.Graph),
			TopPaths: insights.TopPaths(snap.Graph, snap.Config.MetricType, insights.DefaultTopPaths),
		})
	case "options":
		return false, s.options(args)
	case "tooltip":
		if len(args) != 1 {
			return false, errors.New("usage: tooltip <node-or-link-id>")
		}
		tip, err := s.ex.Tooltip(args[0])
		if err != nil {
			return false, err
		}
		s.printTooltip(tip.Title, tip.CountLine(), tip.SampleLine())
		return false, nil
	case "hover":
		if len(args) != 1 {
			return false, errors.New("usage: hover <node-id>")
		}
		h := s.ex.Hover(args[0])
		lit := 0
		for _, st := range h.Links {
			if st == selection.LinkHighlight {
				lit++
			}
		}
		_, _ = fmt.Fprintf(s.out, "%d links lit\n", lit)
		return false, nil
	case "metric":
		if len(args) != 1 {
			return false, errors.New("usage: metric count|amount")
		}
		m, err := core.ParseMetricType(args[0])
		if err != nil {
			return false, err
		}
		if err := s.ex.SetMetric(m); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(s.out, "metric %s\n", m)
		return false, nil
	case "reload":
		if err := s.ex.Reload(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(s.out, "reloaded")
		return false, nil
	}

	in, err := s.intent(name, rest, args)
	if err != nil {
		return false, err
	}
	ev, err := s.ex.Apply(in)
	if err != nil {
		return false, err
	}
	_, _ = fmt.Fprintln(s.out, interaction.Describe(ev))
	return false, nil
}

// intent maps a shell command onto an interaction intent.
func (s *shell) intent(name, rest string, args []string) (interaction.Intent, error) {
	switch name {
	case "mode":
		if len(args) != 1 {
			return nil, errors.New("usage: mode aggregate|record|flow")
		}
		m, err := parseShellMode(args[0])
		if err != nil {
			return nil, err
		}
		return interaction.SetModeIntent{Mode: m}, nil
	case "record":
		if len(args) > 1 {
			return nil, errors.New("usage: record [id]")
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return interaction.SelectRecordIntent{RecordID: id}, nil
	case "next":
		return interaction.TraceNextIntent{}, nil
	case "prev":
		return interaction.TracePrevIntent{}, nil
	case "restart":
		return interaction.TraceResetIntent{}, nil
	case "step":
		if len(args) != 1 {
			return nil, errors.New("usage: step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("step must be a number: %w", err)
		}
		return interaction.SelectFlowStepIntent{Step: n}, nil
	case "flow":
		step, value, ok := strings.Cut(rest, " ")
		if !ok {
			return nil, errors.New("usage: flow <step> <value|?>")
		}
		n, err := strconv.Atoi(step)
		if err != nil {
			return nil, fmt.Errorf("step must be a number: %w", err)
		}
		value = strings.TrimSpace(value)
		if value == "?" {
			return interaction.SelectFlowValueIntent{Step: n, Unknown: true}, nil
		}
		return interaction.SelectFlowValueIntent{Step: n, Value: value}, nil
	case "clear":
		return interaction.ClearFlowIntent{}, nil
	case "click":
		if len(args) != 1 {
			return nil, errors.New("usage: click <node-or-link-id>")
		}
		return interaction.ClickElementIntent{ID: args[0]}, nil
	case "open":
		if len(args) != 1 {
			return nil, errors.New("usage: open <record-id>")
		}
		return interaction.OpenRecordIntent{RecordID: args[0]}, nil
	case "reset":
		return interaction.ResetIntent{}, nil
	case "intent":
		var payload map[string]any
		if err := json.Unmarshal([]byte(rest), &payload); err != nil {
			return nil, fmt.Errorf("intent must be a JSON object: %w", err)
		}
		return interaction.DecodeIntent(payload)
	}
	return nil, fmt.Errorf("unknown command %q (type .help for commands)", name)
}

func parseShellMode(s string) (interaction.Mode, error) {
	switch strings.ToLower(s) {
	case "aggregate", "agg":
		return interaction.Aggregate, nil
	case "record", "record-trace":
		return interaction.RecordTrace, nil
	case "flow", "flow-trace":
		return interaction.FlowTrace, nil
	}
	return interaction.ParseMode(s)
}

func (s *shell) options(args []string) error {
	g := s.ex.Snapshot().Graph
	kind := "modes"
	if len(args) > 0 {
		kind = args[0]
	}
	var opts []insights.Option
	switch kind {
	case "modes":
		opts = insights.ModeOptions()
	case "records":
		opts = insights.RecordOptions(g)
	case "steps":
		opts = insights.StepOptions(g)
	case "values":
		if len(args) != 2 {
			return errors.New("usage: options values <step>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n >= g.StepCount() {
			return fmt.Errorf("step must be between 0 and %d", g.StepCount()-1)
		}
		opts = insights.FlowValueOptions(g, n)
	default:
		return errors.New("usage: options [modes|records|steps|values <step>]")
	}
	for _, o := range opts {
		value := o.Value
		if o.Unknown {
			value = "?"
		}
		_, _ = fmt.Fprintf(s.out, "  %-24s %s\n", value, o.Label)
	}
	return nil
}

func (s *shell) printTooltip(lines ...string) {
	for _, l := range lines {
		if l != "" {
			_, _ = fmt.Fprintln(s.out, l)
		}
	}
}

// completer completes commands, record ids and node ids.
func (s *shell) completer() *readline.PrefixCompleter {
	records := func(string) []string {
		g := s.ex.Snapshot().Graph
		ids := make([]string, 0, g.RecordCount())
		for _, r := range g.Records() {
			ids = append(ids, r.ID)
		}
		return ids
	}
	elements := func(string) []string {
		g := s.ex.Snapshot().Graph
		ids := make([]string, 0, len(g.Nodes())+len(g.Links()))
		for _, n := range g.Nodes() {
			ids = append(ids, n.ID)
		}
		for _, l := range g.Links() {
			ids = append(ids, l.ID)
		}
		return ids
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("mode",
			readline.PcItem("aggregate"),
			readline.PcItem("record"),
			readline.PcItem("flow"),
		),
		readline.PcItem("record", readline.PcItemDynamic(records)),
		readline.PcItem("open", readline.PcItemDynamic(records)),
		readline.PcItem("click", readline.PcItemDynamic(elements)),
		readline.PcItem("tooltip", readline.PcItemDynamic(elements)),
		readline.PcItem("hover", readline.PcItemDynamic(elements)),
		readline.PcItem("metric", readline.PcItem("count"), readline.PcItem("amount")),
		readline.PcItem("options",
			readline.PcItem("modes"),
			readline.PcItem("records"),
			readline.PcItem("steps"),
			readline.PcItem("values"),
		),
		readline.PcItem("next"),
		readline.PcItem("prev"),
		readline.PcItem("restart"),
		readline.PcItem("step"),
		readline.PcItem("flow"),
		readline.PcItem("clear"),
		readline.PcItem("reset"),
		readline.PcItem("intent"),
		readline.PcItem("graph"),
		readline.PcItem("insights"),
		readline.PcItem("state"),
		readline.PcItem("reload"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

func printShellHelp(w io.Writer) {
	help := `Commands:
  mode aggregate|record|flow   Switch interaction mode
  record [id]                  Trace a record (empty clears)
  next | prev | restart        Move the trace cursor
  step <n>                     Pick a flow step
  flow <step> <value|?>        Pick a flow step and value (? is Unknown)
  clear                        Clear the flow selection
  click <id>                   Toggle a node or link selection
  open <id>                    Open a record
  reset                        Back to the initial state
  intent <json>                Apply a raw intent, e.g. {"type":"trace_next"}
  metric count|amount          Switch the link metric
  graph | insights | state     Print the graph, KPIs, or the state
  options [kind]               List modes, records, steps, or values <step>
  tooltip <id> | hover <id>    Inspect a node or link
  reload                       Reload records from the source
  .help | .quit`
	_, _ = fmt.Fprintln(w, help)
}
