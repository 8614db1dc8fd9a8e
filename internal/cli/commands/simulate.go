package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/pkg/core"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/leapstack-labs/paramgen/pkg/rules"
	"github.com/leapstack-labs/paramgen/pkg/synthrt"
	"github.com/spf13/cobra"
)

// DefaultGlideTicks is the number of ticks a smoothing parameter takes to
// reach a committed value in the simulator.
const DefaultGlideTicks = 8

// SimulateOptions holds options for the simulate command.
type SimulateOptions struct {
	Exec  []string // Commands to run instead of the REPL
	Glide int
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand() *cobra.Command {
	opts := &SimulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate [schema]",
		Short: "Drive a schema's runtime rules interactively",
		Long: `Start a REPL that runs the update rules of a compiled schema in process,
exactly as the generated code would: commit values, toggle the active
state, route modulation sources and advance control ticks.

Type 'help' inside the REPL for the command list.
With --exec the given commands run in order and the REPL is skipped.`,
		Example: `  # Interactive session
  paramgen simulate schemas/synth.xml

  # Scripted
  paramgen simulate -e "set synth.volume 0.25" -e "tick 8" -e params`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Exec, "exec", "e", nil, "Run a simulator command (repeatable)")
	cmd.Flags().IntVar(&opts.Glide, "glide", DefaultGlideTicks, "Ticks a smoothing parameter takes to reach its goal")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string, opts *SimulateOptions) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noHistory: true})
	if err != nil {
		return err
	}
	defer cleanup()

	file, err := pickSchema(cmdCtx.Engine, args)
	if err != nil {
		return err
	}
	res, err := cmdCtx.Engine.Load(cmd.Context(), file)
	if err != nil {
		return err
	}
	if err := emit.CheckDocument(res.Doc); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	// The simulator prints tables meant for a terminal, never JSON.
	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeText)
	}
	sim := newSimulator(res.Doc, r)
	sim.glide = opts.Glide

	if len(opts.Exec) > 0 {
		for _, line := range opts.Exec {
			quit, err := sim.exec(line)
			if err != nil {
				return fmt.Errorf("%s: %w", line, err)
			}
			if quit {
				break
			}
		}
		return nil
	}

	historyFile := ""
	if cmdCtx.Cfg.StatePath != "" {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "simulate_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "paramgen> ",
		HistoryFile:     historyFile,
		AutoComplete:    sim.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("Simulating %s (%s interface, %d params, %d sources)\n",
		res.Doc.Top.Name, res.Doc.Interface, len(res.Doc.Params), len(res.Doc.Sources))
	r.Println("Type help for commands, quit to exit")
	r.Println("")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		quit, err := sim.exec(line)
		if err != nil {
			r.Error(err.Error())
		}
		if quit {
			return nil
		}
	}
}

// simulator runs a rules.Machine against a StaticContext host.
type simulator struct {
	doc   *core.Document
	r     *output.Renderer
	m     *rules.Machine
	host  *synthrt.StaticContext
	glide int

	// published holds the last value each parameter binding received
	published map[string]float64
	// readings holds the host signal behind each source binding
	readings map[string]float64
}

func newSimulator(doc *core.Document, r *output.Renderer) *simulator {
	s := &simulator{doc: doc, r: r, glide: DefaultGlideTicks}
	s.reset()
	return s
}

// reset rebuilds the machine, so every parameter returns to its default
// and all routes and readings are dropped.
func (s *simulator) reset() {
	s.m = rules.NewMachine(s.doc)
	s.host = &synthrt.StaticContext{IsActive: true, Skip: make(map[int]bool)}
	s.published = make(map[string]float64)
	s.readings = make(map[string]float64)

	for _, p := range s.doc.Params {
		if p.Interface == "" {
			continue
		}
		binding := p.Interface
		s.m.Bind(binding, func(v float64) { s.published[binding] = v })
	}
	for _, src := range s.doc.Sources {
		if src.Interface == "" {
			continue
		}
		binding := src.Interface
		s.m.Input(binding, func() float64 { return s.readings[binding] })
	}
}

var simulatorCommands = []struct{ name, usage, help string }{
	{"help", "help", "Show this help message"},
	{"params", "params", "List parameters with their live values"},
	{"sources", "sources", "List sources with their signals"},
	{"show", "show <param>", "Show one parameter in detail"},
	{"set", "set <param> <value>", "Commit a value"},
	{"active", "active on|off", "Set whether the host is active"},
	{"glide", "glide <ticks>", "Ticks for smoothing to reach a committed value"},
	{"tick", "tick [n]", "Run n control ticks (default 1)"},
	{"source", "source <source> <x>", "Set a source reading (normalized for bidirectional sources)"},
	{"route", "route <param> <source> <amount>", "Modulate a parameter by a source"},
	{"unroute", "unroute <param>", "Remove every modulation of a parameter"},
	{"skip", "skip <param> on|off", "Mark a parameter as not necessary on ticks"},
	{"published", "published", "Show the last value each binding received"},
	{"reset", "reset", "Return to defaults and drop routes"},
	{"quit", "quit", "Exit the simulator"},
}

// exec runs one simulator command line. It reports whether the session
// should end.
func (s *simulator) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", ".quit", ".exit":
		return true, nil
	case "help", ".help":
		s.help()
	case "params":
		s.params()
	case "sources":
		s.sources()
	case "published":
		s.showPublished()
	case "reset":
		s.reset()
		s.r.Println("reset to defaults")
	case "show":
		if len(args) != 1 {
			return false, usageError("show")
		}
		p, err := s.lookupParam(args[0])
		if err != nil {
			return false, err
		}
		s.show(p)
	case "set":
		if len(args) != 2 {
			return false, usageError("set")
		}
		return false, s.set(args[0], args[1])
	case "active":
		if len(args) != 1 {
			return false, usageError("active")
		}
		on, err := parseOnOff(args[0])
		if err != nil {
			return false, err
		}
		s.host.IsActive = on
		s.r.Printf("active = %t\n", on)
	case "glide":
		if len(args) != 1 {
			return false, usageError("glide")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid tick count %q", args[0])
		}
		s.glide = n
	case "tick":
		n := 1
		if len(args) > 0 {
			var err error
			if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
				return false, fmt.Errorf("invalid tick count %q", args[0])
			}
		}
		s.tick(n)
	case "source":
		if len(args) != 2 {
			return false, usageError("source")
		}
		return false, s.setSource(args[0], args[1])
	case "route":
		if len(args) != 3 {
			return false, usageError("route")
		}
		return false, s.route(args[0], args[1], args[2])
	case "unroute":
		if len(args) != 1 {
			return false, usageError("unroute")
		}
		p, err := s.lookupParam(args[0])
		if err != nil {
			return false, err
		}
		s.host.Unroute(p.ID)
	case "skip":
		if len(args) != 2 {
			return false, usageError("skip")
		}
		p, err := s.lookupParam(args[0])
		if err != nil {
			return false, err
		}
		on, err := parseOnOff(args[1])
		if err != nil {
			return false, err
		}
		s.host.Skip[p.ID] = on
	default:
		return false, fmt.Errorf("unknown command %q (type help for commands)", cmd)
	}
	return false, nil
}

func (s *simulator) help() {
	s.r.Println("Commands:")
	for _, c := range simulatorCommands {
		s.r.Printf("  %-34s %s\n", c.usage, c.help)
	}
	s.r.Println("")
	s.r.Println("Parameters and sources are named by id or by path; a unique path suffix is enough.")
}

func (s *simulator) set(name, value string) error {
	p, err := s.lookupParam(name)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", value)
	}
	if err := s.m.SetParameterValue(s.host, p.ID, v); err != nil {
		return err
	}
	live, _ := s.m.Param(p.ID)
	if live.Changing {
		live.Glide(s.glide)
	}
	s.r.Printf("%s = %s (%s)\n", p.Path, fmtFloat(v), live.State())
	return nil
}

func (s *simulator) tick(n int) {
	for range n {
		s.m.Update(s.host)
		for _, p := range s.m.Params() {
			p.Settle()
		}
	}
	smoothing := 0
	for _, p := range s.m.Params() {
		if p.State() == synthrt.Smoothing {
			smoothing++
		}
	}
	s.r.Printf("ticked %d, %d parameter(s) still smoothing\n", n, smoothing)
}

func (s *simulator) setSource(name, value string) error {
	src, err := s.lookupSource(name)
	if err != nil {
		return err
	}
	x, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid reading %q", value)
	}
	// Bound sources are read by the next tick; unbound ones are set directly.
	if src.Interface != "" && s.doc.Interface == core.InterfaceModulation {
		s.readings[src.Interface] = x
		return nil
	}
	live, err := s.m.Source(src.ID)
	if err != nil {
		return err
	}
	live.Set(x)
	return nil
}

func (s *simulator) route(param, source, amount string) error {
	p, err := s.lookupParam(param)
	if err != nil {
		return err
	}
	src, err := s.lookupSource(source)
	if err != nil {
		return err
	}
	a, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", amount)
	}
	live, err := s.m.Source(src.ID)
	if err != nil {
		return err
	}
	s.host.Route(p.ID, live, a)
	return nil
}

func (s *simulator) params() {
	rows := make([][]string, 0, len(s.doc.Params))
	for _, p := range s.doc.Params {
		live, _ := s.m.Param(p.ID)
		rows = append(rows, []string{
			strconv.Itoa(p.ID), p.Path,
			fmtFloat(live.Value), fmtFloat(live.Goal), fmtFloat(live.Access),
			live.State().String(),
		})
	}
	s.r.Table([]string{"ID", "Path", "Value", "Goal", "Access", "State"}, rows)
}

func (s *simulator) sources() {
	rows := make([][]string, 0, len(s.doc.Sources))
	for _, src := range s.doc.Sources {
		live, _ := s.m.Source(src.ID)
		rows = append(rows, []string{
			strconv.Itoa(src.ID), src.Path, sourceRange(src),
			fmtFloat(live.Value), fmtFloat(live.Normalized),
		})
	}
	s.r.Table([]string{"ID", "Path", "Range", "Value", "Normalized"}, rows)
}

func (s *simulator) show(p *core.Parameter) {
	live, _ := s.m.Param(p.ID)
	kv := [][2]string{
		{"id", strconv.Itoa(p.ID)},
		{"path", p.Path},
		{"name", p.Name},
		{"default", p.Default},
		{"steps", p.Steps},
		{"smoothing", strconv.FormatBool(p.Smoothing())},
		{"modulatable", strconv.FormatBool(p.Modulatable)},
		{"binding", p.Interface},
		{"value", fmtFloat(live.Value)},
		{"goal", fmtFloat(live.Goal)},
		{"increment", fmtFloat(live.Increment)},
		{"access", fmtFloat(live.Access)},
		{"state", live.State().String()},
	}
	for _, m := range s.host.Modulations(p.ID) {
		kv = append(kv, [2]string{"route", fmt.Sprintf("%s x %s", s.doc.Sources[m.Source.ID].Path, fmtFloat(m.Amount))})
	}
	for _, e := range kv {
		s.r.Printf("  %-12s %s\n", e[0], e[1])
	}
}

func (s *simulator) showPublished() {
	if len(s.published) == 0 {
		s.r.Println("nothing published yet")
		return
	}
	keys := make([]string, 0, len(s.published))
	for k := range s.published {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.r.Printf("  %s <- %s\n", k, fmtFloat(s.published[k]))
	}
}

// lookupParam resolves an id, a full path or a unique path suffix.
func (s *simulator) lookupParam(name string) (*core.Parameter, error) {
	if id, err := strconv.Atoi(name); err == nil {
		if p := s.doc.Param(id); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("%w: %d", rules.ErrUnknownParam, id)
	}
	paths := make([]string, len(s.doc.Params))
	for i, p := range s.doc.Params {
		paths[i] = p.Path
	}
	i, err := matchPath(paths, name)
	if err != nil {
		return nil, fmt.Errorf("parameter %w", err)
	}
	return s.doc.Params[i], nil
}

func (s *simulator) lookupSource(name string) (*core.Source, error) {
	if id, err := strconv.Atoi(name); err == nil {
		if src := s.doc.Source(id); src != nil {
			return src, nil
		}
		return nil, fmt.Errorf("%w: %d", rules.ErrUnknownSource, id)
	}
	paths := make([]string, len(s.doc.Sources))
	for i, src := range s.doc.Sources {
		paths[i] = src.Path
	}
	i, err := matchPath(paths, name)
	if err != nil {
		return nil, fmt.Errorf("source %w", err)
	}
	return s.doc.Sources[i], nil
}

// matchPath finds name among paths, exactly or as the only path ending in
// "."+name.
func matchPath(paths []string, name string) (int, error) {
	found := -1
	for i, p := range paths {
		if p == name {
			return i, nil
		}
		if strings.HasSuffix(p, "."+name) {
			if found >= 0 {
				return -1, fmt.Errorf("%q is ambiguous (%s, %s)", name, paths[found], p)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%q not found", name)
	}
	return found, nil
}

func (s *simulator) completer() *readline.PrefixCompleter {
	params := make([]readline.PrefixCompleterInterface, 0, len(s.doc.Params))
	for _, p := range s.doc.Params {
		params = append(params, readline.PcItem(p.Path))
	}
	sources := make([]readline.PrefixCompleterInterface, 0, len(s.doc.Sources))
	for _, src := range s.doc.Sources {
		sources = append(sources, readline.PcItem(src.Path))
	}

	var items []readline.PrefixCompleterInterface
	for _, c := range simulatorCommands {
		switch c.name {
		case "set", "show", "unroute", "skip":
			items = append(items, readline.PcItem(c.name, params...))
		case "route":
			routes := make([]readline.PrefixCompleterInterface, 0, len(s.doc.Params))
			for _, p := range s.doc.Params {
				routes = append(routes, readline.PcItem(p.Path, sources...))
			}
			items = append(items, readline.PcItem(c.name, routes...))
		case "source":
			items = append(items, readline.PcItem(c.name, sources...))
		case "active":
			items = append(items, readline.PcItem(c.name, readline.PcItem("on"), readline.PcItem("off")))
		default:
			items = append(items, readline.PcItem(c.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

func usageError(name string) error {
	for _, c := range simulatorCommands {
		if c.name == name {
			return fmt.Errorf("usage: %s", c.usage)
		}
	}
	return fmt.Errorf("usage: %s", name)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
