package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cyp0633/librecur/describe"
	"github.com/cyp0633/librecur/internal/xcal"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
	"github.com/cyp0633/librecur/storage/memory"
	"github.com/emersion/go-ical"
	"gopkg.in/yaml.v3"
)

const (
	defaultWindow = 90 * 24 * time.Hour
	dateLayout    = "2006-01-02"
)

// config is the optional YAML file passed with -config
type config struct {
	LogLevel string                  `yaml:"log_level"`
	Engine   recurrence.EngineConfig `yaml:"engine"`
}

func defaultConfig() config {
	return config{LogLevel: "info", Engine: recurrence.DefaultEngineConfig}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// options selects what run prints
type options struct {
	setID  string
	from   time.Time
	to     time.Time
	short  bool
	format string
}

func main() {
	file := flag.String("file", "", "YAML recurrence set to load (required)")
	configPath := flag.String("config", "", "optional YAML engine configuration")
	from := flag.String("from", "", "first day of the listing, YYYY-MM-DD (default: today)")
	to := flag.String("to", "", "last day of the listing, YYYY-MM-DD (default: from + 90 days)")
	short := flag.Bool("short", false, "use abbreviated labels in rule descriptions")
	format := flag.String("format", "text", "output format: text, ical or xcal")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)

	if err := execute(logger, cfg, *file, *from, *to, *short, *format); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func execute(logger *slog.Logger, cfg config, file, from, to string, short bool, format string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	set, err := recurrence.LoadRecurrenceSet(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store := memory.New(memory.WithLogger(logger))
	if err := store.CreateRecurrence(ctx, set); err != nil {
		return err
	}

	opts := options{setID: set.ID, short: short, format: format}
	if opts.from, opts.to, err = parseWindow(from, to, time.Now()); err != nil {
		return err
	}

	engine := recurrence.NewEngineWithConfig(cfg.Engine, recurrence.WithLogger(logger))
	return run(ctx, os.Stdout, store, engine, opts)
}

// parseWindow resolves the listing window. The end date is inclusive.
func parseWindow(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if from != "" {
		d, err := recurrence.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	}
	end := start.Add(defaultWindow)
	if to != "" {
		d, err := recurrence.ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, time.UTC)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %s is before start %s",
			end.Format(dateLayout), start.Format(dateLayout))
	}
	return start, end, nil
}

// run reads the set back from store and prints it in the requested format.
func run(ctx context.Context, w io.Writer, store storage.Storage, engine *recurrence.Engine, opts options) error {
	set, err := store.GetRecurrence(ctx, opts.setID)
	if err != nil {
		return fmt.Errorf("failed to load recurrence %q: %w", opts.setID, err)
	}

	switch opts.format {
	case "ical":
		cal, err := recurrence.ToCalendar(set, time.Now())
		if err != nil {
			return err
		}
		return ical.NewEncoder(w).Encode(cal)
	case "xcal":
		cal, err := recurrence.ToCalendar(set, time.Now())
		if err != nil {
			return err
		}
		return xcal.Write(w, cal)
	case "text", "":
		return printText(w, set, engine, opts)
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func printText(w io.Writer, set *recurrence.RecurrenceSet, engine *recurrence.Engine, opts options) error {
	if err := recurrence.ValidateSet(set); err != nil {
		var setErr *recurrence.SetError
		if errors.As(err, &setErr) {
			for _, rule := range setErr.Rules {
				fmt.Fprintf(w, "rule %d (%s) is invalid:\n", rule.Index, rule.RuleID)
				for _, v := range rule.Violations {
					fmt.Fprintf(w, "  - %s\n", v)
				}
			}
		}
		return err
	}

	loc, err := set.Location()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, set)
	for _, spec := range set.Rules {
		rule, err := recurrence.CompileIn(spec, loc)
		if err != nil {
			return err
		}
		verb := "include"
		if rule.Exclude() {
			verb = "exclude"
		}
		fmt.Fprintf(w, "%s: %s\n", verb, describe.Render(rule, opts.short))
	}
	for _, rdate := range set.RDates {
		fmt.Fprintln(w, rdate)
	}

	from := time.Date(opts.from.Year(), opts.from.Month(), opts.from.Day(), 0, 0, 0, 0, loc)
	to := time.Date(opts.to.Year(), opts.to.Month(), opts.to.Day(), 23, 59, 59, 0, loc)
	occurrences, err := engine.Expand(set, from, to)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "occurrences %s to %s:\n", from.Format(dateLayout), to.Format(dateLayout))
	for _, occ := range occurrences {
		fmt.Fprintf(w, "  %s\n", occ.Format("Mon 02 Jan 2006 15:04 MST"))
	}
	return nil
}
