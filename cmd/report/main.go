package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelcm/marketing-intel/internal/ingest"
	"github.com/angelcm/marketing-intel/internal/models"
	"github.com/angelcm/marketing-intel/internal/pipeline"
	"github.com/angelcm/marketing-intel/internal/report"
)

type runConfig struct {
	Facebook string
	Google   string
	TikTok   string
	Sources  []string
	Business string
	From     string
	To       string
	Channels []string
	States   []string
	Table    string
	Policy   string
	Verbose  bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "report",
		Short: "Offline marketing performance reports",
	}
	root.AddCommand(newRunCmd(out, errOut))
	return root
}

func newRunCmd(out, errOut io.Writer) *cobra.Command {
	var cfg runConfig
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load channel and business extracts and print a report as JSON",
		Long: `Load one extract per marketing channel plus the business extract,
merge them by date and print either the full report or a single table.

Extra channels can be passed as --source name=path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, out, errOut)
		},
	}
	cmd.SilenceUsage = true
	f := cmd.Flags()
	f.SortFlags = false
	f.StringVar(&cfg.Facebook, "facebook", "", "facebook extract (path or URL)")
	f.StringVar(&cfg.Google, "google", "", "google extract (path or URL)")
	f.StringVar(&cfg.TikTok, "tiktok", "", "tiktok extract (path or URL)")
	f.StringArrayVar(&cfg.Sources, "source", nil, "additional channel as name=path, repeatable")
	f.StringVar(&cfg.Business, "business", "", "business extract (path or URL)")
	f.StringVar(&cfg.From, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&cfg.To, "to", "", "last day, YYYY-MM-DD")
	f.StringSliceVar(&cfg.Channels, "channel", nil, "only these channels")
	f.StringSliceVar(&cfg.States, "state", nil, "only these states")
	f.StringVar(&cfg.Table, "table", "", "print one table: "+strings.Join(report.Tables, "|"))
	f.StringVar(&cfg.Policy, "policy", string(ingest.PolicyClamp), "validation policy: clamp|strict")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log loader details to stderr")
	_ = cmd.MarkFlagRequired("business")
	return cmd
}

func (c runConfig) sourceSet() (ingest.SourceSet, error) {
	set := ingest.SourceSet{Business: ingest.Source{Name: "business", Location: c.Business}}
	for _, s := range []struct{ channel, loc string }{
		{"facebook", c.Facebook}, {"google", c.Google}, {"tiktok", c.TikTok},
	} {
		if s.loc != "" {
			set.Marketing = append(set.Marketing, ingest.Source{Name: s.channel, Channel: s.channel, Location: s.loc})
		}
	}
	for _, s := range c.Sources {
		name, loc, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" || loc == "" {
			return set, fmt.Errorf("bad --source %q, want name=path", s)
		}
		name = strings.TrimSpace(name)
		set.Marketing = append(set.Marketing, ingest.Source{Name: name, Channel: name, Location: loc})
	}
	return set, nil
}

func (c runConfig) filter() (models.Filter, error) {
	f := models.Filter{Channels: c.Channels, States: c.States}
	var err error
	if c.From != "" {
		if f.From, err = time.Parse("2006-01-02", c.From); err != nil {
			return f, fmt.Errorf("bad --from: %w", err)
		}
	}
	if c.To != "" {
		if f.To, err = time.Parse("2006-01-02", c.To); err != nil {
			return f, fmt.Errorf("bad --to: %w", err)
		}
	}
	return f, nil
}

func run(ctx context.Context, cfg runConfig, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	policy := ingest.Policy(strings.ToLower(cfg.Policy))
	if policy != ingest.PolicyClamp && policy != ingest.PolicyStrict {
		return fmt.Errorf("unknown policy %q", cfg.Policy)
	}
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	set, err := cfg.sourceSet()
	if err != nil {
		return err
	}
	f, err := cfg.filter()
	if err != nil {
		return err
	}
	loader := ingest.NewLoader(ingest.NewHTTPClient(30*time.Second), logger, policy)
	ds, err := loader.LoadDataset(ctx, set)
	if err != nil {
		return err
	}
	rep, err := pipeline.Run(ds, f)
	if err != nil {
		return err
	}
	if rep.Empty {
		logger.Warn("no marketing rows match the filter")
	}

	var v any = rep
	if cfg.Table != "" {
		if v, err = report.Select(rep, cfg.Table, report.Page{}); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
