package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"railviz/internal/codec"
	"railviz/internal/domain"
	"railviz/internal/repository/sqlite"
	"railviz/internal/service"
	"railviz/internal/session"
	"railviz/internal/toggle"
	"railviz/internal/ui"
)

type renderOptions struct {
	output       string
	format       string
	width        float64
	height       float64
	seed         int64
	edgeLabels   bool
	pointLabels  bool
	signalLabels bool
	trackColors  bool
	quiet        bool
}

func renderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <graph>",
		Short: "Render a graph file to SVG",
		Long: "Render a JSON or YAML graph payload to SVG, running the layout\n" +
			"to convergence. Use - to read the payload from stdin.",
		Example: "  railviz render station.json -o station.svg --point-labels\n" +
			"  cat station.yaml | railviz render - --format yaml > station.svg",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("width") {
				cfg.Canvas.Width = opts.width
			}
			if cmd.Flags().Changed("height") {
				cfg.Canvas.Height = opts.height
			}
			if cmd.Flags().Changed("seed") {
				cfg.Layout.Seed = opts.seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if opts.edgeLabels && (opts.pointLabels || opts.signalLabels) {
				return errors.New("--edge-labels cannot be combined with --point-labels or --signal-labels")
			}

			sc := sessionConfig(cfg)
			// Offline renders run as fast as the scheduler allows
			sc.Layout.TickInterval = 0

			return runRender(cmd.Context(), cmd, args[0], sc, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output SVG file (default: stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Payload format: json or yaml (default: from file extension)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "Canvas width")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "Canvas height")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Layout jiggle seed")
	cmd.Flags().BoolVar(&opts.edgeLabels, "edge-labels", false, "Show edge labels")
	cmd.Flags().BoolVar(&opts.pointLabels, "point-labels", false, "Show point labels")
	cmd.Flags().BoolVar(&opts.signalLabels, "signal-labels", false, "Show signal labels")
	cmd.Flags().BoolVar(&opts.trackColors, "track-colors", false, "Colour tracks by type")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress the summary")
	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, path string, sc session.Config, opts renderOptions) error {
	graph, err := readGraph(cmd.InOrStdin(), path, opts.format)
	if err != nil {
		return err
	}

	repo, err := sqlite.New(":memory:")
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer repo.Close()

	svc := service.NewRenderService(repo, sc, service.NewEventBus(), nil)
	defer svc.Close()

	st, err := svc.Create(ctx, path, graph)
	if err != nil {
		return err
	}
	if err := svc.Wait(st.ID); err != nil {
		return err
	}

	toggles := []struct {
		name toggle.Name
		on   bool
	}{
		{toggle.EdgeLabels, opts.edgeLabels},
		{toggle.PointLabels, opts.pointLabels},
		{toggle.SignalLabels, opts.signalLabels},
		{toggle.TrackColors, opts.trackColors},
	}
	for _, t := range toggles {
		if !t.on {
			continue
		}
		if _, err := svc.SetToggle(st.ID, string(t.name), true); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := svc.WriteSVG(st.ID, &buf); err != nil {
		return err
	}

	if opts.output == "" {
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return err
		}
	} else if err := os.WriteFile(opts.output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}

	if !opts.quiet {
		final, err := svc.Get(st.ID)
		if err != nil {
			return err
		}
		printSummary(cmd.ErrOrStderr(), graph, final.Tick, final.Converged, opts.output)
	}
	return nil
}

// readGraph decodes a payload from a file, or stdin for "-"
func readGraph(stdin io.Reader, path, format string) (*domain.Graph, error) {
	var c codec.Codec
	if format != "" {
		var err error
		if c, err = codec.ForFormat(format); err != nil {
			return nil, err
		}
	} else {
		c = codec.ForPath(path)
	}

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open graph file: %w", err)
		}
		defer f.Close()
		r = f
	}

	graph, err := c.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return graph, nil
}

func printSummary(w io.Writer, graph *domain.Graph, ticks int, converged bool, output string) {
	ui.Banner(w, "render")

	counts := graph.CountByType()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	rows := make([][]string, 0, len(types)+1)
	for _, t := range types {
		rows = append(rows, []string{t, strconv.Itoa(counts[domain.NodeType(t)])})
	}
	rows = append(rows, []string{"Edges", strconv.Itoa(len(graph.Edges))})
	ui.Table(w, []string{"Element", "Count"}, rows)
	fmt.Fprintln(w)

	ui.Field(w, "Ticks", ticks)
	ui.Field(w, "Converged", ui.StatusIcon(converged))
	if !converged {
		ui.Warn.Fprintln(w, "  layout stopped at the iteration cap; raise layout.max_iterations for a settled render")
	}
	if output != "" {
		ui.Field(w, "Output", output)
	}
}
