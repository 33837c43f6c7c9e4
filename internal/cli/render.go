package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// renderCommand creates the render command, the full load → layout →
// render pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags    treeFlags
		output   string
		protocol string
		noCache  bool
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "render [family.json]",
		Short: "Draw a family tree as SVG, PNG, JSON or DOT",
		Long: `Draw a family tree.

With a family document, every person in it is laid out, or only the family
of --protocol. Without one, --protocol is looked up in the source from the
settings file.

Output goes to --output for a single format. With several formats --output
is a base path and each format gets its extension. Without --output files
are named after the protocol key or document.`,
		Example: `  kintree render family.json
  kintree render family.json --focus 17 -f svg,png
  kintree render --protocol P-1887-12 --view network -f svg
  kintree render family.json --scope connected --locale pl -o tree.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, &flags)
			opts.ProtocolKey = protocol
			opts.Refresh = refresh
			if len(args) == 1 {
				opts.Input = args[0]
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&protocol, "protocol", "p", "", "protocol key of the family to draw")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the family from the source, bypassing the cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.openRunner(ctx, opts, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Laying out family...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, output, opts.Label())
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", opts.Label())
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.People, result.Stats.Generations, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	if result.Family.Truncated {
		printWarning("family truncated at %d people", result.Stats.People)
	}
	if d := result.Layout.Diagnostics; !d.Converged {
		printWarning("generation numbering did not settle after %d passes", d.Passes)
	}
	if result.Layout.Diagnostics.UnresolvedFocus {
		printWarning("focus %s is not in the family; drawn from the oldest ancestors", opts.Focus)
	}
	return nil
}

// openRunner opens the configured source only when opts needs it.
func (c *CLI) openRunner(ctx context.Context, opts pipeline.Options, noCache bool) (*pipeline.Runner, error) {
	if opts.Input != "" {
		return c.newRunner(ctx, noCache, nil)
	}
	src, err := c.newSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if err := requireSource(src); err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, noCache, src)
	if err != nil {
		src.Close()
		return nil, err
	}
	return runner, nil
}

// writeArtifacts writes one file per format and returns the paths in
// format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, label string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := artifactPath(format, len(formats), output, label)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func artifactPath(format string, count int, output, label string) string {
	switch {
	case output == "":
		return kio.FileName(label, format)
	case count == 1:
		return output
	default:
		return strings.TrimSuffix(output, filepath.Ext(output)) + "." + format
	}
}
