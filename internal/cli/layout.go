package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/render/sink"
)

// maxRowNames bounds the names listed per generation in the summary table.
const maxRowNames = 4

// layoutCommand creates the layout command, which computes generation rows
// without drawing them.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags    treeFlags
		output   string
		protocol string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "layout [family.json]",
		Short: "Compute generation rows and print them",
		Long: `Compute the layout of a family and print one line per generation.

With --output the layout is also written as JSON (the same document as
'render -f json'), for front ends that draw boxes and connectors themselves.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, &flags)
			opts.ProtocolKey = protocol
			if len(args) == 1 {
				opts.Input = args[0]
			}
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the layout as JSON")
	cmd.Flags().StringVarP(&protocol, "protocol", "p", "", "protocol key of the family to lay out")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.openRunner(ctx, opts, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	fam, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("loaded family", "people", len(fam.People))

	res, hit, err := runner.ComputeLayoutWithCacheInfo(ctx, fam.People, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	printTable([]string{"Gen", "People", "Width", "Names"}, rowSummary(res))
	printStats(len(res.Nodes), res.Generations(), hit)

	if output == "" {
		printNewline()
		printNextStep("Draw it", "kintree render "+strings.Join(renderArgs(opts), " "))
		return nil
	}
	data, err := sink.RenderJSON(res, sink.WithJSONSource(opts.Label()))
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printFile(output)
	return nil
}

// rowSummary lists each generation with its head count, drawn width and
// first few names. The focus person is starred.
func rowSummary(res layout.Result) [][]string {
	rows := res.Rows()
	out := make([][]string, 0, len(rows))
	for gen, row := range rows {
		if len(row) == 0 {
			continue
		}
		names := make([]string, 0, min(len(row), maxRowNames))
		for _, n := range row[:min(len(row), maxRowNames)] {
			name := n.Person.Name
			if n.IsFocus {
				name += "*"
			}
			names = append(names, name)
		}
		if extra := len(row) - maxRowNames; extra > 0 {
			names = append(names, fmt.Sprintf("+%d", extra))
		}
		last := row[len(row)-1]
		width := last.Right() - row[0].X
		out = append(out, []string{
			strconv.Itoa(gen),
			strconv.Itoa(len(row)),
			strconv.FormatFloat(width, 'f', 0, 64),
			strings.Join(names, ", "),
		})
	}
	return out
}

func renderArgs(opts pipeline.Options) []string {
	var args []string
	if opts.Input != "" {
		args = append(args, opts.Input)
	}
	if opts.ProtocolKey != "" {
		args = append(args, "--protocol", opts.ProtocolKey)
	}
	if opts.Focus != "" {
		args = append(args, "--focus", opts.Focus)
	}
	return args
}
