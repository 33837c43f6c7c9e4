package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/family"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/source"
)

// maxListedIDs bounds the ids shown per surname.
const maxListedIDs = 6

// familiesCommand creates the families command, which lists what a
// family document contains.
func (c *CLI) familiesCommand() *cobra.Command {
	var surnames bool

	cmd := &cobra.Command{
		Use:   "families family.json",
		Short: "List protocol keys and unconnected groups in a family document",
		Long: `List the protocol keys in a family document with the size of each family,
followed by the unconnected groups of people. With --surnames, people are
grouped by surname instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFamilies(cmd.Context(), args[0], surnames)
		},
	}
	cmd.Flags().BoolVar(&surnames, "surnames", false, "group people by surname")
	return cmd
}

func (c *CLI) runFamilies(ctx context.Context, path string, surnames bool) error {
	prog := newProgress(c.Logger)
	doc, err := kio.ImportPersons(path)
	if err != nil {
		return err
	}
	prog.done("read family document", "people", len(doc.People))

	idx := family.NewIndex(doc.People)
	if surnames {
		printTable([]string{"Surname", "People", "IDs"}, surnameRows(idx))
		return nil
	}

	rows, err := protocolRows(ctx, doc.People, c.cfg.SourceOptions())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		printInfo("No protocol keys in %s", path)
	} else {
		printTable([]string{"Protocol", "Root", "People", "Truncated"}, rows)
	}

	groups := idx.Groups()
	printNewline()
	printInfo("%s in %s", plural(len(groups), "group", "groups"), path)
	for i, g := range groups {
		p, _ := idx.Person(g[0])
		printDetail("%d. %s (%s)", i+1, p.Name, plural(len(g), "person", "people"))
	}
	return nil
}

// protocolRows expands the family of every protocol key in people.
func protocolRows(ctx context.Context, people []family.Person, opts source.Options) ([][]string, error) {
	src := source.NewMemorySource("file", people, opts)
	var rows [][]string
	for _, key := range src.ProtocolKeys() {
		fam, err := src.Family(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("family %s: %w", key, err)
		}
		truncated := ""
		if fam.Truncated {
			truncated = "yes"
		}
		rows = append(rows, []string{key, fam.RootID, strconv.Itoa(len(fam.People)), truncated})
	}
	return rows, nil
}

func surnameRows(idx *family.Index) [][]string {
	groups := family.Surnames(idx)
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.Surname, strconv.Itoa(len(g.IDs)), joinIDs(g.IDs, maxListedIDs)})
	}
	return rows
}

// joinIDs shortens long id lists for display.
func joinIDs(ids []string, limit int) string {
	if len(ids) <= limit {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:limit], ", ") + fmt.Sprintf(" +%d", len(ids)-limit)
}
