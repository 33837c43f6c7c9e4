package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	errs "github.com/matzehuels/kintree/pkg/errors"
	kio "github.com/matzehuels/kintree/pkg/io"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate family.json",
		Short: "Check a family document for broken records and references",
		Long: `Check a family document. People without an id or name, duplicate ids, and
parent or spouse references to people not in the document are reported.

Layouts tolerate all of these: invalid people are skipped and broken
references are ignored. validate shows what would be dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := kio.ImportPersons(args[0])
			if err != nil {
				return err
			}
			problems := multierr.Errors(kio.Validate(doc))
			if len(problems) == 0 {
				printSuccess("%s: %s, no problems", args[0], plural(len(doc.People), "person", "people"))
				return nil
			}
			printError("%s: %s", args[0], plural(len(problems), "problem", "problems"))
			for _, p := range problems {
				printDetail("%s", errs.UserMessage(p))
			}
			return errs.New(errs.ErrCodeInvalidDocument, "%s has %d problems", args[0], len(problems))
		},
	}
}
