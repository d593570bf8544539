package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkingspace/pkg/errors"
)

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <source>...",
		Short: "Check that diagrams parse and reference existing nodes",
		Long: `Validate diagram files, section directories or URLs.

A source fails when it does not parse or lacks one of the nodes,
connections and groups sections. Connections to missing nodes are reported
as warnings: they load, but are not drawn.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, src := range args {
				doc, err := c.loadDocument(cmd.Context(), src)
				if err != nil {
					failed++
					printError("%s", src)
					printDetail("%s: %s", errors.Title(errors.GetCode(err)), errors.UserMessage(err))
					continue
				}
				if err := doc.Validate(); err != nil {
					failed++
					printError("%s", src)
					printDetail("%s", errors.UserMessage(err))
					continue
				}
				printSuccess("%s", src)
				printDetail("%s", formatStats(doc.Stats()))
				for _, conn := range doc.DanglingConnections() {
					printWarning("connection %q references a missing node (%s → %s)", conn.ID, conn.From, conn.To)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources invalid", failed, len(args))
			}
			return nil
		},
	}
}
