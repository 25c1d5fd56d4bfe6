package main

import (
	"fmt"

	md "github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/depthscan/internal/signature"
)

// NewSignaturesCmd creates the signatures command.
func NewSignaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signatures",
		Short: "List the detection signatures",
		Long: `Signatures prints every detection signature as a Markdown table: its
name, whether it has a body pattern, whether a classifier is trained for it,
and its explanation.`,
		Args: cobra.NoArgs,
		RunE: runSignaturesCmd,
	}
}

func runSignaturesCmd(cmd *cobra.Command, _ []string) error {
	lib := signature.Default()
	rows := make([][]string, 0, lib.Len())
	for _, sig := range lib.All() {
		rows = append(rows, []string{
			sig.Name,
			yesNo(sig.Pattern != nil),
			yesNo(sig.Trainable()),
			sig.Explanation,
		})
	}

	doc := md.NewMarkdown(cmd.OutOrStdout())
	doc.Table(md.TableSet{
		Header: []string{"Signature", "Pattern", "Classifier", "Explanation"},
		Rows:   rows,
	})
	if err := doc.Build(); err != nil {
		return fmt.Errorf("failed to print signatures: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
