package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/ecoflow/internal/engine"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the supported flow models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		formatModels(os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func formatModels(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MODEL\tROUTING\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "-----\t-------\t-----------")
	for _, key := range engine.Models() {
		kind, _ := engine.RouterKind(key)
		desc, _ := engine.Describe(key)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", key, kind, desc)
	}
	_ = w.Flush()
}
