package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/jsonparquet/pkg/columnar"
	"github.com/ajitpratap0/jsonparquet/pkg/mmap"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <parquet file>",
		Short: "Print the row count, row groups and schema of a Parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := mmap.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			defer f.Close()

			info, err := columnar.Inspect(f.Bytes())
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d\n", info.Rows)
			fmt.Fprintf(out, "row groups: %d %v\n", info.RowGroups, info.RowGroupRows)
			fmt.Fprintf(out, "compression: %s\n", info.Compression)
			fmt.Fprintf(out, "created by: %s\n", info.CreatedBy)
			fmt.Fprintf(out, "schema:\n%s\n", info.Schema)
			return nil
		},
	}
}
