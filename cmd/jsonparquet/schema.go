package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/jsonparquet/pkg/schema"
)

func newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with schema descriptions",
	}

	var resourceType string
	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse a schema description and print its columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseSchemaFile(resourceType, args[0])
			if err != nil {
				return err
			}
			return printSchema(cmd.OutOrStdout(), s)
		},
	}
	validate.Flags().StringVarP(&resourceType, "type", "t", "", "Resource type the schema describes (required)")
	_ = validate.MarkFlagRequired("type")

	var mode string
	diff := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show the column changes between two schema descriptions",
		Long: `Show the column changes between two schema descriptions and check them
against a compatibility mode (none, backward, forward, full).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			compat, err := schema.ParseCompatibilityMode(mode)
			if err != nil {
				return err
			}
			old, err := parseSchemaFile(resourceType, args[0])
			if err != nil {
				return err
			}
			next, err := parseSchemaFile(resourceType, args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			changes := schema.Diff(old, next)
			if len(changes) == 0 {
				fmt.Fprintln(out, "no changes")
			}
			for _, c := range changes {
				fmt.Fprintln(out, c)
			}
			if err := schema.CheckCompatibility(old, next, compat); err != nil {
				return err
			}
			fmt.Fprintf(out, "compatible (%s)\n", compat)
			return nil
		},
	}
	diff.Flags().StringVarP(&resourceType, "type", "t", "", "Resource type the schemas describe")
	diff.Flags().StringVar(&mode, "mode", string(schema.CompatibilityBackward), "Compatibility mode: none, backward, forward, full")

	cmd.AddCommand(validate, diff)
	return cmd
}

func parseSchemaFile(resourceType, path string) (*schema.Schema, error) {
	description, err := readSource(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if resourceType == "" {
		resourceType = "schema"
	}
	s, err := schema.Parse(resourceType, string(description))
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return s, nil
}

func printSchema(out io.Writer, s *schema.Schema) error {
	fmt.Fprintf(out, "%s (%d columns, fingerprint %s)\n", s.Name, len(s.Columns), s.Fingerprint())

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tTYPE\tNULLABLE")
	for _, c := range s.Columns {
		fmt.Fprintf(w, "%s\t%s\t%t\n", c.Name, c.Type, c.Nullable)
	}
	return w.Flush()
}
