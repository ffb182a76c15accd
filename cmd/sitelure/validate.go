package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AthlureSolutions/sitelure/internal/content"
	"github.com/spf13/cobra"
)

var validateJSONOutput bool

// errInvalid signals a document that failed validation; violations are
// already printed.
var errInvalid = errors.New("document is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>",
	Short: "Validate a content document against the site schema",
	Long: `Validate a website content document and list every violation.
Use "-" to read the document from stdin. Exits non-zero when invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), content.ValidateJSON(data, content.SiteSchema()), validateJSONOutput)
	},
}

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a complete, valid content document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := content.Marshal(content.Example())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSONOutput, "json", false, "Print the result as JSON")
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func printResult(w io.Writer, res content.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if res.Valid {
		fmt.Fprintln(w, "valid")
	} else {
		fmt.Fprintf(w, "invalid: %d violation(s)\n", len(res.Violations))
		for _, v := range res.Violations {
			fmt.Fprintf(w, "  - %s\n", v)
		}
	}
	if !res.Valid {
		return errInvalid
	}
	return nil
}
