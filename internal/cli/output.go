package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"frizo/collateral_engine/internal/fixed"
)

const places = 4

// render writes v as JSON or YAML, or calls text for the table format.
func render(w io.Writer, format string, v interface{}, text func(w io.Writer) error) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if err := text(tw); err != nil {
			return err
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (supported: text, json, yaml)", format)
	}
}

func amount(f fixed.I80F48) string {
	return f.StringFixed(places)
}
