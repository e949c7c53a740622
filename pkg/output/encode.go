package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/smith-xyz/pyhealth/pkg/models"
)

// Format selects how a report is written
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names
var Formats = []Format{FormatJSON, FormatYAML, FormatText, FormatMarkdown}

// ParseFormat converts a command-line format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if slices.Contains(Formats, f) {
		return f, nil
	}
	switch f {
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Write renders the report to out. Text and markdown are styled only when out
// is a terminal.
func Write(out io.Writer, report *models.Report, format Format) error {
	switch format {
	case FormatJSON:
		return EncodeJSON(out, report)
	case FormatYAML:
		return EncodeYAML(out, report)
	case FormatText:
		return NewTextRenderer(out).Render(report)
	case FormatMarkdown:
		width, tty := terminalWidth(out)
		return RenderMarkdown(out, report, tty, width)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// EncodeJSON writes the report as indented JSON.
func EncodeJSON(out io.Writer, report *models.Report) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return nil
}

// EncodeYAML writes the report as YAML. It goes through the JSON encoding so
// that field names, omitempty and key order match the JSON output.
func EncodeYAML(out io.Writer, report *models.Report) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		return fmt.Errorf("failed to convert report to YAML: %w", err)
	}
	blockStyle(&doc)

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode report as YAML: %w", err)
	}
	return encoder.Close()
}

// blockStyle clears the flow style JSON input leaves on every node.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func terminalWidth(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth, true
	}
	return width, true
}
