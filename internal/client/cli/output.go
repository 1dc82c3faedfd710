package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Response - формат JSON вывода всех команд.
type Response struct {
	Data   any    `json:"data,omitempty"`
	Status string `json:"status"`
}

// Output пишет результат команды в выбранном формате.
type Output struct {
	Writer io.Writer
	Format string
}

func newOutput(cmd *cobra.Command, opts *RootOptions) *Output {
	return &Output{Writer: cmd.OutOrStdout(), Format: opts.Format}
}

// Print writes data as a JSON response, or runs text for the text format.
func (o *Output) Print(data any, text func(w io.Writer)) error {
	if o.Format == FormatJSON {
		enc := json.NewEncoder(o.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	text(o.Writer)
	return nil
}

// Textf prints only in text mode; JSON output stays a single document.
func (o *Output) Textf(format string, args ...any) {
	if o.Format == FormatText {
		fmt.Fprintf(o.Writer, format, args...)
	}
}
