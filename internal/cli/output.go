package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oremus-labs/bigbooks-relay/internal/format"
	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	"github.com/oremus-labs/bigbooks-relay/internal/relay"
	"gopkg.in/yaml.v3"
)

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printYAML(w io.Writer, data interface{}) error {
	// round-trip through JSON so the json tags decide the keys
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func flushTable(tw *tabwriter.Writer) {
	_ = tw.Flush()
}

// render writes data in the selected output format. table is used for the
// default format.
func (a *app) render(data interface{}, table func(tw *tabwriter.Writer)) error {
	switch strings.ToLower(a.output) {
	case "json":
		return printJSON(a.stdout, data)
	case "yaml":
		return printYAML(a.stdout, data)
	case "table", "":
		tw := newTable(a.stdout)
		table(tw)
		flushTable(tw)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", a.output)
	}
}

// displayWithTime prints a timestamped progress line and mirrors it to the log.
func (a *app) displayWithTime(message string) {
	line := fmt.Sprintf("%s - %s", format.ClockMillis(time.Now()), message)
	fmt.Fprintln(a.stderr, line)
	logutil.Info(message, nil)
}

// envelopeError turns a failed envelope into a command error.
func envelopeError[T any](what string, env relay.Envelope[T]) error {
	if err := env.Err(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func orDash(s string) string {
	if format.IsBlank(s) {
		return "-"
	}
	return s
}

func rating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *r)
}
