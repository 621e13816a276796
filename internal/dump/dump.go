// Package dump implements spec.md §6's witness trace dumpers: plain
// text, JSON, XML, and YAML renderings of a built witness.Witness,
// plus a run-id minting helper so two dumps of the same model are
// distinguishable in logs. Grounded on the teacher's
// internal/errors/json_encoder.go (a tagged, JSON-marshalled report
// struct) for the JSON/YAML shape, generalized to the three other
// formats spec.md §6 additionally requires.
package dump

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/witness"
)

// Format is one of the four witness trace-dump formats spec.md §6 names.
type Format int

const (
	FormatPlain Format = iota
	FormatJSON
	FormatXML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	case FormatYAML:
		return "yaml"
	default:
		return "plain"
	}
}

// ParseFormat resolves a dump format by name (case-sensitive, the
// four names the CLI accepts), reporting diag.CodeFmtUnsupported for
// anything else.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "plain":
		return FormatPlain, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "yaml":
		return FormatYAML, nil
	default:
		return FormatPlain, diag.New(diag.CodeFmtUnsupported, nil,
			fmt.Sprintf("unsupported trace dump format %q", name), nil)
	}
}

// NewRunID mints a fresh run identifier (spec.md §8's "every
// BMC/simulation/consistency run gets a uuid.New() run ID, carried in
// the manifest and in witness metadata").
func NewRunID() string {
	return uuid.New().String()
}

// traceDoc is the serializable form of a witness.Witness shared by the
// JSON/XML/YAML encoders: field tags pick the per-format key names, the
// same tagged-struct-once pattern the teacher's Encoded struct uses.
type traceDoc struct {
	XMLName xml.Name     `json:"-" xml:"trace" yaml:"-"`
	Name    string       `json:"name" xml:"name" yaml:"name"`
	RunID   string       `json:"run_id" xml:"run_id" yaml:"run_id"`
	Frames  []traceFrame `json:"frames" xml:"frame" yaml:"frames"`
}

type traceFrame struct {
	Step   int          `json:"step" xml:"step,attr" yaml:"step"`
	Values []traceValue `json:"values" xml:"value" yaml:"values"`
}

type traceValue struct {
	Name  string `json:"name" xml:"name,attr" yaml:"name"`
	Value string `json:"value" xml:"value" yaml:"value"`
}

func toDoc(w *witness.Witness, runID string) traceDoc {
	doc := traceDoc{Name: w.Name, RunID: runID}
	for _, tf := range w.Frames {
		ftf := traceFrame{Step: tf.Step}
		for _, name := range tf.Names() {
			v, _ := tf.Value(name)
			ftf.Values = append(ftf.Values, traceValue{Name: name, Value: v.String()})
		}
		doc.Frames = append(doc.Frames, ftf)
	}
	return doc
}

// Dump renders w to out in the given format. runID is carried into the
// JSON/XML/YAML documents as metadata (spec.md §8); it is ignored by
// the plain format, which instead highlights the variables whose value
// changed since the previous frame.
func Dump(out io.Writer, w *witness.Witness, format Format, runID string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(toDoc(w, runID))

	case FormatXML:
		enc := xml.NewEncoder(out)
		enc.Indent("", "  ")
		if err := enc.Encode(toDoc(w, runID)); err != nil {
			return err
		}
		_, err := out.Write([]byte("\n"))
		return err

	case FormatYAML:
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(toDoc(w, runID))

	case FormatPlain:
		return dumpPlain(out, w)

	default:
		return diag.New(diag.CodeFmtUnsupported, nil,
			fmt.Sprintf("unsupported trace dump format %q", format), nil)
	}
}

// dumpPlain writes one line per frame, highlighting (in teacher-style
// fatih/color bold) any variable whose value differs from the
// previous frame, the same way the teacher's REPL distinguishes
// success/failure output.
func dumpPlain(out io.Writer, w *witness.Witness) error {
	highlight := color.New(color.Bold, color.FgYellow)

	var prev *witness.TimeFrame
	for _, tf := range w.Frames {
		if _, err := fmt.Fprintf(out, "-- step %d --\n", tf.Step); err != nil {
			return err
		}
		for _, name := range tf.Names() {
			v, _ := tf.Value(name)
			changed := prev == nil
			if prev != nil {
				if pv, ok := prev.Value(name); !ok || pv != v {
					changed = true
				}
			}
			line := fmt.Sprintf("  %s = %s", name, v.String())
			if changed {
				if _, err := highlight.Fprintln(out, line); err != nil {
					return err
				}
			} else if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		prev = tf
	}
	return nil
}
