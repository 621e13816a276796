// Package manifest describes and validates modelcheck run manifests: a
// batch of model-check invocations (model path, algorithm, bound,
// expected outcome) used to regression-test a collection of models the
// way the teacher's example manifest regression-tests a collection of
// example programs.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is the current manifest schema identifier.
const SchemaVersion = "modelcheck.manifest/v1"

// Outcome is the result a run is expected to, or did, produce.
type Outcome string

const (
	OutcomeVerified  Outcome = "verified"
	OutcomeFalsified Outcome = "falsified"
	OutcomeUnknown   Outcome = "unknown"
	OutcomeError     Outcome = "error"
)

// Algorithm selects which internal/algorithms entry point a run invokes.
type Algorithm string

const (
	AlgoBMC        Algorithm = "bmc"
	AlgoSimulate   Algorithm = "simulate"
	AlgoCheckInit  Algorithm = "check-init"
	AlgoCheckInvar Algorithm = "check-invar"
	AlgoCheckTrans Algorithm = "check-trans"
	AlgoVerify     Algorithm = "verify"
)

// validAlgorithms is the complete set Validate accepts, in a fixed
// order so calculateSchemaDigest's fingerprint doesn't depend on map
// iteration order.
var validAlgorithms = []Algorithm{
	AlgoBMC, AlgoSimulate, AlgoCheckInit, AlgoCheckInvar, AlgoCheckTrans, AlgoVerify,
}

func isValidAlgorithm(a Algorithm) bool {
	for _, want := range validAlgorithms {
		if a == want {
			return true
		}
	}
	return false
}

// Environment captures execution settings that affect a run's
// determinism: PickState/Simulate consult Seed when choosing among
// multiple satisfying assignments.
type Environment struct {
	Seed     int64  `yaml:"seed"`
	Locale   string `yaml:"locale,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
}

// Expected captures the outcome a run is expected to produce, for
// regression comparison against what it actually produces.
type Expected struct {
	Outcome      Outcome `yaml:"outcome"`
	ErrorPattern string  `yaml:"error_pattern,omitempty"`
}

// FailureInfo documents why a run is currently known to fail or
// produce OutcomeUnknown, so CI can track it without treating it as a
// silent regression.
type FailureInfo struct {
	Reason       string   `yaml:"reason"`
	ErrorCode    string   `yaml:"error_code"`
	Requires     []string `yaml:"requires,omitempty"`
	TrackedIssue string   `yaml:"tracked_issue,omitempty"`
}

// Run describes one model-check invocation: the model file, the
// algorithm and bound to run it with, and (for verify) the LTL
// property to check.
type Run struct {
	ModelPath        string       `yaml:"model_path"`
	Algorithm        Algorithm    `yaml:"algorithm"`
	Bound            int          `yaml:"bound"`
	Property         string       `yaml:"property,omitempty"`
	Format           string       `yaml:"format,omitempty"`
	Tags             []string     `yaml:"tags,omitempty"`
	Description      string       `yaml:"description,omitempty"`
	Expected         *Expected    `yaml:"expected,omitempty"`
	Environment      *Environment `yaml:"environment,omitempty"`
	Failure          *FailureInfo `yaml:"failure,omitempty"`
	RequiresFeatures []string     `yaml:"requires_features,omitempty"`
	SkipReason       string       `yaml:"skip_reason,omitempty"`
}

// Statistics summarizes the expected outcomes across every run.
type Statistics struct {
	Total     int     `yaml:"total"`
	Verified  int     `yaml:"verified"`
	Falsified int     `yaml:"falsified"`
	Unknown   int     `yaml:"unknown"`
	Errored   int     `yaml:"errored"`
	Coverage  float64 `yaml:"coverage"`
}

// Manifest is a complete, loadable/savable run manifest.
type Manifest struct {
	Schema        string     `yaml:"schema"`
	SchemaVersion string     `yaml:"schema_version"`
	SchemaDigest  string     `yaml:"schema_digest,omitempty"`
	RunID         string     `yaml:"run_id,omitempty"`
	GeneratedAt   time.Time  `yaml:"generated_at"`
	Generator     string     `yaml:"generator"`
	Runs          []Run      `yaml:"runs"`
	Statistics    Statistics `yaml:"statistics"`
}

// New creates an empty manifest with defaults, stamped with a fresh
// run ID so two batch runs against the same model set are
// distinguishable in logs and dumped traces.
func New() *Manifest {
	return &Manifest{
		Schema:        SchemaVersion,
		SchemaVersion: "1.0.0",
		RunID:         uuid.New().String(),
		GeneratedAt:   time.Now().UTC(),
		Generator:     "modelcheck verify-runs",
		Runs:          []Run{},
		Statistics:    Statistics{},
	}
}

// Load reads and validates a manifest from a YAML file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to path as YAML, recomputing its
// statistics and schema digest and sorting runs for deterministic
// output first.
func (m *Manifest) Save(path string) error {
	m.UpdateStatistics()
	m.UpdateSchemaDigest()

	sort.Slice(m.Runs, func(i, j int) bool {
		if m.Runs[i].ModelPath != m.Runs[j].ModelPath {
			return m.Runs[i].ModelPath < m.Runs[j].ModelPath
		}
		return m.Runs[i].Algorithm < m.Runs[j].Algorithm
	})

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the manifest for internal consistency. Unlike a
// fail-fast validator, it collects every problem it finds across every
// run before returning: a manifest this size is usually hand-edited
// (descriptions and skip reasons added by whoever triages a failing
// model), and a contributor fixing a batch of entries after a schema
// change would otherwise have to re-run Validate once per mistake to
// discover the next one.
func (m *Manifest) Validate() error {
	var problems []string

	if !acceptsSchema(m.Schema, SchemaVersion) {
		problems = append(problems, fmt.Sprintf("unsupported schema version: %s (expected %s)", m.Schema, SchemaVersion))
	}
	if m.SchemaDigest != "" {
		if expected := m.calculateSchemaDigest(); m.SchemaDigest != expected {
			problems = append(problems, fmt.Sprintf("schema digest mismatch: got %s, expected %s", m.SchemaDigest, expected))
		}
	}

	seen := make(map[string]bool, len(m.Runs))
	for _, r := range m.Runs {
		key := r.ModelPath + "#" + string(r.Algorithm)
		if seen[key] {
			problems = append(problems, fmt.Sprintf("duplicate run: %s (%s)", r.ModelPath, r.Algorithm))
			continue
		}
		seen[key] = true

		for _, p := range runProblems(r) {
			problems = append(problems, fmt.Sprintf("invalid run %s: %s", r.ModelPath, p))
		}
	}

	if stats := m.calculateStatistics(); m.Statistics != stats {
		problems = append(problems, fmt.Sprintf("statistics mismatch: recorded %+v, calculated %+v", m.Statistics, stats))
	}

	// Only the first problem surfaces as the wrapped error reason, so
	// existing %w-based callers keep working; the rest are appended to
	// the message so none of them are silently dropped.
	if len(problems) == 0 {
		return nil
	}
	if len(problems) == 1 {
		return fmt.Errorf("%s", problems[0])
	}
	return fmt.Errorf("%s (and %d more problem(s): %s)", problems[0], len(problems)-1, strings.Join(problems[1:], "; "))
}

// runProblems reports every way r fails to satisfy the run schema,
// rather than stopping at the first.
func runProblems(r Run) []string {
	var problems []string

	if r.ModelPath == "" {
		problems = append(problems, "missing model_path")
	}
	switch {
	case r.Algorithm == "":
		problems = append(problems, "missing algorithm")
	case !isValidAlgorithm(r.Algorithm):
		problems = append(problems, fmt.Sprintf("invalid algorithm: %s", r.Algorithm))
	case r.Algorithm == AlgoVerify && r.Property == "":
		problems = append(problems, "verify run missing property")
	}

	if r.Bound < 0 {
		problems = append(problems, fmt.Sprintf("negative bound: %d", r.Bound))
	}

	switch {
	case r.Expected == nil && r.Failure == nil && r.SkipReason == "":
		problems = append(problems, "run must have an expected outcome, a failure record, or a skip reason")
	case r.Failure != nil && r.Failure.ErrorCode == "":
		problems = append(problems, "failure record missing error code")
	}

	return problems
}

// UpdateStatistics recalculates the statistics.
func (m *Manifest) UpdateStatistics() {
	m.Statistics = m.calculateStatistics()
}

func (m *Manifest) calculateStatistics() Statistics {
	stats := Statistics{Total: len(m.Runs)}

	for _, r := range m.Runs {
		if r.Expected == nil {
			continue
		}
		switch r.Expected.Outcome {
		case OutcomeVerified:
			stats.Verified++
		case OutcomeFalsified:
			stats.Falsified++
		case OutcomeUnknown:
			stats.Unknown++
		case OutcomeError:
			stats.Errored++
		}
	}

	if stats.Total > 0 {
		stats.Coverage = float64(stats.Verified+stats.Falsified) / float64(stats.Total)
	}

	return stats
}

// UpdateSchemaDigest recalculates the schema digest.
func (m *Manifest) UpdateSchemaDigest() {
	m.SchemaDigest = m.calculateSchemaDigest()
}

// calculateSchemaDigest fingerprints the run schema this manifest
// claims to follow: the schema identifier, its version, and the set
// of algorithm names Validate accepts. Folding the algorithm set in
// means a manifest saved against an older binary that only knew about
// a subset of algorithms gets a different digest than one saved
// against a binary that added new ones, even though Schema and
// SchemaVersion themselves didn't change — the digest is meant to
// catch "this file assumes a run shape my validator doesn't" drift,
// not just a version string bump.
func (m *Manifest) calculateSchemaDigest() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:%s\n", m.Schema, m.SchemaVersion)
	for _, algo := range validAlgorithms {
		fmt.Fprintf(h, "%s\n", algo)
	}
	sum := h.Sum(nil)
	return "sha256:" + hex.EncodeToString(sum)
}

// acceptsSchema reports whether got is compatible with wantPrefix,
// adapted from the teacher's internal/schema.Accepts (a major-version
// prefix match, left inlined here rather than reintroducing
// internal/schema as its own package: this manifest is the schema
// registry's only caller in this repo, so a shared package would have
// exactly one use site).
func acceptsSchema(got, wantPrefix string) bool {
	if got == wantPrefix {
		return true
	}
	if strings.HasPrefix(got, wantPrefix+".") {
		return true
	}
	return false
}

// FindRun locates a run by model path and algorithm.
func (m *Manifest) FindRun(modelPath string, algo Algorithm) (*Run, bool) {
	for i := range m.Runs {
		if m.Runs[i].ModelPath == modelPath && m.Runs[i].Algorithm == algo {
			return &m.Runs[i], true
		}
	}
	return nil, false
}

// RunsByOutcome returns every run whose expected outcome is want.
func (m *Manifest) RunsByOutcome(want Outcome) []Run {
	var out []Run
	for _, r := range m.Runs {
		if r.Expected != nil && r.Expected.Outcome == want {
			out = append(out, r)
		}
	}
	return out
}

// markdownTable renders a GitHub-flavored markdown table under a
// level-3 heading, or nothing at all if rows is empty — every
// section of the README summary shares this shape, only the heading,
// column headers, and per-run row differ.
func markdownTable(heading string, headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "### %s\n\n", heading)
	fmt.Fprintf(&buf, "| %s |\n", strings.Join(headers, " | "))
	fmt.Fprintf(&buf, "|%s|\n", strings.Repeat("-------|", len(headers)))
	for _, row := range rows {
		fmt.Fprintf(&buf, "| %s |\n", strings.Join(row, " | "))
	}
	buf.WriteString("\n")
	return buf.String()
}

// runDescription falls back to the model file's base name when a run
// carries no human-written description.
func runDescription(r Run) string {
	if r.Description != "" {
		return r.Description
	}
	return filepath.Base(r.ModelPath)
}

// issueLink renders a tracked-issue reference as a markdown link when
// it looks like a URL, numbering it by the URL's final path segment;
// anything else (a bare ticket ID, or empty) passes through unchanged.
func issueLink(issue string) string {
	if !strings.HasPrefix(issue, "http") {
		return issue
	}
	parts := strings.Split(issue, "/")
	return fmt.Sprintf("[#%s](%s)", parts[len(parts)-1], issue)
}

func outcomeRows(runs []Run) [][]string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{fmt.Sprintf("`%s`", r.ModelPath), string(r.Algorithm), fmt.Sprintf("%d", r.Bound), runDescription(r)}
	}
	return rows
}

// GenerateREADMESection renders a status table summarizing the
// manifest, the same shape the teacher's example manifest renders for
// its README.
func (m *Manifest) GenerateREADMESection() string {
	var buf strings.Builder

	buf.WriteString("## Run Status\n\n")
	buf.WriteString("_Generated from the run manifest - do not edit manually_\n\n")
	fmt.Fprintf(&buf, "**Coverage: %.1f%%** (%d/%d verified or falsified)\n\n",
		m.Statistics.Coverage*100, m.Statistics.Verified+m.Statistics.Falsified, m.Statistics.Total)

	outcomeHeaders := []string{"Model", "Algorithm", "Bound", "Description"}
	buf.WriteString(markdownTable("Verified", outcomeHeaders, outcomeRows(m.RunsByOutcome(OutcomeVerified))))
	buf.WriteString(markdownTable("Falsified", outcomeHeaders, outcomeRows(m.RunsByOutcome(OutcomeFalsified))))

	var failureRows [][]string
	for _, r := range m.Runs {
		if r.Failure == nil {
			continue
		}
		failureRows = append(failureRows, []string{
			fmt.Sprintf("`%s`", r.ModelPath),
			r.Failure.Reason,
			strings.Join(r.Failure.Requires, ", "),
			issueLink(r.Failure.TrackedIssue),
		})
	}
	buf.WriteString(markdownTable("Known Failures", []string{"Model", "Reason", "Required Features", "Issue"}, failureRows))

	fmt.Fprintf(&buf, "_Last updated: %s_\n", m.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	return buf.String()
}
