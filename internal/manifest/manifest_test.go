package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewManifest(t *testing.T) {
	m := New()

	if m.Schema != SchemaVersion {
		t.Errorf("Schema = %s, want %s", m.Schema, SchemaVersion)
	}

	if m.SchemaVersion != "1.0.0" {
		t.Errorf("SchemaVersion = %s, want 1.0.0", m.SchemaVersion)
	}

	if m.Generator != "modelcheck verify-runs" {
		t.Errorf("Generator = %s, want 'modelcheck verify-runs'", m.Generator)
	}

	if len(m.Runs) != 0 {
		t.Errorf("Runs should be empty, got %d", len(m.Runs))
	}
}

func TestManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Manifest)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid manifest",
			modify:  func(m *Manifest) {},
			wantErr: false,
		},
		{
			name: "invalid schema version",
			modify: func(m *Manifest) {
				m.Schema = "modelcheck.manifest/v2"
			},
			wantErr: true,
			errMsg:  "unsupported schema version",
		},
		{
			name: "duplicate run",
			modify: func(m *Manifest) {
				m.Runs = []Run{
					{ModelPath: "counter.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
					{ModelPath: "counter.model", Algorithm: AlgoBMC, Bound: 8, Expected: &Expected{Outcome: OutcomeFalsified}},
				}
				m.UpdateStatistics()
			},
			wantErr: true,
			errMsg:  "duplicate run",
		},
		{
			name: "missing model path",
			modify: func(m *Manifest) {
				m.Runs = []Run{
					{Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
				}
			},
			wantErr: true,
			errMsg:  "missing model_path",
		},
		{
			name: "missing algorithm",
			modify: func(m *Manifest) {
				m.Runs = []Run{
					{ModelPath: "counter.model", Bound: 4},
				}
			},
			wantErr: true,
			errMsg:  "missing algorithm",
		},
		{
			name: "invalid algorithm",
			modify: func(m *Manifest) {
				m.Runs = []Run{
					{ModelPath: "counter.model", Algorithm: "induction", Bound: 4},
				}
			},
			wantErr: true,
			errMsg:  "invalid algorithm",
		},
		{
			name: "verify without property",
			modify: func(m *Manifest) {
				m.Runs = []Run{
					{ModelPath: "counter.model", Algorithm: AlgoVerify, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
				}
				m.UpdateStatistics()
			},
			wantErr: true,
			errMsg:  "missing property",
		},
		{
			name: "run without outcome or failure or skip",
			modify: func(m *Manifest) {
				m.Runs = []Run{
					{ModelPath: "counter.model", Algorithm: AlgoBMC, Bound: 4},
				}
			},
			wantErr: true,
			errMsg:  "expected outcome",
		},
		{
			name: "failure without error code",
			modify: func(m *Manifest) {
				m.Runs = []Run{
					{ModelPath: "counter.model", Algorithm: AlgoBMC, Bound: 4, Failure: &FailureInfo{Reason: "unsupported array type"}},
				}
				m.UpdateStatistics()
			},
			wantErr: true,
			errMsg:  "missing error code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.modify(m)

			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && tt.errMsg != "" {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Error message should contain %q, got %q", tt.errMsg, err.Error())
				}
			}
		})
	}
}

func TestStatisticsCalculation(t *testing.T) {
	m := New()
	m.Runs = []Run{
		{ModelPath: "a.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
		{ModelPath: "b.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
		{ModelPath: "c.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
		{ModelPath: "d.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeFalsified}},
		{ModelPath: "e.model", Algorithm: AlgoVerify, Bound: 4, Property: "AG(!deadlock)",
			Failure: &FailureInfo{Reason: "test", ErrorCode: "SEM001"}},
		{ModelPath: "f.model", Algorithm: AlgoSimulate, Bound: 4, SkipReason: "nondeterministic, no fixed oracle"},
	}

	m.UpdateStatistics()

	if m.Statistics.Total != 6 {
		t.Errorf("Total = %d, want 6", m.Statistics.Total)
	}

	if m.Statistics.Verified != 3 {
		t.Errorf("Verified = %d, want 3", m.Statistics.Verified)
	}

	if m.Statistics.Falsified != 1 {
		t.Errorf("Falsified = %d, want 1", m.Statistics.Falsified)
	}

	expectedCoverage := 4.0 / 6.0
	if m.Statistics.Coverage != expectedCoverage {
		t.Errorf("Coverage = %f, want %f", m.Statistics.Coverage, expectedCoverage)
	}
}

func TestFindRun(t *testing.T) {
	m := New()
	m.Runs = []Run{
		{ModelPath: "a.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
		{ModelPath: "b.model", Algorithm: AlgoBMC, Bound: 4, Failure: &FailureInfo{Reason: "test", ErrorCode: "SEM001"}},
	}

	r, found := m.FindRun("a.model", AlgoBMC)
	if !found {
		t.Error("Should find a.model")
	}
	if r.Expected.Outcome != OutcomeVerified {
		t.Errorf("Outcome = %s, want %s", r.Expected.Outcome, OutcomeVerified)
	}

	_, found = m.FindRun("c.model", AlgoBMC)
	if found {
		t.Error("Should not find c.model")
	}
}

func TestRunsByOutcome(t *testing.T) {
	m := New()
	m.Runs = []Run{
		{ModelPath: "a.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
		{ModelPath: "b.model", Algorithm: AlgoBMC, Bound: 4, Failure: &FailureInfo{Reason: "test", ErrorCode: "SEM001"}},
		{ModelPath: "c.model", Algorithm: AlgoBMC, Bound: 4, Expected: &Expected{Outcome: OutcomeVerified}},
	}

	verified := m.RunsByOutcome(OutcomeVerified)
	if len(verified) != 2 {
		t.Errorf("RunsByOutcome(verified) returned %d, want 2", len(verified))
	}

	for _, r := range verified {
		if r.Expected.Outcome != OutcomeVerified {
			t.Errorf("Got non-verified run: %s", r.ModelPath)
		}
	}
}

func TestSchemaDigest(t *testing.T) {
	m := New()
	m.UpdateSchemaDigest()

	if m.SchemaDigest == "" {
		t.Error("SchemaDigest should not be empty")
	}

	if !strings.HasPrefix(m.SchemaDigest, "sha256:") {
		t.Errorf("SchemaDigest should start with 'sha256:', got %s", m.SchemaDigest)
	}

	digest1 := m.calculateSchemaDigest()
	digest2 := m.calculateSchemaDigest()
	if digest1 != digest2 {
		t.Error("Schema digest should be deterministic")
	}
}

func TestGenerateREADMESection(t *testing.T) {
	m := New()
	m.GeneratedAt = time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	m.Runs = []Run{
		{ModelPath: "counter.model", Algorithm: AlgoBMC, Bound: 8, Description: "a wrapping counter",
			Expected: &Expected{Outcome: OutcomeVerified}},
		{ModelPath: "mutex.model", Algorithm: AlgoVerify, Bound: 12, Property: "AG(!(cs1 & cs2))",
			Failure: &FailureInfo{
				Reason:       "LTL checking not yet implemented",
				ErrorCode:    "SEM010",
				Requires:     []string{"ltl"},
				TrackedIssue: "https://example.com/issues/1",
			}},
	}
	m.UpdateStatistics()

	readme := m.GenerateREADMESection()

	if !strings.Contains(readme, "## Run Status") {
		t.Error("Missing '## Run Status' header")
	}

	if !strings.Contains(readme, "Coverage: 50.0%") {
		t.Error("Missing coverage percentage")
	}

	if !strings.Contains(readme, "### Verified") {
		t.Error("Missing verified section")
	}

	if !strings.Contains(readme, "### Known Failures") {
		t.Error("Missing known failures section")
	}

	if !strings.Contains(readme, "counter.model") {
		t.Error("Missing counter.model in output")
	}

	if !strings.Contains(readme, "[#1](https://example.com/issues/1)") {
		t.Error("Issue link not formatted correctly")
	}

	if !strings.Contains(readme, "2026-07-29 12:00:00 UTC") {
		t.Error("Missing timestamp")
	}
}

func TestLoadSaveManifest(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "manifest_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	manifestPath := filepath.Join(tmpDir, "manifest.yaml")

	m1 := New()
	m1.RunID = "11111111-1111-1111-1111-111111111111"
	m1.Runs = []Run{
		{ModelPath: "counter.model", Algorithm: AlgoBMC, Bound: 8, Expected: &Expected{Outcome: OutcomeVerified}},
	}
	m1.UpdateStatistics()

	if err := m1.Save(manifestPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(manifestPath); err != nil {
		t.Errorf("Manifest file not created: %v", err)
	}

	m2, err := Load(manifestPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff(m1, m2); diff != "" {
		t.Errorf("manifest round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentDefaults(t *testing.T) {
	r := Run{
		ModelPath: "sim.model",
		Algorithm: AlgoSimulate,
		Bound:     10,
		Expected:  &Expected{Outcome: OutcomeVerified},
		Environment: &Environment{
			Seed:     42,
			Locale:   "en_US.UTF-8",
			Timezone: "America/New_York",
		},
	}

	if r.Environment.Seed != 42 {
		t.Errorf("Seed = %d, want 42", r.Environment.Seed)
	}

	if r.Environment.Locale != "en_US.UTF-8" {
		t.Errorf("Locale = %s, want en_US.UTF-8", r.Environment.Locale)
	}

	if r.Environment.Timezone != "America/New_York" {
		t.Errorf("Timezone = %s, want America/New_York", r.Environment.Timezone)
	}
}
