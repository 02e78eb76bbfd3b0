package report

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"protoscan/internal/analyzer"
	"protoscan/internal/classify"
	"protoscan/internal/parser"
)

func sampleAnalysis() *analyzer.Analysis {
	rec1 := classify.Record{
		Interface: parser.Interface{
			Name:             "ProtocolStore",
			FilePath:         "/project/src/memory/store.py",
			ModulePath:       "memory.store",
			Methods:          []string{"get(key: str) -> Any", "put(key: str, value: Any) -> None"},
			RuntimeCheckable: true,
			Location:         parser.Location{File: "/project/src/memory/store.py", Line: 12},
		},
		Domain:        "memory",
		Shape:         classify.ShapeFunctional,
		SignatureHash: "aaaaaaaaaaaaaaaa",
	}
	rec2 := rec1
	rec2.FilePath = "/project/src/memory/legacy.py"
	rec2.ModulePath = "memory.legacy"
	rec2.Location = parser.Location{File: "/project/src/memory/legacy.py", Line: 30}

	return &analyzer.Analysis{
		RunID:       "test-run",
		Root:        "/project/src",
		GeneratedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Duration:    420 * time.Millisecond,
		Records:     []classify.Record{rec1, rec2},
		Duplicates: []analyzer.DuplicateGroup{
			{Hash: "aaaaaaaaaaaaaaaa", Domain: "memory", Shape: classify.ShapeFunctional, Records: []classify.Record{rec1, rec2}},
		},
		Conflicts: []analyzer.NameConflict{
			{Name: "ProtocolStore", Hashes: []string{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb"}, Records: []classify.Record{rec1}},
		},
		Domains: map[string]analyzer.DomainStats{
			"memory": {Count: 2, RuntimeCheckable: 2, Shapes: map[classify.Shape]int{classify.ShapeFunctional: 2}, AvgMethods: 2},
		},
		Quality: analyzer.QualityMetrics{
			TotalProtocols:    2,
			FunctionalCount:   2,
			MissingDocstrings: 2,
			AvgMethods:        2,
		},
		Warnings: []analyzer.Warning{
			{Protocol: "ProtocolStore", File: "/project/src/memory/store.py", Line: 12, Message: "missing docstring"},
		},
		Errors: []analyzer.FileIssue{
			{Path: "/project/src/broken.py", Message: "syntax error at line 3"},
		},
		FilesScanned: 4,
	}
}

func TestBuildArtifact(t *testing.T) {
	artifact := BuildArtifact(sampleAnalysis())

	if artifact.Analysis.RunID != "test-run" {
		t.Errorf("run_id = %q, want test-run", artifact.Analysis.RunID)
	}
	if len(artifact.Protocols) != 2 {
		t.Fatalf("len(protocols) = %d, want 2", len(artifact.Protocols))
	}
	p := artifact.Protocols[0]
	if p.Name != "ProtocolStore" || p.SignatureHash != "aaaaaaaaaaaaaaaa" {
		t.Errorf("unexpected first protocol: %+v", p)
	}
	if p.MethodCount != 2 {
		t.Errorf("method_count = %d, want 2", p.MethodCount)
	}
	if !p.IsRuntimeCheckable {
		t.Error("is_runtime_checkable should be true")
	}
	if len(artifact.Analysis.DuplicateGroups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(artifact.Analysis.DuplicateGroups))
	}
	group := artifact.Analysis.DuplicateGroups[0]
	if len(group.Protocols) != 2 || group.Protocols[0] != "ProtocolStore" {
		t.Errorf("unexpected group protocols: %v", group.Protocols)
	}
	if len(artifact.Analysis.Errors) != 1 {
		t.Errorf("expected 1 error entry, got %d", len(artifact.Analysis.Errors))
	}
}

func TestArtifactJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(BuildArtifact(sampleAnalysis()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{
		`"analysis"`, `"protocols"`, `"signature_hash"`, `"file_path"`,
		`"module_path"`, `"method_count"`, `"is_runtime_checkable"`,
		`"duplicate_groups"`, `"name_conflicts"`, `"domain_distribution"`,
		`"quality_metrics"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("artifact JSON missing field %s", field)
		}
	}
}

func TestGenerateSARIF_Empty(t *testing.T) {
	analysis := &analyzer.Analysis{RunID: "r", Root: "/project"}
	data, err := GenerateSARIF("/project", analysis)
	if err != nil {
		t.Fatalf("GenerateSARIF returned error: %v", err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report.Schema != sarifSchema {
		t.Errorf("$schema = %q, want %q", report.Schema, sarifSchema)
	}
	if report.Version != sarifVersion {
		t.Errorf("version = %q, want %q", report.Version, sarifVersion)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(report.Runs))
	}
	if len(report.Runs[0].Results) != 0 {
		t.Errorf("expected 0 results, got %d", len(report.Runs[0].Results))
	}
}

func TestGenerateSARIF_DuplicateResult(t *testing.T) {
	data, err := GenerateSARIF("/project", sampleAnalysis())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	results := report.Runs[0].Results
	if len(results) != 3 { // duplicate + conflict + warning
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	dup := results[0]
	if dup.RuleID != ruleIDDuplicate {
		t.Errorf("ruleId = %q, want %q", dup.RuleID, ruleIDDuplicate)
	}
	if dup.Level != "error" {
		t.Errorf("level = %q, want error", dup.Level)
	}
	if !strings.Contains(dup.Message.Text, "Duplicate protocol signatures") {
		t.Errorf("message %q missing duplicate phrasing", dup.Message.Text)
	}
	if len(dup.Locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(dup.Locations))
	}
	uri := dup.Locations[0].PhysicalLocation.ArtifactLocation.URI
	if strings.Contains(uri, "/project") {
		t.Errorf("URI %q should be relative, not absolute", uri)
	}
	if uri != "src/memory/store.py" {
		t.Errorf("URI = %q, want src/memory/store.py", uri)
	}
	region := dup.Locations[0].PhysicalLocation.Region
	if region == nil || region.StartLine != 12 {
		t.Errorf("expected region.startLine = 12")
	}

	if results[1].RuleID != ruleIDConflict {
		t.Errorf("second result ruleId = %q, want %q", results[1].RuleID, ruleIDConflict)
	}
	if results[2].RuleID != ruleIDWarning || results[2].Level != "warning" {
		t.Errorf("third result = %+v, want %s/warning", results[2], ruleIDWarning)
	}

	rules := report.Runs[0].Tool.Driver.Rules
	if len(rules) != 3 {
		t.Errorf("expected 3 rules, got %d", len(rules))
	}
}

func TestRelativeURI(t *testing.T) {
	cases := []struct {
		root    string
		path    string
		wantURI string
	}{
		{"/project", "/project/internal/foo.py", "internal/foo.py"},
		{"/project", "/other/bar.py", "../other/bar.py"},
		{"", "/abs/path.py", "/abs/path.py"},
		{"/project", "relative/path.py", "relative/path.py"},
	}
	for _, tc := range cases {
		got := relativeURI(tc.root, tc.path)
		if got != tc.wantURI {
			t.Errorf("relativeURI(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.wantURI)
		}
	}
}

func TestRenderTextReport(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, true).Render(sampleAnalysis())
	out := buf.String()

	for _, want := range []string{
		"Protocol Signature Analysis",
		"Duplicate signatures (1 groups)",
		"ProtocolStore",
		"store.py:12",
		"Name conflicts (1)",
		"Domain distribution",
		"memory",
		"Quality",
		"missing docstring",
		"Parse errors (1 files)",
		"1 duplicate group(s), 1 name conflict(s).",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q", want)
		}
	}
}

func TestRenderCleanReport(t *testing.T) {
	analysis := &analyzer.Analysis{
		RunID:   "clean",
		Root:    "/project",
		Domains: map[string]analyzer.DomainStats{},
	}
	var buf bytes.Buffer
	NewWriter(&buf, false).Render(analysis)
	if !strings.Contains(buf.String(), "No duplicate signatures or name conflicts found.") {
		t.Error("clean report should say no findings")
	}
}

func TestWriteArtifactAndPlan(t *testing.T) {
	dir := t.TempDir()
	analysis := sampleAnalysis()

	reportPath := dir + "/report.json"
	if err := WriteArtifact(reportPath, analysis); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}

	plan := analyzer.BuildPlan(analysis)
	planPath := dir + "/plan.json"
	if err := WritePlan(planPath, plan); err != nil {
		t.Fatalf("WritePlan: %v", err)
	}

	var artifact Artifact
	raw, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if err := json.Unmarshal(raw, &artifact); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if len(artifact.Protocols) != 2 {
		t.Errorf("round-tripped artifact has %d protocols, want 2", len(artifact.Protocols))
	}
}
