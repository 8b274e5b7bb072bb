package diagnostic

import "testing"

func TestCategoryFor(t *testing.T) {
	cases := []struct {
		code    string
		wantCat string
		wantExit int
	}{
		{"E001", "collision", 2},
		{"E009", "collision", 2},
		{"E010", "key_validity", 2},
		{"E019", "key_validity", 2},
		{"E020", "yaml_parse", 3},
		{"E030", "multi_document", 3},
		{"W041", "sequence_structure", 2},
		{"E050", "assemble", 2},
		{"E053", "assemble", 2},
		{"E100", "io", 2},
		{"E110", "io", 2},
		{"E119", "io", 2},
		{"E999", "internal", 1},
		{"X", "internal", 1},
	}
	for _, c := range cases {
		got := categoryFor(c.code)
		if got.name != c.wantCat || got.exit != c.wantExit {
			t.Errorf("categoryFor(%q) = %+v, want {%s %d}", c.code, got, c.wantCat, c.wantExit)
		}
	}
}

func TestSinkStrictPromotesWarnToError(t *testing.T) {
	s := NewSink(true)
	s.Add(Diagnostic{Code: "W041", Severity: Warn, Summary: "gap"})
	all := s.All()
	if len(all) != 1 || all[0].Severity != Error {
		t.Fatalf("expected warn promoted to error, got %+v", all)
	}
}

func TestSinkNonStrictLeavesWarn(t *testing.T) {
	s := NewSink(false)
	s.Add(Diagnostic{Code: "W041", Severity: Warn, Summary: "gap"})
	if s.HasErrors() {
		t.Error("non-strict sink should not treat Warn as an error")
	}
}

func TestSinkExitCodePrecedence(t *testing.T) {
	s := NewSink(false)
	s.Add(Diagnostic{Code: "E001", Severity: Error, Summary: "collision"}) // exit 2
	s.Add(Diagnostic{Code: "E020", Severity: Error, Summary: "parse"})     // exit 3
	if got := s.ExitCode(); got != 3 {
		t.Errorf("ExitCode() = %d, want 3 (parse beats collision)", got)
	}
}

func TestSinkExitCodeNoErrors(t *testing.T) {
	s := NewSink(false)
	s.Add(Diagnostic{Code: "E040", Severity: Info, Summary: "fyi"})
	if got := s.ExitCode(); got != 0 {
		t.Errorf("ExitCode() = %d, want 0 when no errors recorded", got)
	}
}

func TestSinkSortedOrdersBySeverityThenCode(t *testing.T) {
	s := NewSink(false)
	s.Add(Diagnostic{Code: "E050", Severity: Info, Summary: "info"})
	s.Add(Diagnostic{Code: "E002", Severity: Error, Summary: "dup"})
	s.Add(Diagnostic{Code: "E001", Severity: Error, Summary: "collision"})
	sorted := s.Sorted()
	if sorted[0].Code != "E001" || sorted[1].Code != "E002" || sorted[2].Code != "E050" {
		t.Errorf("unexpected order: %+v", sorted)
	}
}

func TestSinkExitCodeIOErrorIsExit2(t *testing.T) {
	s := NewSink(false)
	s.Add(Diagnostic{Code: "E100", Severity: Error, Summary: "unreadable directory"})
	if got := s.ExitCode(); got != 2 {
		t.Errorf("ExitCode() = %d, want 2 for an E100 io error", got)
	}
}

func TestDiagnosticErrorString(t *testing.T) {
	d := Diagnostic{
		Code:    "E001",
		Summary: "collision",
		Paths:   []string{"auth.yml", "auth/provider.yml"},
	}
	got := d.Error()
	want := "E001: collision (auth.yml, auth/provider.yml)"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
