package parse

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Token
	}{
		{"blank", "", TokenBlank},
		{"whitespace only", "   \t", TokenBlank},
		{"plain info", "INFO    -  Cleaning site directory", TokenPlain},
		{"warning", "WARNING -  Some warning message", TokenWarning},
		{"error", "ERROR   -  Something bad happened", TokenError},
		{"warning single dash", "WARNING - short", TokenWarning},
		{
			"md exec header",
			"WARNING -  markdown_exec: Execution of python code block exited with errors",
			TokenMDExecHeader,
		},
		{"code marker", "Code block is:", TokenCodeMarker},
		{"output marker", "Output is:", TokenOutputMarker},
		{
			"traceback frame",
			`    File "<code block: session test; n1>", line 3, in <module>`,
			TokenTracebackFrame,
		},
		{"indented", "    x = 1", TokenIndented},
		{"build complete", "INFO    -  Documentation built in 1.23 seconds", TokenBuildComplete},
		{"server started", "INFO    -  Serving on http://127.0.0.1:8000/", TokenServerStarted},
		{"rebuild detected", "INFO    -  Detected file changes", TokenRebuild},
		{"rebuild reload", "INFO    -  Reloading docs...", TokenRebuild},
		{
			"output dir",
			"INFO    -  Building documentation to directory: /path/to/site",
			TokenOutputDir,
		},
		{"stderr prefixed warning", "[stderr] WARNING -  Some warning", TokenWarning},
		{
			"timestamp prefixed warning",
			"2024-01-01 12:00:00,000 - mkdocs.structure - WARNING - Some warning",
			TokenWarning,
		},
		{"random noise", "some unstructured output", TokenPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

// Boundary patterns take precedence over generic level patterns: a warning
// line whose text happens to mention a boundary phrase must still classify
// as the boundary.
func TestClassify_BoundaryPrecedence(t *testing.T) {
	line := "WARNING -  Serving on http://127.0.0.1:8000/ with stale content"
	if got := Classify(line); got != TokenServerStarted {
		t.Errorf("Classify(%q) = %v, want %v", line, got, TokenServerStarted)
	}
}

// Classification is a pure function: the same line always yields the same token.
func TestClassify_Idempotent(t *testing.T) {
	lines := []string{
		"",
		"WARNING -  something",
		"INFO    -  Documentation built in 0.5 seconds",
		"  indented",
	}
	for _, line := range lines {
		if Classify(line) != Classify(line) {
			t.Errorf("Classify(%q) not idempotent", line)
		}
	}
}

func TestMessageText(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"WARNING -  Some warning message", "Some warning message"},
		{"ERROR   -  Something bad happened", "Something bad happened"},
		{"[stderr] WARNING -  Some warning", "Some warning"},
		{"2024-01-01 12:00:00,000 - mkdocs.structure - WARNING - Some warning", "Some warning"},
	}
	for _, tt := range tests {
		if got := messageText(tt.line); got != tt.want {
			t.Errorf("messageText(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
