package errors

import (
	"strings"
	"testing"
)

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		input   string
		wantErr bool
	}{
		{"rankdir empty", ValidateRankdir, "", false},
		{"rankdir TB", ValidateRankdir, "TB", false},
		{"rankdir RL", ValidateRankdir, "RL", false},
		{"rankdir lowercase", ValidateRankdir, "lr", true},
		{"rankdir unknown", ValidateRankdir, "XY", true},

		{"ranker empty", ValidateRanker, "", false},
		{"ranker simplex", ValidateRanker, "network-simplex", false},
		{"ranker tight", ValidateRanker, "tight-tree", false},
		{"ranker longest", ValidateRanker, "longest-path", false},
		{"ranker none", ValidateRanker, "none", false},
		{"ranker unknown", ValidateRanker, "random", true},

		{"acyclicer empty", ValidateAcyclicer, "", false},
		{"acyclicer greedy", ValidateAcyclicer, "greedy", false},
		{"acyclicer dfs", ValidateAcyclicer, "dfs", false},
		{"acyclicer unknown", ValidateAcyclicer, "bfs", true},

		{"align empty", ValidateAlign, "", false},
		{"align UL", ValidateAlign, "UL", false},
		{"align DR", ValidateAlign, "DR", false},
		{"align unknown", ValidateAlign, "LR", true},

		{"labelpos c", ValidateLabelPos, "c", false},
		{"labelpos upper L", ValidateLabelPos, "L", false},
		{"labelpos unknown", ValidateLabelPos, "top", true},

		{"pipeline layered", ValidatePipeline, "layered", false},
		{"pipeline minimal", ValidatePipeline, "minimal", false},
		{"pipeline unknown", ValidatePipeline, "force", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidOption) {
				t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInvalidOption)
			}
		})
	}
}

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "a", false},
		{"with spaces", "node one", false},
		{"unicode", "knoten-ä", false},
		{"underscore prefix", "_d1", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("x", 300), true},
		{"newline", "a\nb", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple file", "graph.json", false},
		{"nested", "graphs/flow.yaml", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"backslash", "graphs\\flow.json", true},
		{"control", "graph\x01.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat("json", "json", "yaml"); err != nil {
		t.Errorf("ValidateFormat(json) = %v, want nil", err)
	}
	err := ValidateFormat("xml", "json", "yaml")
	if !Is(err, ErrCodeInvalidFormat) {
		t.Fatalf("ValidateFormat(xml) = %v, want %s", err, ErrCodeInvalidFormat)
	}
	if !strings.Contains(err.Error(), "json, yaml") {
		t.Errorf("Error() = %q, want allowed formats listed", err.Error())
	}
}
