package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateRankdir checks a rank direction. The empty string selects the
// default.
func ValidateRankdir(dir string) error {
	switch dir {
	case "", "TB", "BT", "LR", "RL":
		return nil
	}
	return New(ErrCodeInvalidOption, "invalid rankdir: %q (must be one of: TB, BT, LR, RL)", dir)
}

// ValidateRanker checks a ranker name. The empty string selects network
// simplex.
func ValidateRanker(name string) error {
	switch name {
	case "", "network-simplex", "tight-tree", "longest-path", "none":
		return nil
	}
	return New(ErrCodeInvalidOption, "invalid ranker: %q (must be one of: network-simplex, tight-tree, longest-path, none)", name)
}

// ValidateAcyclicer checks a cycle breaking heuristic name.
func ValidateAcyclicer(name string) error {
	switch name {
	case "", "dfs", "greedy":
		return nil
	}
	return New(ErrCodeInvalidOption, "invalid acyclicer: %q (must be one of: dfs, greedy)", name)
}

// ValidateAlign checks a Brandes-Köpf alignment name. The empty string
// balances all four alignments.
func ValidateAlign(align string) error {
	switch align {
	case "", "UL", "UR", "DL", "DR":
		return nil
	}
	return New(ErrCodeInvalidOption, "invalid align: %q (must be one of: UL, UR, DL, DR)", align)
}

// ValidateLabelPos checks an edge label position.
func ValidateLabelPos(pos string) error {
	switch strings.ToLower(pos) {
	case "", "c", "l", "r":
		return nil
	}
	return New(ErrCodeInvalidOption, "invalid labelpos: %q (must be one of: c, l, r)", pos)
}

// ValidatePipeline checks a layout pipeline name.
func ValidatePipeline(name string) error {
	switch name {
	case "", "layered", "minimal":
		return nil
	}
	return New(ErrCodeInvalidOption, "invalid pipeline: %q (must be one of: layered, minimal)", name)
}

// nodeIDRegex rejects whitespace-only and control-laden ids; everything
// printable is accepted.
var nodeIDRegex = regexp.MustCompile(`\S`)

// ValidateNodeID validates a node id read from a graph document.
//
// The rules are intentionally loose since ids are only used as map keys:
//   - No empty or whitespace-only ids
//   - No control characters
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" || !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "node id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id %q contains control characters", id)
		}
	}
	return nil
}

// ValidatePath validates a file path supplied by a remote caller.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateFormat checks a graph document or output format name.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format: %q (must be one of: %s)", format, strings.Join(allowed, ", "))
}
