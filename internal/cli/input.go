package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/strata/pkg/errors"
	pkgio "github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/layout"
)

// readDocument reads a graph document from path. "-" reads stdin in the
// given format (JSON when empty).
func readDocument(path, format string) (*pkgio.Document, error) {
	if path != "-" {
		return pkgio.ReadDocumentFile(path)
	}
	if format == "" {
		format = pkgio.FormatJSON
	}
	if err := errors.ValidateFormat(format, pkgio.Formats...); err != nil {
		return nil, err
	}
	return pkgio.ReadDocument(os.Stdin, format)
}

// readGraph reads and builds the graph at path.
func readGraph(path, format string) (*layout.Graph, error) {
	doc, err := readDocument(path, format)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}
