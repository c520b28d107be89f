package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/render"
	"github.com/matzehuels/strata/pkg/render/dot"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, Formats...)
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Render draws a finished layout in the given format. PNG comes from
// Graphviz directly; PDF needs rsvg-convert.
func Render(ctx context.Context, res io.Result, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if format == FormatJSON {
		return io.MarshalResult(res)
	}

	src := dot.ToDOT(res.Graph(), dot.Options{})
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDOT:
		return []byte(src), nil
	case FormatSVG:
		data, err = dot.RenderSVG(ctx, src)
	case FormatPNG:
		data, err = dot.RenderPNG(ctx, src)
	case FormatPDF:
		data, err = dot.RenderSVG(ctx, src)
		if err == nil {
			data, err = render.ToPDF(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}
