package catalog

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/fetcher"
	"github.com/sells-group/invest-sim/internal/model"
)

// Format names a catalog document encoding.
type Format string

const (
	FormatYAML Format = "yaml" // also accepts JSON, which is valid YAML
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor infers the format from the location's extension. Unknown or
// missing extensions are read as YAML.
func FormatFor(location string) Format {
	switch fetcher.Extension(location) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatYAML
	}
}

// Decode reads a catalog document of the given format.
func Decode(ctx context.Context, r io.Reader, format Format) ([]model.Product, error) {
	switch format {
	case FormatCSV:
		rows, err := fetcher.ReadCSV(ctx, r, fetcher.CSVOptions{Comment: '#'})
		if err != nil {
			return nil, err
		}
		return ParseTable(rows)
	case FormatXLSX:
		rows, err := fetcher.ReadXLSX(r, fetcher.XLSXOptions{})
		if err != nil {
			return nil, err
		}
		return ParseTable(rows)
	case FormatYAML, "":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: read document")
		}
		return Parse(data)
	default:
		return nil, eris.Errorf("catalog: unsupported format %q", format)
	}
}

// Fetch downloads location through f and decodes it by extension.
func Fetch(ctx context.Context, f fetcher.Fetcher, location string) ([]model.Product, error) {
	body, err := f.Download(ctx, location)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: fetch %s", location)
	}
	defer body.Close() //nolint:errcheck

	products, err := Decode(ctx, body, FormatFor(location))
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: load %s", location)
	}
	return products, nil
}
