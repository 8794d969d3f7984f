package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/gradebook/internal/common"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadOptions controls how a delimited file is decoded.
type LoadOptions struct {
	// Encoding is the character encoding of the file: utf-8, gbk or gb18030.
	Encoding string
	// Delimiter separates fields. Zero means comma.
	Delimiter rune
}

// DefaultLoadOptions returns options for a comma separated UTF-8 file.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Encoding:  "utf-8",
		Delimiter: ',',
	}
}

// Load reads the delimited file at path.
func Load(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewIOError("open dataset", path, err)
	}
	defer f.Close()

	table, err := Read(f, opts)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded dataset",
		"path", path,
		"rows", table.Len(),
		"columns", len(table.Columns),
		"encoding", opts.Encoding)

	return table, nil
}

// Read decodes a delimited stream. The first record is the header.
func Read(r io.Reader, opts LoadOptions) (*Table, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, common.NewDataError("read dataset", errors.New("missing header row"))
	}
	if err != nil {
		return nil, common.NewDataError("read dataset header", err)
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, common.NewDataError("read dataset", err)
		}
		if len(rec) != len(header) {
			line, _ := reader.FieldPos(0)
			return nil, common.NewDataError("read dataset",
				fmt.Errorf("line %d has %d fields, header has %d", line, len(rec), len(header)))
		}
		rows = append(rows, rec)
	}

	return NewTable(header, rows)
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "gbk", "cp936":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	default:
		return nil, common.NewConfigError("load dataset",
			fmt.Errorf("%w: unsupported encoding %q", common.ErrInvalidConfig, name))
	}
}

// WriteCSV writes the table, header first, as UTF-8 CSV.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// Save writes the table to path as UTF-8 CSV.
func Save(path string, t *Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return common.NewIOError("create dataset", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = common.NewIOError("close dataset", path, closeErr)
		}
	}()

	if err := WriteCSV(f, t); err != nil {
		return common.NewIOError("write dataset", path, err)
	}
	return nil
}
