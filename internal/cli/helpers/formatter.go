package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the desired output format.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
	FormatYAML  OutputFormat = "yaml"
)

// DefaultCellWidth truncates table cells; knowledge chunks can be long.
const DefaultCellWidth = 80

// Formatter defines the interface for formatting command results.
type Formatter interface {
	Format(data any, writer io.Writer) error
}

// NewFormatter creates a new Formatter for the given format.
// FormatText has no generic formatter; commands render it themselves.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{MaxCellWidth: DefaultCellWidth}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatCSV:
		return &CSVFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, writer io.Writer) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, writer io.Writer) error {
	enc := yaml.NewEncoder(writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// TableFormatter formats a slice of structs as a table. Columns are the
// fields carrying a `header` tag.
type TableFormatter struct {
	// MaxCellWidth truncates longer cells. Zero disables truncation.
	MaxCellWidth int
}

func (f *TableFormatter) Format(data any, writer io.Writer) error {
	val, err := sliceValue(data)
	if err != nil || val.Len() == 0 {
		return err
	}

	w := tabwriter.NewWriter(writer, 0, 0, 3, ' ', 0)
	if _, err := fmt.Fprintln(w, strings.Join(getHeaders(val.Index(0).Type()), "\t")); err != nil {
		return err
	}

	for i := 0; i < val.Len(); i++ {
		row := getRowValues(val.Index(i))
		for j := range row {
			row[j] = truncate(flatten(row[j]), f.MaxCellWidth)
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// CSVFormatter formats a slice of structs as CSV using `header` tags.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(data any, writer io.Writer) error {
	val, err := sliceValue(data)
	if err != nil || val.Len() == 0 {
		return err
	}

	w := csv.NewWriter(writer)
	if err := w.Write(getHeaders(val.Index(0).Type())); err != nil {
		return err
	}
	for i := 0; i < val.Len(); i++ {
		if err := w.Write(getRowValues(val.Index(i))); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func sliceValue(data any) (reflect.Value, error) {
	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("data must be a slice")
	}
	return val, nil
}

func getHeaders(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var headers []string
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("header"); tag != "" {
			headers = append(headers, tag)
		}
	}
	return headers
}

func getRowValues(v reflect.Value) []string {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	var values []string
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).Tag.Get("header") == "" {
			continue
		}
		field := v.Field(i)
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				values = append(values, "")
				continue
			}
			field = field.Elem()
		}
		values = append(values, fmt.Sprintf("%v", field.Interface()))
	}
	return values
}

// flatten collapses whitespace runs so multi-line content stays on one row.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
