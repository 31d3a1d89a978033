package regions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/image-redactor/pkg/types"
)

// FieldReader returns structured metadata fields for a file, e.g. a
// stay-open exiftool process.
type FieldReader interface {
	Fields(ctx context.Context, path string) (map[string]interface{}, error)
}

// FieldExtractor reads regions from structured metadata fields
type FieldExtractor struct {
	reader FieldReader
}

// NewFieldExtractor creates an extractor backed by reader
func NewFieldExtractor(reader FieldReader) *FieldExtractor {
	return &FieldExtractor{reader: reader}
}

// Extract returns the regions tagged on path
func (e *FieldExtractor) Extract(ctx context.Context, path string) ([]types.Region, error) {
	fields, err := e.reader.Fields(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	return FromFields(fields)
}

// FromFields builds regions from a field map keyed by tag name. Values may
// be scalars, comma separated strings or lists of either.
func FromFields(fields map[string]interface{}) ([]types.Region, error) {
	return Assemble(
		fieldTokens(fields[TagName]),
		fieldTokens(fields[TagType]),
		fieldTokens(fields[TagAreaUnit]),
		fieldTokens(fields[TagRectangle]),
	)
}

func fieldTokens(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []interface{}:
		var tokens []string
		for _, item := range val {
			tokens = append(tokens, fieldTokens(item)...)
		}
		return tokens
	case []string:
		var tokens []string
		for _, item := range val {
			tokens = append(tokens, fieldTokens(item)...)
		}
		return tokens
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return strings.Split(val, ", ")
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	default:
		return []string{fmt.Sprint(val)}
	}
}
