package template

import (
	"strings"
	"unicode/utf8"

	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/types"
)

// FilterFunc is a pure transformation applied to a resolved value during
// interpolation. Arguments are the literal arguments from the template.
type FilterFunc func(v types.Value, args []types.Value) (types.Value, error)

// FilterTable maps filter names to their implementations. It is built once
// when an Engine is constructed; there is no runtime registration.
type FilterTable map[string]FilterFunc

// DefaultFilters returns the standard filter table
func DefaultFilters() FilterTable {
	return FilterTable{
		"default": filterDefault,
		"join":    filterJoin,
		"upper":   filterUpper,
		"lower":   filterLower,
		"trim":    filterTrim,
		"length":  filterLength,
	}
}

// filterDefault substitutes its argument when the operand is undefined or
// null; any other operand passes through unchanged
func filterDefault(v types.Value, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Undefined, errors.Newf(errors.ErrFilterType,
			"default takes exactly one argument, got %d", len(args))
	}
	if v.IsUndefined() || v.IsNull() {
		return args[0], nil
	}
	return v, nil
}

// filterJoin renders each element of a sequence and interleaves the
// separator
func filterJoin(v types.Value, args []types.Value) (types.Value, error) {
	if len(args) != 1 || args[0].Kind() != types.KindString {
		return types.Undefined, errors.New(errors.ErrFilterType,
			"join takes exactly one string argument")
	}
	if v.Kind() != types.KindSequence {
		return types.Undefined, errors.Newf(errors.ErrFilterType,
			"join requires a sequence, got %s", v.Kind())
	}
	items := v.Items()
	parts := make([]string, 0, len(items))
	for i, elem := range items {
		s, err := elem.Display()
		if err != nil {
			return types.Undefined, errors.Wrapf(err, errors.ErrRender,
				"join: element %d has no display form", i)
		}
		parts = append(parts, s)
	}
	return types.String(strings.Join(parts, args[0].Str())), nil
}

func filterUpper(v types.Value, args []types.Value) (types.Value, error) {
	return mapString("upper", strings.ToUpper, v, args)
}

func filterLower(v types.Value, args []types.Value) (types.Value, error) {
	return mapString("lower", strings.ToLower, v, args)
}

func filterTrim(v types.Value, args []types.Value) (types.Value, error) {
	return mapString("trim", strings.TrimSpace, v, args)
}

// mapString applies a string transform. Undefined and null pass through so
// that optional fields can still be piped to default afterwards.
func mapString(name string, fn func(string) string, v types.Value, args []types.Value) (types.Value, error) {
	if len(args) != 0 {
		return types.Undefined, errors.Newf(errors.ErrFilterType,
			"%s takes no arguments, got %d", name, len(args))
	}
	if v.IsUndefined() || v.IsNull() {
		return v, nil
	}
	if v.Kind() != types.KindString {
		return types.Undefined, errors.Newf(errors.ErrFilterType,
			"%s requires a string, got %s", name, v.Kind())
	}
	return types.String(fn(v.Str())), nil
}

// filterLength counts sequence elements, mapping entries or string runes
func filterLength(v types.Value, args []types.Value) (types.Value, error) {
	if len(args) != 0 {
		return types.Undefined, errors.Newf(errors.ErrFilterType,
			"length takes no arguments, got %d", len(args))
	}
	switch v.Kind() {
	case types.KindSequence:
		return types.Int(len(v.Items())), nil
	case types.KindMapping:
		return types.Int(v.Mapping().Len()), nil
	case types.KindString:
		return types.Int(utf8.RuneCountInString(v.Str())), nil
	default:
		return types.Undefined, errors.Newf(errors.ErrFilterType,
			"length requires a sequence, mapping or string, got %s", v.Kind())
	}
}
