package types

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/arthur-debert/forge/pkg/errors"
)

// Kind discriminates the variants of a Value
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// Value is the tagged union of data shapes a template can observe.
// The zero Value is Undefined, the sentinel that distinguishes "name never
// bound" from "bound to null" during path resolution.
type Value struct {
	kind    Kind
	boolVal bool
	numVal  float64
	strVal  string
	seqVal  []Value
	mapVal  *Mapping
}

// Undefined is the sentinel returned when path resolution fails
var Undefined = Value{kind: KindUndefined}

// Null creates a null Value
func Null() Value {
	return Value{kind: KindNull}
}

// Bool creates a boolean Value
func Bool(b bool) Value {
	return Value{kind: KindBool, boolVal: b}
}

// Number creates a numeric Value
func Number(n float64) Value {
	return Value{kind: KindNumber, numVal: n}
}

// Int creates a numeric Value from an integer
func Int(i int) Value {
	return Number(float64(i))
}

// String creates a string Value
func String(s string) Value {
	return Value{kind: KindString, strVal: s}
}

// Sequence creates a sequence Value with the given elements
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seqVal: items}
}

// Map creates a mapping Value backed by m. The mapping is shared by
// reference; callers own it for the duration of any render that sees it.
func Map(m *Mapping) Value {
	return Value{kind: KindMapping, mapVal: m}
}

// Kind returns the variant tag of the value
func (v Value) Kind() Kind {
	return v.kind
}

// IsUndefined reports whether the value is the Undefined sentinel
func (v Value) IsUndefined() bool {
	return v.kind == KindUndefined
}

// IsNull reports whether the value is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Bool returns the boolean payload; false for other kinds
func (v Value) Bool() bool {
	return v.boolVal
}

// Num returns the numeric payload; 0 for other kinds
func (v Value) Num() float64 {
	return v.numVal
}

// Str returns the string payload; "" for other kinds
func (v Value) Str() string {
	return v.strVal
}

// Items returns the sequence elements; nil for other kinds
func (v Value) Items() []Value {
	return v.seqVal
}

// Mapping returns the mapping payload; nil for other kinds
func (v Value) Mapping() *Mapping {
	return v.mapVal
}

// Truthy reports template truthiness: null, undefined, false, zero, the
// empty string and empty sequences/mappings are falsy, everything else true
func (v Value) Truthy() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.boolVal
	case KindNumber:
		return v.numVal != 0
	case KindString:
		return v.strVal != ""
	case KindSequence:
		return len(v.seqVal) > 0
	case KindMapping:
		return v.mapVal != nil && v.mapVal.Len() > 0
	default:
		return false
	}
}

// Display converts a scalar value to its output form. Undefined and null
// display as the empty string. Sequences and mappings have no display form;
// they must be consumed by a filter such as join first.
func (v Value) Display() (string, error) {
	switch v.kind {
	case KindUndefined, KindNull:
		return "", nil
	case KindBool:
		if v.boolVal {
			return "true", nil
		}
		return "false", nil
	case KindNumber:
		return strconv.FormatFloat(v.numVal, 'f', -1, 64), nil
	case KindString:
		return v.strVal, nil
	default:
		return "", errors.Newf(errors.ErrRender,
			"cannot render a %s directly; apply a filter such as join first", v.kind)
	}
}

// Mapping is an ordered mapping from string keys to Values. Iteration and
// display follow insertion order.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping creates an empty ordered mapping
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Set binds key to value, appending the key on first use. Returns the
// mapping for chaining.
func (m *Mapping) Set(key string, v Value) *Mapping {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// Get returns the value bound to key and whether it exists
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (m *Mapping) Keys() []string {
	return m.keys
}

// Len returns the number of entries
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Context is the data bound to a single render or expansion call. It must
// not be mutated while a render holding a reference to it is in flight.
type Context struct {
	vars *Mapping
}

// NewContext creates an empty context
func NewContext() *Context {
	return &Context{vars: NewMapping()}
}

// Set binds name to value. Returns the context for chaining.
func (c *Context) Set(name string, v Value) *Context {
	c.vars.Set(name, v)
	return c
}

// Get returns the value bound to name and whether it exists
func (c *Context) Get(name string) (Value, bool) {
	return c.vars.Get(name)
}

// Names returns the bound names in insertion order
func (c *Context) Names() []string {
	return c.vars.Keys()
}

// FromAny converts a dynamically typed value (as produced by YAML, TOML or
// JSON decoding) into a Value. Map keys are sorted so that conversion of
// unordered Go maps is deterministic.
func FromAny(raw interface{}) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(float64(val)), nil
	case int8:
		return Number(float64(val)), nil
	case int16:
		return Number(float64(val)), nil
	case int32:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint:
		return Number(float64(val)), nil
	case uint8:
		return Number(float64(val)), nil
	case uint16:
		return Number(float64(val)), nil
	case uint32:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case float32:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	case string:
		return String(val), nil
	case []interface{}:
		items := make([]Value, 0, len(val))
		for i, elem := range val {
			converted, err := FromAny(elem)
			if err != nil {
				return Undefined, errors.Wrapf(err, errors.ErrContextParse,
					"converting sequence element %d", i)
			}
			items = append(items, converted)
		}
		return Sequence(items...), nil
	case []string:
		items := make([]Value, 0, len(val))
		for _, elem := range val {
			items = append(items, String(elem))
		}
		return Sequence(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			converted, err := FromAny(val[k])
			if err != nil {
				return Undefined, errors.Wrapf(err, errors.ErrContextParse,
					"converting key %q", k)
			}
			m.Set(k, converted)
		}
		return Map(m), nil
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(val))
		for k, v := range val {
			normalized[fmt.Sprintf("%v", k)] = v
		}
		return FromAny(normalized)
	default:
		return Undefined, errors.Newf(errors.ErrContextParse,
			"unsupported data type %T", raw)
	}
}

// ContextFromAny converts a decoded top-level map into a Context
func ContextFromAny(raw map[string]interface{}) (*Context, error) {
	converted, err := FromAny(raw)
	if err != nil {
		return nil, err
	}
	ctx := NewContext()
	m := converted.Mapping()
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		ctx.Set(key, v)
	}
	return ctx, nil
}
