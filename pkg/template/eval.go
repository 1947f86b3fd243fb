package template

import (
	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/types"
)

// scope is a lexical lookup chain: the root frame wraps the caller's
// context, and each for loop pushes one frame binding its loop variable.
// Inner frames shadow outer ones only for their own variable name.
type scope struct {
	ctx    *types.Context
	name   string
	val    types.Value
	parent *scope
}

func newScope(ctx *types.Context) *scope {
	return &scope{ctx: ctx}
}

func (s *scope) child(name string, val types.Value) *scope {
	return &scope{ctx: s.ctx, name: name, val: val, parent: s}
}

func (s *scope) lookup(name string) (types.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.parent == nil {
			if cur.ctx == nil {
				return types.Undefined, false
			}
			return cur.ctx.Get(name)
		}
		if cur.name == name {
			return cur.val, true
		}
	}
	return types.Undefined, false
}

// resolvePath walks a dotted/indexed path through the scope. Resolution is
// partial: a missing name, a missing key, an out-of-range index or a step
// through a scalar all yield Undefined, never an error.
func resolvePath(path Path, sc *scope) types.Value {
	if len(path.Segments) == 0 {
		return types.Undefined
	}
	cur, ok := sc.lookup(path.Segments[0].Key)
	if !ok {
		return types.Undefined
	}
	for _, seg := range path.Segments[1:] {
		cur = stepInto(cur, seg)
		if cur.IsUndefined() {
			return types.Undefined
		}
	}
	return cur
}

func stepInto(v types.Value, seg Segment) types.Value {
	switch v.Kind() {
	case types.KindMapping:
		if seg.IsIndex {
			return types.Undefined
		}
		if got, ok := v.Mapping().Get(seg.Key); ok {
			return got
		}
		return types.Undefined
	case types.KindSequence:
		if !seg.IsIndex {
			return types.Undefined
		}
		items := v.Items()
		if seg.Index < 0 || seg.Index >= len(items) {
			return types.Undefined
		}
		return items[seg.Index]
	default:
		return types.Undefined
	}
}

// evalCondition answers a condition tree against the scope. Conditions
// never fail: resolution yields Undefined, and every test is total over the
// value kinds.
func evalCondition(c Condition, sc *scope) bool {
	switch cond := c.(type) {
	case CondTruthy:
		return resolvePath(cond.Path, sc).Truthy()
	case CondTest:
		v := resolvePath(cond.Path, sc)
		switch cond.Test {
		case TestDefined:
			return !v.IsUndefined()
		case TestIterable:
			return v.Kind() == types.KindSequence || v.Kind() == types.KindMapping
		case TestString:
			return v.Kind() == types.KindString
		}
		return false
	case CondNot:
		return !evalCondition(cond.Inner, sc)
	case CondAnd:
		return evalCondition(cond.Left, sc) && evalCondition(cond.Right, sc)
	case CondOr:
		return evalCondition(cond.Left, sc) || evalCondition(cond.Right, sc)
	default:
		return false
	}
}

// applyFilters runs a filter pipeline left to right
func applyFilters(table FilterTable, v types.Value, calls []FilterCall) (types.Value, error) {
	for _, call := range calls {
		fn, ok := table[call.Name]
		if !ok {
			return types.Undefined, errors.Newf(errors.ErrRender, "unknown filter %q", call.Name)
		}
		out, err := fn(v, call.Args)
		if err != nil {
			return types.Undefined, err
		}
		v = out
	}
	return v, nil
}
