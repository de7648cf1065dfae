package doc

import (
	"strings"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/errs"
	"github.com/warrendb/warrendb/internal/val"
)

// applyFieldSchema runs stage 4: for each defined field, evaluate its
// computed VALUE expression (if any) via eval, then coerce the result
// to the field's declared Kind. A coercion failure on a non-Optional
// field fails the record with KindFieldCheck; an Optional field that
// fails to coerce is dropped (left absent) rather than failing.
func applyFieldSchema(working val.Value, fields []catalog.Field, eval func(expr string, before, working val.Value) (val.Value, error), before val.Value) (val.Value, error) {
	obj, _ := working.AsObject()
	out := make(map[string]val.Value, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	for _, f := range fields {
		cur, present := out[f.Name]
		if !present {
			cur = f.Default
		}
		if f.Computed != "" && eval != nil {
			v, err := eval(f.Computed, before, working)
			if err != nil {
				return val.Value{}, err
			}
			cur = v
		}
		if cur.IsNone() && !present && f.Default.IsNone() {
			continue
		}
		coerced, ok := val.Coerce(cur, f.Kind)
		if !ok {
			if f.Optional {
				delete(out, f.Name)
				continue
			}
			return val.Value{}, errs.New(errs.KindFieldCheck, "doc.applyFieldSchema", nil)
		}
		if coerced.IsNullish() && !f.Optional && f.Default.IsNone() {
			return val.Value{}, errs.New(errs.KindNotNullViolation, "doc.applyFieldSchema", nil)
		}
		out[f.Name] = coerced
	}
	return val.Object(out), nil
}

// resetReservedFields runs stage 5: reserved fields (id, in, out) are
// always re-assigned from the persisted original, never from the
// mutation, so a statement's SET/CONTENT clause can never smuggle a
// different id/endpoint onto an existing record.
func resetReservedFields(working, before val.Value, id val.RecordID) val.Value {
	obj, _ := working.AsObject()
	out := make(map[string]val.Value, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	out["id"] = val.FromRecordID(id)
	if beforeObj, ok := before.AsObject(); ok {
		for _, reserved := range []string{"in", "out"} {
			if v, ok := beforeObj[reserved]; ok {
				out[reserved] = v
			}
		}
	}
	return val.Object(out)
}

// cleanToSchema runs stage 6: on a SCHEMAFULL table, drop any
// top-level field not present in the schema, except a dotted-path
// field whose prefix matches a FLEX field (spec §4.5 step 6 "respecting
// FLEX subtrees") — a FLEX field's own subtree is left untouched
// regardless of shape.
func cleanToSchema(working val.Value, fields []catalog.Field) val.Value {
	obj, ok := working.AsObject()
	if !ok {
		return working
	}
	allowed := map[string]bool{"id": true, "in": true, "out": true}
	flexPrefixes := make([]string, 0)
	for _, f := range fields {
		allowed[topLevel(f.Name)] = true
		if f.Flex {
			flexPrefixes = append(flexPrefixes, topLevel(f.Name))
		}
	}
	out := make(map[string]val.Value, len(obj))
	for k, v := range obj {
		if allowed[k] {
			out[k] = v
			continue
		}
		for _, p := range flexPrefixes {
			if k == p || strings.HasPrefix(k, p+".") {
				out[k] = v
				break
			}
		}
	}
	return val.Object(out)
}

func topLevel(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}
