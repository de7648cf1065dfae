package doc

import "github.com/warrendb/warrendb/internal/val"

// MutationKind selects which of the five write clauses spec §4.5 step
// 3 names produced this mutation. The statement parser (out of scope
// here) reduces SET/CONTENT/MERGE/PATCH/UNSET syntax down to one of
// these before handing a Mutation to Run.
type MutationKind uint8

const (
	MutationNone MutationKind = iota
	MutationContent
	MutationSet
	MutationMerge
	MutationPatch
	MutationUnset
)

// Mutation carries one record's write intent into stage 3 (alter).
// Data holds the assigned/merged object for Content/Set/Merge; Ops
// holds the structural edit list for Patch/Unset.
type Mutation struct {
	Kind MutationKind
	Data val.Value
	Ops  []val.Op
}

// alter applies mut to working, spec §4.5 step 3. CONTENT replaces the
// record outright; SET/MERGE overlay Data's top-level fields onto the
// existing object (a deeper per-path SET is the caller's job — by the
// time a Mutation reaches here, "SET a.b = 1" has already been reduced
// to an Ops-based Patch, not a Set/Merge Data blob); PATCH/UNSET apply
// their op list via val.Patch.
func alter(working val.Value, mut Mutation) (val.Value, error) {
	switch mut.Kind {
	case MutationNone:
		return working, nil
	case MutationContent:
		return mut.Data, nil
	case MutationSet, MutationMerge:
		return mergeTop(working, mut.Data), nil
	case MutationPatch, MutationUnset:
		return val.Patch(mut.Ops, working), nil
	default:
		return working, nil
	}
}

func mergeTop(working, data val.Value) val.Value {
	base := map[string]val.Value{}
	if obj, ok := working.AsObject(); ok {
		for k, v := range obj {
			base[k] = v
		}
	}
	if obj, ok := data.AsObject(); ok {
		for k, v := range obj {
			base[k] = v
		}
	}
	return val.Object(base)
}
