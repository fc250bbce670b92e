package copydoc

// DeepMerge overlays override onto base.
//
//   - absent override: base is kept
//   - either side an array: the override wins wholesale
//   - either side not an object: the override wins
//   - both objects: keys are merged recursively, override first
//
// Inputs are never modified; unchanged subtrees are shared with the result.
func DeepMerge(base, override Value) Value {
	if !override.Exists() {
		return base
	}
	if base.kind == KindArray || override.kind == KindArray {
		return override
	}
	if base.kind != KindObject || override.kind != KindObject {
		return override
	}

	merged := make(map[string]Value, len(base.obj)+len(override.obj))
	for k, v := range base.obj {
		merged[k] = v
	}
	for k, ov := range override.obj {
		merged[k] = DeepMerge(base.obj[k], ov)
	}
	return Value{kind: KindObject, obj: merged}
}
