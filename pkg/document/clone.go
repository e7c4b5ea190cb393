package document

// Clone produces an independent deep copy of a JSON-like value. The clone
// shares no mutable substructure with the input: assignments to the clone
// never affect the original and vice versa.
//
// Documents are assumed acyclic (plain JSON); cyclic input is not supported.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return cloneValue(doc).(map[string]interface{})
}

// CloneValue deep-copies any JSON-like value, not just a top-level object.
func CloneValue(v interface{}) interface{} {
	return cloneValue(v)
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			out[k] = cloneValue(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = cloneValue(child)
		}
		return out
	default:
		// Strings, numbers, booleans, nil are immutable. Anything exotic
		// (a function value, say) is passed through by reference as a
		// best-effort fallback; documents are plain data in practice.
		return val
	}
}
