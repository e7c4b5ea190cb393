package document

// Equal reports structural deep equality over JSON-like values.
//
// Objects compare order-independently over keys, with a key-set cardinality
// check before recursing. Arrays compare order-dependently and are
// length-sensitive. nil only equals nil; it is never coerced to a zero
// value of another type.
func Equal(a, b interface{}) bool {
	switch av := a.(type) {
	case nil:
		return b == nil

	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, aChild := range av {
			bChild, exists := bv[k]
			if !exists || !Equal(aChild, bChild) {
				return false
			}
		}
		return true

	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true

	default:
		// Numbers may arrive as float64 (decoded JSON) or int (documents
		// built in code); compare them numerically across the two.
		if af, aok := asFloat(a); aok {
			bf, bok := asFloat(b)
			return bok && af == bf
		}
		// Remaining primitives (string, bool). Dynamic types of a and b
		// differ or are comparable here, so == cannot panic.
		return a == b
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
