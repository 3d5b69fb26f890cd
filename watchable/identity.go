package watchable

import (
	"reflect"
)

// Identical is the default equality policy of a Watcher.
//
// Nodes are identical when they share a handler, raw maps when they are the same map, raw slices
// when they share backing array, length and capacity. Other values compare with == when their type is
// comparable; NaN is never identical to itself.
func Identical(a, b any) bool {
	an, aIsNode := a.(*Node)
	bn, bIsNode := b.(*Node)
	if aIsNode || bIsNode {
		if !aIsNode || !bIsNode {
			return false
		}

		if an == nil || bn == nil {
			return an == bn
		}

		return an.handler == bn.handler
	}

	ac, aIsComposite := newContainer(a)
	bc, bIsComposite := newContainer(b)
	if aIsComposite || bIsComposite {
		if !aIsComposite || !bIsComposite {
			return false
		}

		return ac.identity() == bc.identity()
	}

	return scalarEqual(a, b)
}

func scalarEqual(a, b any) (equal bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}

	if !ta.Comparable() {
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		switch ta.Kind() {
		case reflect.Map, reflect.Slice, reflect.Func:
			return va.IsNil() && vb.IsNil()
		default:
			return false
		}
	}

	// comparable types can still hold incomparable dynamic values, e.g. [1]any{[]int{}}
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()

	return a == b
}
