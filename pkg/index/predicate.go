package index

// Predicate decides whether a key is applicable.
type Predicate[K any] func(key K) bool

// All accepts every key.
func All[K any]() Predicate[K] {
	return func(K) bool {
		return true
	}
}

func And[K any](predicates ...Predicate[K]) Predicate[K] {
	return func(key K) bool {
		for _, predicate := range predicates {
			if !predicate(key) {
				return false
			}
		}
		return true
	}
}

func Or[K any](predicates ...Predicate[K]) Predicate[K] {
	return func(key K) bool {
		for _, predicate := range predicates {
			if predicate(key) {
				return true
			}
		}
		return false
	}
}

func Not[K any](predicate Predicate[K]) Predicate[K] {
	return func(key K) bool {
		return !predicate(key)
	}
}
