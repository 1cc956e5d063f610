package index

import "fmt"

// Pair is a two-field composite key.
type Pair[A, B comparable] struct {
	First  A
	Second B
}

func P[A, B comparable](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

func (k Pair[A, B]) String() string {
	return fmt.Sprintf("(%v, %v)", k.First, k.Second)
}

// Triple is a three-field composite key.
type Triple[A, B, C comparable] struct {
	First  A
	Second B
	Third  C
}

func T[A, B, C comparable](a A, b B, c C) Triple[A, B, C] {
	return Triple[A, B, C]{First: a, Second: b, Third: c}
}

func (k Triple[A, B, C]) String() string {
	return fmt.Sprintf("(%v, %v, %v)", k.First, k.Second, k.Third)
}

// Quad is a four-field composite key.
type Quad[A, B, C, D comparable] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

func Q[A, B, C, D comparable](a A, b B, c C, d D) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{First: a, Second: b, Third: c, Fourth: d}
}

func (k Quad[A, B, C, D]) String() string {
	return fmt.Sprintf("(%v, %v, %v, %v)", k.First, k.Second, k.Third, k.Fourth)
}

// Pairs returns the cartesian product of as and bs in row-major order.
func Pairs[A, B comparable](as []A, bs []B) []Pair[A, B] {
	out := make([]Pair[A, B], 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			out = append(out, P(a, b))
		}
	}
	return out
}

// Triples returns the cartesian product of as, bs and cs in row-major order.
func Triples[A, B, C comparable](as []A, bs []B, cs []C) []Triple[A, B, C] {
	out := make([]Triple[A, B, C], 0, len(as)*len(bs)*len(cs))
	for _, a := range as {
		for _, b := range bs {
			for _, c := range cs {
				out = append(out, T(a, b, c))
			}
		}
	}
	return out
}
