// Package internal holds iterator helpers shared by the assembler packages.
package internal

import (
	"iter"
)

// IterSeq2Concat chains pair sequences, in order, into one sequence.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}
