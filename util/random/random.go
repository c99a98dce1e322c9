// Package random generates random strings from a crypto/rand source.
package random

import (
	"crypto/rand"
	"math/big"
)

var hexSeq [16]rune

func init() {
	for i := 0; i < 10; i++ {
		hexSeq[i] = rune('0' + i)
	}
	for i := 0; i < 6; i++ {
		hexSeq[10+i] = rune('a' + i)
	}
}

// Hex returns n random lowercase hexadecimal digits.
func Hex(n int) string {
	runes := make([]rune, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(hexSeq))))
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		runes[i] = hexSeq[idx.Int64()]
	}
	return string(runes)
}
