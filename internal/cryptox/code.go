package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// NewNumericCode returns a uniformly random integer in [min, max], both
// inclusive, formatted in decimal.
func NewNumericCode(min, max int) (string, error) {
	if min < 0 || max < min {
		return "", fmt.Errorf("invalid code range [%d, %d]", min, max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min)+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+int64(min), 10), nil
}
