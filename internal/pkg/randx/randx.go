/*
Package randx provides random values for visitor identities: generated display names,
and local visitor keys. It uses crypto/rand so generated names and keys are not
predictable from one another.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// DisplayNamePrefix prefixes generated display names.
	DisplayNamePrefix = "User"

	// DisplayNameSpace is the exclusive upper bound of the generated number (0..9999).
	DisplayNameSpace = 10000

	// GuestIDPrefix is the prefix of every guest user id, local or server-issued.
	GuestIDPrefix = "guest_"
)

// IntN returns a uniform random integer in [0, n). It falls back to 0 if the
// system random source fails.
func IntN(n int) int {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(num.Int64())
}

// DisplayName generates "User<0-9999>".
func DisplayName() string {
	return fmt.Sprintf("%s%d", DisplayNamePrefix, IntN(DisplayNameSpace))
}

// VisitorKey generates a local visitor key for when the API cannot issue one.
func VisitorKey() string {
	return "local_" + uuid.New().String()
}
