package invite

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
)

// tokenEntropyBytes gives 256 bits of entropy per token; tokens are not
// derived from anything guessable.
const tokenEntropyBytes = 32

var nowFunc = time.Now // mockable

// makeToken generates an opaque, URL-safe invite token.
func makeToken() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
