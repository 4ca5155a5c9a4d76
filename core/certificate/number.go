package certificate

import (
	"crypto/subtle"
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	groupLen    = 4
	bodyGroups  = 4
	entropySize = 10 // 80 bits -> 16 base32 chars
	checkSize   = 5  // only the first group of the encoded digest is kept
)

// Crockford's alphabet: no I, L, O, U
var numberEncoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// NumberGenerator makes self-verifying certificate numbers: PREFIX-XXXX-XXXX-XXXX-XXXX-CCCC,
// where the last group is a keyed checksum of the prefix and the random body.
type NumberGenerator struct {
	prefix string
	key    [32]byte
}

func NewNumberGenerator(prefix, secret string) *NumberGenerator {
	return &NumberGenerator{
		prefix: strings.ReplaceAll(Normalize(prefix), "-", ""),
		key:    blake2b.Sum256([]byte("cheti.core.certificate.number:" + secret)),
	}
}

// New returns a fresh random certificate number.
func (g *NumberGenerator) New() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "reading entropy")
	}
	// skip the version & variant bits of the UUID
	var entropy [entropySize]byte
	copy(entropy[:6], id[:6])
	copy(entropy[6:], id[9:13])

	body := numberEncoding.EncodeToString(entropy[:])
	check, err := g.checksum(body)
	if err != nil {
		return "", err
	}

	groups := make([]string, 0, bodyGroups+2)
	if g.prefix != "" {
		groups = append(groups, g.prefix)
	}
	for i := 0; i < len(body); i += groupLen {
		groups = append(groups, body[i:i+groupLen])
	}
	groups = append(groups, check)
	return strings.Join(groups, "-"), nil
}

func (g *NumberGenerator) checksum(body string) (string, error) {
	h, err := blake2b.New(checkSize, g.key[:])
	if err != nil {
		return "", errors.Wrap(err, "creating checksum hash")
	}
	_, _ = h.Write([]byte(g.prefix))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(body))
	return numberEncoding.EncodeToString(h.Sum(nil))[:groupLen], nil
}

// Normalize uppercases a number typed by a human and maps ambiguous characters.
func Normalize(number string) string {
	number = strings.ToUpper(strings.TrimSpace(number))
	return strings.NewReplacer("O", "0", "I", "1", "L", "1", " ", "").Replace(number)
}

// Valid reports whether the (normalized) number was made by this generator.
// It does not tell whether a certificate with this number exists.
func (g *NumberGenerator) Valid(number string) bool {
	groups := strings.Split(number, "-")
	if g.prefix != "" {
		if len(groups) == 0 || groups[0] != g.prefix {
			return false
		}
		groups = groups[1:]
	}
	if len(groups) != bodyGroups+1 {
		return false
	}
	for _, grp := range groups {
		if len(grp) != groupLen {
			return false
		}
	}

	body := strings.Join(groups[:bodyGroups], "")
	if _, err := numberEncoding.DecodeString(body); err != nil {
		return false
	}
	check, err := g.checksum(body)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(check), []byte(groups[bodyGroups])) == 1
}
