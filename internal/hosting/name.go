package hosting

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxNameBase leaves room for the suffix within the provider's 63 character limit.
const maxNameBase = 40

// SiteName derives a provider site name from a business name: diacritics
// folded, lowercased, runs of other characters collapsed to "-", trimmed,
// and suffixed with six random hex characters.
func SiteName(business string) string {
	return slug(business) + "-" + randomSuffix()
}

func slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.Trim(b.String(), "-")
	if len(out) > maxNameBase {
		out = strings.TrimRight(out[:maxNameBase], "-")
	}
	if out == "" {
		out = "site"
	}
	return out
}

func randomSuffix() string {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "000000"
	}
	return hex.EncodeToString(b[:])
}
