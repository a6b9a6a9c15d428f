package validators

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrDomainEmpty   = errors.New("no domain provided")
	ErrDomainInvalid = errors.New("invalid domain format")
)

// Labels are 1-63 alphanumerics or hyphens that don't start or end with a
// hyphen. The last label is at least two letters.
var domainRe = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// NormalizeDomain strips the scheme, a leading www. and trailing slashes,
// then lowercases the result. Applying it twice gives the same value.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))

	for {
		before := d

		d = strings.TrimPrefix(d, "https://")
		d = strings.TrimPrefix(d, "http://")
		d = strings.TrimPrefix(d, "www.")
		d = strings.TrimRight(d, "/")
		d = strings.TrimSpace(d)

		if d == before {
			return d
		}
	}
}

// DomainValidator checks an already normalized domain
func DomainValidator(d string) error {
	if d == "" {
		return ErrDomainEmpty
	}

	if len(d) > 253 || !domainRe.MatchString(d) {
		return ErrDomainInvalid
	}

	return nil
}
