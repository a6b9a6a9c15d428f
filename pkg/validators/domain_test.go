package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.Example.com/": "example.com",
		"WWW.Example.COM/":         "example.com",
		"  http://startup.io//  ":  "startup.io",
		"example.com":              "example.com",
		"https://www.www.acme.dev": "acme.dev",
		"":                         "",
		"   ":                      "",
	}

	for in, want := range cases {
		assert.Equal(t, want, NormalizeDomain(in), "input %q", in)
	}
}

func TestNormalizeDomainIsIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.Example.com/",
		"http://https://www.example.com",
		"www./",
		" HTTPS://WWW.sub.Domain.co.uk/// ",
		"not a domain",
		"https://",
		"www.www.www.",
	}

	for _, in := range inputs {
		once := NormalizeDomain(in)
		assert.Equal(t, once, NormalizeDomain(once), "input %q", in)
	}
}

func TestDomainValidator(t *testing.T) {
	valid := []string{"example.com", "sub.example.co.uk", "a-b.io", "x1.dev", "123.example.org"}
	for _, d := range valid {
		assert.NoError(t, DomainValidator(d), d)
	}

	assert.ErrorIs(t, DomainValidator(""), ErrDomainEmpty)

	invalid := []string{
		"localhost",
		"-bad.com",
		"bad-.com",
		"example.c",
		"example.123",
		"exa mple.com",
		"example..com",
		"example.com/path",
	}
	for _, d := range invalid {
		assert.ErrorIs(t, DomainValidator(d), ErrDomainInvalid, d)
	}
}
