// Package emailutil classifies contact emails: free consumer providers are
// never accepted as evidence of which company is hiring.
package emailutil

import (
	"net/mail"
	"strings"
)

// freeProviders are consumer mail domains. An address on one of these tells
// us nothing about the hiring company.
var freeProviders = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"yahoo.co.uk":    {},
	"ymail.com":      {},
	"hotmail.com":    {},
	"hotmail.co.uk":  {},
	"outlook.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"aol.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"protonmail.com": {},
	"proton.me":      {},
	"gmx.com":        {},
	"gmx.net":        {},
	"mail.com":       {},
	"mail.ru":        {},
	"zoho.com":       {},
	"yandex.com":     {},
	"yandex.ru":      {},
}

// Domain returns the lower-cased domain part of an email address, or "" if
// the address is unparsable.
func Domain(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	// Tolerate "Name <user@host>" headers as well as bare addresses.
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}

// IsFreeProvider reports whether the address belongs to a consumer mail
// provider.
func IsFreeProvider(addr string) bool {
	d := Domain(addr)
	if d == "" {
		return false
	}
	_, ok := freeProviders[d]
	return ok
}

// IsCorporate reports whether the address has a parsable domain that is not a
// free consumer provider.
func IsCorporate(addr string) bool {
	d := Domain(addr)
	if d == "" {
		return false
	}
	_, free := freeProviders[d]
	return !free
}

// CompanyFromDomain turns "acme.io" into "Acme", a usable display name when
// the post gives us nothing better.
func CompanyFromDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return ""
	}
	base := domain
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return ""
	}
	return strings.ToUpper(base[:1]) + base[1:]
}
