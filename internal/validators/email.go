package validators

import (
	"net"
	"strings"
)

// IsEmailDomainValid reports whether the domain part of an address
// resolves at all: MX records first, any A/AAAA record as fallback.
// It is a liveness check on the domain, not a deliverability check.
func IsEmailDomainValid(email string) bool {
	host, ok := emailDomain(email)
	if !ok {
		return false
	}

	if mx, err := net.LookupMX(host); err == nil && len(mx) > 0 {
		return true
	}

	ips, err := net.LookupIP(host)
	return err == nil && len(ips) > 0
}

// emailDomain extracts the host after the last '@'. Both the local
// part and the domain must be non-empty.
func emailDomain(email string) (string, bool) {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", false
	}

	return strings.ToLower(email[at+1:]), true
}
