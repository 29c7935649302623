package fetch

import (
	"net"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// DeriveReferer returns the storefront origin for an image URL:
// "https://www." followed by the registrable domain. Hosts without a
// registrable domain (IP addresses, localhost) get their own origin.
// An unparsable URL yields "".
func DeriveReferer(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	host := u.Hostname()
	origin := u.Scheme + "://" + u.Host + "/"
	if net.ParseIP(host) != nil {
		return origin
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return origin
	}
	return "https://www." + domain + "/"
}
