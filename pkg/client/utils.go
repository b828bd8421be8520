package client

import (
	"net/url"

	"github.com/bobesa/go-domain-util/domainutil"
)

// parseTrackerDomain extracts the registrable domain from an announce url,
// falling back to the raw host for bare hostnames and IPs. The url is parsed
// first: domainutil does not understand ports or udp schemes.
func parseTrackerDomain(trackerURL string) string {
	if u, err := url.Parse(trackerURL); err == nil && u.Hostname() != "" {
		if domain := domainutil.Domain(u.Hostname()); domain != "" {
			return domain
		}

		return u.Hostname()
	}

	if domain := domainutil.Domain(trackerURL); domain != "" {
		return domain
	}

	return trackerURL
}
