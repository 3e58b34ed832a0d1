package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Hosts trusted as style inspiration sources in strict mode.
var trustedStyleHosts = []string{
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"instagram.com",
	"pinterest.com",
}

var (
	ErrPrivateIP     = fmt.Errorf("URL resolves to private IP address")
	ErrUntrustedHost = fmt.Errorf("URL host is not trusted")
	ErrInvalidScheme = fmt.Errorf("only HTTPS URLs are allowed")
)

// ValidateStyleURL checks a user-entered inspiration link before it is
// embedded in a prompt. Strict mode limits hosts to known style sites.
func ValidateStyleURL(rawURL string, strictMode bool) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "https" {
		return ErrInvalidScheme
	}

	host := parsed.Hostname()

	if strictMode && !isTrustedHost(host) {
		return ErrUntrustedHost
	}

	return validateHostIP(host)
}

func isTrustedHost(host string) bool {
	host = strings.ToLower(host)
	for _, trusted := range trustedStyleHosts {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}
	return false
}

func validateHostIP(host string) error {
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrPrivateIP
		}
		return nil
	}
	if strings.EqualFold(host, "localhost") {
		return ErrPrivateIP
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 0: // 0.0.0.0/8
			return true
		case ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127: // 100.64.0.0/10 (CGNAT)
			return true
		case ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 0: // 192.0.0.0/24
			return true
		case ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 2: // TEST-NET-1
			return true
		case ip4[0] == 198 && ip4[1] == 51 && ip4[2] == 100: // TEST-NET-2
			return true
		case ip4[0] == 203 && ip4[1] == 0 && ip4[2] == 113: // TEST-NET-3
			return true
		case ip4[0] >= 224 && ip4[0] <= 239: // multicast
			return true
		case ip4[0] >= 240: // reserved
			return true
		}
	}

	return false
}
