package concrnt

import (
	"fmt"
	"net/url"
	"strings"
)

func ParseCCURI(escaped string) (string, string, error) {
	uriString, err := url.QueryUnescape(escaped)
	if err != nil {
		return "", "", fmt.Errorf("invalid uri encoding")
	}
	uri, err := url.Parse(uriString)
	if err != nil {
		return "", "", fmt.Errorf("invalid uri")
	}

	if uri.Scheme != "cc" {
		return "", "", fmt.Errorf("unsupported uri scheme")
	}

	owner := uri.Host
	key := strings.TrimPrefix(uri.Path, "/")

	return owner, key, nil
}

func ComposeCCURI(owner, key string) string {
	u := &url.URL{
		Scheme: "cc",
		Host:   owner,
		Path:   "/" + strings.TrimPrefix(key, "/"),
	}
	return u.String()
}

func IsCCID(keyID string) bool {
	return len(keyID) == 42 && keyID[:3] == "con" && !strings.Contains(keyID, ".")
}

func IsCSID(keyID string) bool {
	return len(keyID) == 42 && keyID[:3] == "ccs" && !strings.Contains(keyID, ".")
}

// NodeBaseURL turns a repository host into a base URL. Hosts given with an
// explicit scheme are kept as-is; bare domains are assumed to be https.
func NodeBaseURL(host string) string {
	host = strings.TrimSuffix(host, "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// NodeHost strips the scheme and any path from a repository host.
func NodeHost(host string) string {
	if !strings.Contains(host, "://") {
		return strings.TrimSuffix(host, "/")
	}
	u, err := url.Parse(host)
	if err != nil {
		return host
	}
	return u.Host
}
