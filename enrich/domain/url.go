package domain

import (
	"net/url"
	"strings"
)

const MaxURLLength = 2048

// NormalizeURL valida e normaliza uma URL http(s) absoluta.
//
// Esquema e host vão para minúsculas, porta padrão e fragmento são removidos e
// path vazio vira "/". A query é mantida como veio (a ordem pode importar).
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ValidationError("url is required")
	}
	if len(raw) > MaxURLLength {
		return "", ValidationError("url too long")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ValidationError("invalid url")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ValidationError("unsupported scheme")
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return "", ValidationError("url must be absolute")
	}
	if u.User != nil {
		return "", ValidationError("credentials in url are not allowed")
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host = host + ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	u.ForceQuery = false

	return u.String(), nil
}
