package saucerest

import (
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the US data center origin.
	DefaultBaseURL = "https://saucelabs.com"

	libraryName    = "saucerest-go"
	modulePath     = "github.com/samvad-hq/saucerest"
	unknownVersion = "unknown"

	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 60 * time.Second
)

// Version is stamped at link time:
//
//	-ldflags "-X github.com/samvad-hq/saucerest/pkg/saucerest.Version=v1.2.0"
var Version = ""

// ClientConfig holds per-client settings. It is copied into the client and
// never changed afterwards.
type ClientConfig struct {
	BaseURL        string
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultConfig returns the configuration used when fields are left empty.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:        DefaultBaseURL,
		UserAgent:      DefaultUserAgent(),
		ConnectTimeout: defaultConnectTimeout,
		ReadTimeout:    defaultReadTimeout,
	}
}

// DefaultUserAgent returns "saucerest-go/<version>".
func DefaultUserAgent() string {
	return libraryName + "/" + libraryVersion()
}

func libraryVersion() string {
	if v := strings.TrimSpace(Version); usableVersion(v) {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknownVersion
	}
	if info.Main.Path == modulePath && usableVersion(info.Main.Version) {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath && usableVersion(dep.Version) {
			return dep.Version
		}
	}
	return unknownVersion
}

func usableVersion(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "nil", "(devel)":
		return false
	}
	return true
}

// normalize fills defaults and validates the base URL.
func (c ClientConfig) normalize() (ClientConfig, error) {
	def := DefaultConfig()

	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return c, &MalformedURLError{URL: c.BaseURL, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return c, &MalformedURLError{URL: c.BaseURL, Err: errors.New("base url must be absolute")}
	}
	if u.User != nil {
		return c, fmt.Errorf("base url must not carry credentials: %w", ErrMalformedURL)
	}

	c.UserAgent = sanitizeUserAgent(c.UserAgent, def.UserAgent)
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	return c, nil
}

// sanitizeUserAgent never lets a missing version leak out as "/null".
func sanitizeUserAgent(ua, fallback string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return fallback
	}
	return strings.ReplaceAll(ua, "/null", "/"+unknownVersion)
}
