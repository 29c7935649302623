package config

import (
	"strings"

	"github.com/nao1215/colortag/internal/fetch"
)

// HostConfig holds request settings for one image host.
// Some CDNs reject hotlinked requests unless the Referer or User-Agent
// matches what their storefront sends.
type HostConfig struct {
	// Referer replaces the derived Referer header.
	Referer string `yaml:"referer,omitempty"`

	// UserAgent replaces the global User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .colortag configuration file.
type File struct {
	// Taxonomy is the path of a custom taxonomy file.
	// Relative paths are resolved against the config file directory.
	Taxonomy string `yaml:"taxonomy,omitempty"`

	// Hosts maps host names to their settings. A key also applies to
	// its subdomains (e.g., "example.com" covers "img.example.com").
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`

	// Defaults contains settings applied to all hosts unless overridden
	// in the host-specific configuration.
	Defaults HostConfig `yaml:"defaults,omitempty"`
}

// GetHostConfig returns the configuration for a specific host key.
// It merges the host-specific configuration with defaults.
func (cf *File) GetHostConfig(host string) HostConfig {
	result := HostConfig{
		Referer:   cf.Defaults.Referer,
		UserAgent: cf.Defaults.UserAgent,
	}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	hostConfig, ok := cf.lookup(host)
	if !ok {
		return result
	}
	if hostConfig.Referer != "" {
		result.Referer = hostConfig.Referer
	}
	if hostConfig.UserAgent != "" {
		result.UserAgent = hostConfig.UserAgent
	}
	if len(hostConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range hostConfig.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// lookup finds the settings for host, ignoring the case of both the
// argument and the file keys.
func (cf *File) lookup(host string) (HostConfig, bool) {
	if hc, ok := cf.Hosts[host]; ok {
		return hc, true
	}
	for key, hc := range cf.Hosts {
		if strings.EqualFold(key, host) {
			return hc, true
		}
	}
	return HostConfig{}, false
}

// Overrides converts the host settings into fetcher overrides.
// Defaults only reach hosts listed in the file; unlisted hosts use the
// global flags.
func (cf *File) Overrides() map[string]fetch.HostOverride {
	if len(cf.Hosts) == 0 {
		return nil
	}
	out := make(map[string]fetch.HostOverride, len(cf.Hosts))
	for host := range cf.Hosts {
		hc := cf.GetHostConfig(host)
		out[strings.ToLower(host)] = fetch.HostOverride{
			Referer:   hc.Referer,
			UserAgent: hc.UserAgent,
			Headers:   hc.Headers,
		}
	}
	return out
}
