package vhost

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// The grammar is small and fixed, so regex extraction is sufficient.
// Blocks outside the grammar are silently excluded.
var (
	hostBlockRe = regexp.MustCompile(`(?s)host\s+"([^"]+)"\s*\{(.*?)\}`)
	proxyPassRe = regexp.MustCompile(`proxy_pass\s+http://([^\s;]+);`)
	policyRe    = regexp.MustCompile(`dist_policy\s+(-?[\w-]+)`)
)

// Parse builds a registry from proxy config text.
//
// When hostIP is non-empty, the placeholders $HOST and {{HOST}} are
// substituted before structural parsing, so one config template serves
// every deployment.
func Parse(configText, hostIP string) *Registry {
	if hostIP != "" {
		configText = strings.ReplaceAll(configText, "$HOST", hostIP)
		configText = strings.ReplaceAll(configText, "{{HOST}}", hostIP)
	}

	registry := NewRegistry()
	for _, block := range hostBlockRe.FindAllStringSubmatch(configText, -1) {
		hostname, body := block[1], block[2]

		var backends []string
		for _, pass := range proxyPassRe.FindAllStringSubmatch(body, -1) {
			backends = append(backends, pass[1])
		}

		policy := PolicyRoundRobin
		if m := policyRe.FindStringSubmatch(body); m != nil {
			policy = ParsePolicy(m[1])
		}

		registry.add(&VirtualHost{
			Hostname: hostname,
			Backends: backends,
			Policy:   policy,
		})
	}
	return registry
}

// ParseFile reads and parses a proxy config file.
func ParseFile(path, hostIP string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy config %q: %w", path, err)
	}
	return Parse(string(data), hostIP), nil
}
