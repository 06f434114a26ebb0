package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// portsFile is the on-disk shape of a custom port registry:
//
//	ports:
//	  HTTP: [3128, 8000]
//	  TLS: [8443]
type portsFile struct {
	Ports map[string][]uint16 `yaml:"ports"`
}

// LoadPortOverrides reads a YAML port registry and returns a port-to-protocol
// map suitable for WithPortOverrides. Unknown protocol names are rejected so
// typos do not silently drop rules.
func LoadPortOverrides(path string) (map[uint16]Protocol, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ports file: %w", err)
	}

	var file portsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ports file %s: %w", path, err)
	}

	overrides := make(map[uint16]Protocol)
	for name, ports := range file.Ports {
		proto := ProtocolByName(name)
		if proto == ProtoUnknown {
			return nil, fmt.Errorf("ports file %s: unknown protocol %q", path, name)
		}
		for _, port := range ports {
			overrides[port] = proto
		}
	}
	return overrides, nil
}
