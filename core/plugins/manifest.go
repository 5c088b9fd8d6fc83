package plugins

import (
	"fmt"

	"github.com/FocuswithJustin/nmerge/core/errors"
)

// ErrIncompatibleVersion is returned when a plugin needs a newer host.
var ErrIncompatibleVersion = fmt.Errorf("%w: incompatible plugin version", errors.ErrUnsupported)

// HostVersion is the version of the alignment host.
const HostVersion = "1.0.0"

// KindAlignment marks a plugin that aligns text into a document.
const KindAlignment = "alignment"

// PluginManifest describes a registered plugin.
type PluginManifest struct {
	PluginID       string       `json:"plugin_id"`
	Version        string       `json:"version"`
	Kind           string       `json:"kind"`
	MinHostVersion string       `json:"min_host_version,omitempty"`
	License        string       `json:"license,omitempty"`
	Capabilities   Capabilities `json:"capabilities,omitempty"`
}

// Capabilities lists what a plugin reads and writes.
type Capabilities struct {
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

// CheckPluginCompatibility checks a manifest against hostVersion.
func CheckPluginCompatibility(manifest *PluginManifest, hostVersion string) error {
	if manifest.MinHostVersion == "" {
		return nil
	}
	host, err := ParseSemVer(hostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid host version %q", hostVersion)
	}
	required, err := ParseSemVer(manifest.MinHostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid min_host_version in plugin %s", manifest.PluginID)
	}
	if !host.IsCompatibleWith(required) {
		return fmt.Errorf("%w: plugin %s requires host version %s, but current version is %s",
			ErrIncompatibleVersion, manifest.PluginID, required, host)
	}
	return nil
}
