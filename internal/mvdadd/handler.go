// Package mvdadd provides the embedded "add" plugin, which aligns a new
// version against a multi-version document and merges it in.
package mvdadd

import (
	"fmt"

	"github.com/FocuswithJustin/nmerge/core/plugins"
)

const (
	name    = "add"
	version = "1.0.0"
)

// Handler implements plugins.Capability for adding versions.
type Handler struct{}

// Manifest returns the plugin manifest for registration.
func Manifest() *plugins.PluginManifest {
	return &plugins.PluginManifest{
		PluginID:       "mvd.add",
		Version:        version,
		Kind:           plugins.KindAlignment,
		MinHostVersion: "1.0.0",
		License:        "GPL-3.0",
		Capabilities: plugins.Capabilities{
			Inputs:  []string{"mvd", "text/plain;charset=utf-8"},
			Outputs: []string{"application/json", "text/plain", "application/x-xz"},
		},
	}
}

// Register registers this plugin with the embedded registry.
func Register() {
	plugins.RegisterEmbeddedPlugin(&plugins.EmbeddedPlugin{
		Manifest: Manifest(),
		Handler:  &Handler{},
	})
}

func init() {
	Register()
}

// Name implements plugins.Capability.Name.
func (h *Handler) Name() string { return name }

// Version implements plugins.Capability.Version.
func (h *Handler) Version() string {
	return fmt.Sprintf("%s %s (host %s)", name, version, plugins.HostVersion)
}

// Help implements plugins.Capability.Help.
func (h *Handler) Help() string {
	return `add: align a new version against the document and merge it in.
The data is the UTF-8 text of the new version.

Options:
  -s, --short-name=NAME   short name of the new version (default vN)
  -l, --long-name=NAME    long name of the new version
  -g, --group=GROUP       group the new version belongs to
  -m, --min-match=N       shortest run of shared text to align (default 3)
      --format=FORMAT     report format: json or text (default json)
      --xz                compress the report with xz
      --log-level=LEVEL   reconfigure logging: debug, info, warn or error
      --log-format=FORMAT reconfigure logging output: json or text

Values containing spaces must be quoted: -l "King James Version".
`
}
