// Package plugins defines the capability every alignment-producing plugin
// implements and the registry of plugins compiled into the binary.
package plugins

import (
	"io"
	"slices"
	"strings"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/mvd"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

// Capability is the contract of a plugin that works on a document.
type Capability interface {
	// Process performs one operation on doc, reading data and writing any
	// result to out.
	Process(doc *mvd.Document, options string, data []byte, out io.Writer) error

	// Help describes the plugin and its options.
	Help() string

	// Version describes the plugin version.
	Version() string

	// Name is the canonical short identifier.
	Name() string

	// Test runs the plugin's self-checks, counting each assertion in passed
	// or failed. It reports whether all of them passed.
	Test(passed, failed *int) bool
}

// EmbeddedPlugin wraps a handler with its manifest.
type EmbeddedPlugin struct {
	Manifest *PluginManifest
	Handler  Capability
}

// embeddedRegistry holds all embedded plugins.
var embeddedRegistry = make(map[string]*EmbeddedPlugin)

// RegisterEmbeddedPlugin registers an embedded plugin by its plugin ID.
// Plugins that need a newer host are logged and skipped.
func RegisterEmbeddedPlugin(p *EmbeddedPlugin) {
	if p.Manifest == nil || p.Manifest.PluginID == "" || p.Handler == nil {
		return
	}
	if err := CheckPluginCompatibility(p.Manifest, HostVersion); err != nil {
		logging.PluginError(p.Manifest.PluginID, "register", err)
		return
	}
	embeddedRegistry[p.Manifest.PluginID] = p
	logging.PluginLoading(p.Manifest.PluginID, p.Manifest.Version, "name", p.Handler.Name())
}

// GetEmbeddedPlugin returns an embedded plugin by ID, or nil if not found.
func GetEmbeddedPlugin(id string) *EmbeddedPlugin {
	return embeddedRegistry[id]
}

// FindEmbeddedPlugin looks a plugin up by ID or by handler name.
func FindEmbeddedPlugin(name string) (*EmbeddedPlugin, error) {
	if p := embeddedRegistry[name]; p != nil {
		return p, nil
	}
	for _, p := range embeddedRegistry {
		if strings.EqualFold(p.Handler.Name(), name) {
			return p, nil
		}
	}
	return nil, errors.NewNotFound("plugin", name)
}

// ListEmbeddedPlugins returns all registered embedded plugins sorted by ID.
func ListEmbeddedPlugins() []*EmbeddedPlugin {
	result := make([]*EmbeddedPlugin, 0, len(embeddedRegistry))
	for _, p := range embeddedRegistry {
		result = append(result, p)
	}
	slices.SortFunc(result, func(a, b *EmbeddedPlugin) int {
		return strings.Compare(a.Manifest.PluginID, b.Manifest.PluginID)
	})
	return result
}

// HasEmbeddedPlugin checks if an embedded plugin with the given ID exists.
func HasEmbeddedPlugin(id string) bool {
	_, ok := embeddedRegistry[id]
	return ok
}

// ClearEmbeddedRegistry clears all registered embedded plugins (for testing).
func ClearEmbeddedRegistry() {
	embeddedRegistry = make(map[string]*EmbeddedPlugin)
}

// ExecuteEmbeddedPlugin runs the named plugin's Process on doc.
func ExecuteEmbeddedPlugin(name string, doc *mvd.Document, options string, data []byte, out io.Writer) error {
	p, err := FindEmbeddedPlugin(name)
	if err != nil {
		return err
	}
	if err := p.Handler.Process(doc, options, data, out); err != nil {
		logging.PluginError(p.Manifest.PluginID, "process", err)
		return errors.Wrapf(err, "plugin %s", p.Manifest.PluginID)
	}
	return nil
}

// TestEmbeddedPlugins runs every plugin's self-checks and reports whether
// all of them passed.
func TestEmbeddedPlugins(passed, failed *int) bool {
	ok := true
	for _, p := range ListEmbeddedPlugins() {
		if !p.Handler.Test(passed, failed) {
			logging.Warn("self-test failed", "plugin_id", p.Manifest.PluginID)
			ok = false
			continue
		}
		logging.Info("self-test passed", "plugin_id", p.Manifest.PluginID)
	}
	return ok
}
