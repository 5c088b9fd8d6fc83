// Package embedded links every built-in plugin into the binary. Importing it
// runs each plugin's init function, which registers the plugin with the
// embedded registry in core/plugins.
package embedded

import (
	"github.com/FocuswithJustin/nmerge/core/plugins"

	// Alignment plugins
	_ "github.com/FocuswithJustin/nmerge/internal/mvdadd"
)

// IsInitialized reports whether the built-in plugins have been registered.
func IsInitialized() bool {
	return plugins.HasEmbeddedPlugin("mvd.add")
}

// PluginCount returns the number of registered embedded plugins.
func PluginCount() int {
	return len(plugins.ListEmbeddedPlugins())
}
