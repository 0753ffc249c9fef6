package typeindex

import (
	"sort"

	"asset-merger/core/asset"
)

// Collision is a qualified name declared by more than one file.
type Collision struct {
	Name     string `json:"name"`
	Kept     string `json:"kept"`
	Rejected string `json:"rejected"`
}

// Database is the frozen type index of one tree.
type Database struct {
	Root string `json:"root"`
	// Types maps a fully-qualified type name to its defining file.
	Types map[string]string `json:"types"`
	// Shaders maps a shader lookup name to every file declaring it, in path order.
	Shaders    map[string][]string `json:"shaders"`
	Collisions []Collision         `json:"collisions,omitempty"`
	Skipped    []asset.Skip        `json:"skipped,omitempty"`
}

// Lookup returns the file defining a qualified type name.
func (d *Database) Lookup(name string) (string, bool) {
	path, ok := d.Types[name]
	return path, ok
}

// Names returns the qualified type names in sorted order.
func (d *Database) Names() []string {
	return sortedKeys(d.Types)
}

// ShaderNames returns the shader lookup names in sorted order.
func (d *Database) ShaderNames() []string {
	return sortedKeys(d.Shaders)
}

// ShaderPath returns the first file declaring a shader name.
func (d *Database) ShaderPath(name string) (string, bool) {
	paths := d.Shaders[name]
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
