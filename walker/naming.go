package walker

import (
	"github.com/mogaika/scene_cache_converter/config"
)

// NamingPolicy picks the identity of a discovered node from its identity
// chain: enclosing transform name first, then intermediate transform names,
// then the shape's own name. Kept separate from traversal so new DCC naming
// conventions only touch this function.
type NamingPolicy func(chain []string) string

// DefaultNamingPolicy takes the deepest distinguishing name. Generic
// placeholders ("mesh", "object", ...) and boilerplate wrapper names ("root",
// "ReadGeo1", ...) defer to their ancestors; an all generic chain yields ""
// and the builder assigns a placeholder identity.
func DefaultNamingPolicy(chain []string) string {
	for i := len(chain) - 1; i >= 0; i-- {
		if !config.IsGenericShapeName(chain[i]) && !config.IsBoilerplateName(chain[i]) {
			return chain[i]
		}
	}
	return ""
}
