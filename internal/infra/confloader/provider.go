package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

var errNoBytes = errors.New("confloader: value layers have no byte form")

// mapProvider feeds an in-memory layer to koanf. Keys may be dotted or
// already nested.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) { return nil, errNoBytes }

func (m mapProvider) Read() (map[string]any, error) {
	flat, _ := maps.Flatten(maps.Copy(m), nil, ".")
	return maps.Unflatten(flat, "."), nil
}
