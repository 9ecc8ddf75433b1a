package panelstate

import (
	"fmt"
	"reflect"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/ports"
	"github.com/aretw0/panelstate/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// Version is the library version reported by the CLI and the host bridges.
const Version = "0.3.0"

// GetOrCreateState returns the entry of reg for id, creating it from defaults
// and initial on first use. initial is optional; several values are merged in
// order. See registry.Registry.GetOrCreate for the memoization rules.
func GetOrCreateState(reg *registry.Registry, notifier ports.Notifier, id string, defaults *domain.Tree, initial ...*domain.Tree) *registry.Entry {
	var start *domain.Tree
	switch len(initial) {
	case 0:
	case 1:
		start = initial[0]
	default:
		start = domain.MergeCopy(initial...)
	}
	return reg.GetOrCreate(notifier, id, defaults, start)
}

// MergeTrees deep merges trees in order into a new map. The result may share
// subtrees with the inputs; see domain.Merge.
func MergeTrees(trees []*domain.Tree) *domain.Tree {
	return domain.Merge(trees...)
}

// Decode copies t into out, which must be a non-nil pointer. Struct fields are
// matched by their json tag. Numbers convert to the field's numeric kind.
func Decode(t *domain.Tree, out any) error {
	if rv := reflect.ValueOf(out); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode: want non-nil pointer, got %T", out)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := dec.Decode(t.Value()); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
