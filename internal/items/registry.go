// Package items loads the item-type catalogue and serves read-only lookups
// for the item codecs. A Registry never changes after construction and is
// safe to share between connections.
package items

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/danmuck/netmsg/internal/game"
	"github.com/pelletier/go-toml/v2"
)

var (
	ErrDuplicateItem = errors.New("items: duplicate item id")
	ErrInvalidItem   = errors.New("items: invalid item type")
)

type Registry struct {
	byID map[uint16]game.ItemType
}

func New(types ...game.ItemType) (*Registry, error) {
	r := &Registry{byID: make(map[uint16]game.ItemType, len(types))}
	for i, it := range types {
		if err := validate(it); err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		if _, ok := r.byID[it.ID]; ok {
			return nil, fmt.Errorf("item[%d]: %w: %d", i, ErrDuplicateItem, it.ID)
		}
		r.byID[it.ID] = it
	}
	return r, nil
}

func validate(it game.ItemType) error {
	if it.ClientID == 0 {
		return fmt.Errorf("%w: id %d has no client_id", ErrInvalidItem, it.ID)
	}
	if it.Stackable && (it.IsSplash() || it.IsFluidContainer()) {
		return fmt.Errorf("%w: id %d is both stackable and %s", ErrInvalidItem, it.ID, it.Group)
	}
	return nil
}

func (r *Registry) Lookup(id uint16) (game.ItemType, bool) {
	it, ok := r.byID[id]
	return it, ok
}

func (r *Registry) Len() int {
	return len(r.byID)
}

// All returns the entries ordered by server id.
func (r *Registry) All() []game.ItemType {
	out := make([]game.ItemType, 0, len(r.byID))
	for _, it := range r.byID {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b game.ItemType) int {
		return int(a.ID) - int(b.ID)
	})
	return out
}

type fileItem struct {
	ID        uint16 `toml:"id"`
	ClientID  uint16 `toml:"client_id"`
	Name      string `toml:"name"`
	Stackable bool   `toml:"stackable"`
	Group     string `toml:"group"`
}

type catalogue struct {
	Items []fileItem `toml:"item"`
}

// Parse builds a registry from a TOML catalogue of [[item]] tables.
func Parse(data []byte) (*Registry, error) {
	var cat catalogue
	if err := toml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("items parse failed: %w", err)
	}
	types := make([]game.ItemType, 0, len(cat.Items))
	for i, fi := range cat.Items {
		group, err := game.ParseItemGroup(fi.Group)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		types = append(types, game.ItemType{
			ID:        fi.ID,
			ClientID:  fi.ClientID,
			Name:      strings.TrimSpace(fi.Name),
			Stackable: fi.Stackable,
			Group:     group,
		})
	}
	return New(types...)
}

func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("items load failed (%s): %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("items load failed (%s): %w", path, err)
	}
	return reg, nil
}
