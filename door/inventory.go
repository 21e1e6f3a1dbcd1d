package door

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// KeyHolder is what the player-facing entry point checks keys against.
type KeyHolder interface {
	ConsumeKey() bool
	HasSpecial(id string) bool
}

// Inventory counts consumable basic keys and remembers possessed special keys.
type Inventory struct {
	keys    int
	special mapset.Set[string]
}

func NewInventory() *Inventory {
	return &Inventory{special: mapset.New[string]()}
}

func (inv *Inventory) AddKeys(n int) {
	if n > 0 {
		inv.keys += n
	}
}

func (inv *Inventory) Keys() int {
	return inv.keys
}

func (inv *Inventory) ConsumeKey() bool {
	if inv.keys <= 0 {
		return false
	}
	inv.keys--
	return true
}

func (inv *Inventory) GrantSpecial(id string) {
	inv.special.Put(id)
}

func (inv *Inventory) RevokeSpecial(id string) {
	inv.special.Remove(id)
}

func (inv *Inventory) HasSpecial(id string) bool {
	return inv.special.Has(id)
}

// Specials lists the special keys, sorted.
func (inv *Inventory) Specials() []string {
	out := make([]string, 0, inv.special.Size())
	inv.special.Each(func(id string) {
		out = append(out, id)
	})
	sort.Strings(out)
	return out
}
