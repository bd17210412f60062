package data

import (
	"fmt"
	"io/fs"
)

// ItemDef is a static craftable item. Effects are numeric and scale with
// quality; Properties are carried through unchanged.
type ItemDef struct {
	ID         string
	Name       string
	Type       string
	Effects    map[string]float64
	Properties map[string]string
}

type itemEntry struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Type       string             `yaml:"type"`
	Effects    map[string]float64 `yaml:"effects"`
	Properties map[string]string  `yaml:"properties"`
}

type itemListFile struct {
	Items []itemEntry `yaml:"items"`
}

// ItemTable provides lookup of item definitions by id.
type ItemTable struct {
	items map[string]*ItemDef
}

// LoadItemTable loads item definitions from YAML.
func LoadItemTable(fsys fs.FS, name string) (*ItemTable, error) {
	var f itemListFile
	if err := readYAML(fsys, name, &f); err != nil {
		return nil, err
	}
	t := &ItemTable{items: make(map[string]*ItemDef, len(f.Items))}
	for _, e := range f.Items {
		if _, dup := t.items[e.ID]; dup {
			return nil, fmt.Errorf("item %s: duplicate id", e.ID)
		}
		t.items[e.ID] = &ItemDef{
			ID:         e.ID,
			Name:       e.Name,
			Type:       e.Type,
			Effects:    e.Effects,
			Properties: e.Properties,
		}
	}
	return t, nil
}

// Get returns the item definition, or nil if unknown.
func (t *ItemTable) Get(id string) *ItemDef {
	return t.items[id]
}

func (t *ItemTable) Count() int {
	return len(t.items)
}
