package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ObjectTemplate holds static data for an object type loaded from YAML.
// The template identity is the pool key: all pooled instances of a
// template are interchangeable once reset.
type ObjectTemplate struct {
	TemplateID   int32  `yaml:"template_id"`
	Name         string `yaml:"name"`
	Category     string `yaml:"category"` // "item", "fixture", "device", "debris", "mob"
	GfxID        int32  `yaml:"gfx_id"`
	PoolEligible bool   `yaml:"pool_eligible"`
	PoolCapacity int    `yaml:"pool_capacity"` // 0 = use configured default
	Pushable     bool   `yaml:"pushable"`      // occupies a tile, visible to spatial queries
	Gated        bool   `yaml:"gated"`         // powered device with a destroy-authorization gate
	MaxContents  int    `yaml:"max_contents"`  // 0 = not a container
	DecaySecs    int    `yaml:"decay_secs"`    // 0 = never decays
}

// SpawnEntry defines where and how many objects the respawn system keeps alive.
type SpawnEntry struct {
	TemplateID   int32 `yaml:"template_id"`
	Deck         int16 `yaml:"deck"`
	X            int32 `yaml:"x"`
	Y            int32 `yaml:"y"`
	Count        int   `yaml:"count"`
	RandomX      int32 `yaml:"randomx"`
	RandomY      int32 `yaml:"randomy"`
	RespawnDelay int   `yaml:"respawn_delay"` // seconds
}

type templateListFile struct {
	Templates []ObjectTemplate `yaml:"templates"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// TemplateTable holds all object templates indexed by TemplateID.
type TemplateTable struct {
	templates map[int32]*ObjectTemplate
}

// LoadTemplateTable loads object templates from a YAML file.
func LoadTemplateTable(path string) (*TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var f templateListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	t := &TemplateTable{templates: make(map[int32]*ObjectTemplate, len(f.Templates))}
	for i := range f.Templates {
		tpl := &f.Templates[i]
		if tpl.TemplateID == 0 {
			return nil, fmt.Errorf("template %q: template_id must be set", tpl.Name)
		}
		if _, dup := t.templates[tpl.TemplateID]; dup {
			return nil, fmt.Errorf("duplicate template_id %d (%q)", tpl.TemplateID, tpl.Name)
		}
		t.templates[tpl.TemplateID] = tpl
	}
	return t, nil
}

// Get returns a template by ID, or nil if not found.
func (t *TemplateTable) Get(templateID int32) *ObjectTemplate {
	return t.templates[templateID]
}

// Count returns the number of loaded templates.
func (t *TemplateTable) Count() int {
	return len(t.templates)
}

// Each calls fn for every template. Iteration order is unspecified.
func (t *TemplateTable) Each(fn func(*ObjectTemplate)) {
	for _, tpl := range t.templates {
		fn(tpl)
	}
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	return f.Spawns, nil
}
