package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/Drabants/unitystation/internal/data"
)

// templatecheck validates the YAML data tables before a server boot:
// every spawn entry must point at an existing template, and template
// capability combinations that the lifecycle cannot honor are reported.

func main() {
	templatesPath := flag.String("templates", "data/templates.yaml", "object template table")
	spawnsPath := flag.String("spawns", "data/spawns.yaml", "spawn list")
	flag.Parse()

	errCount := 0
	fail := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
		errCount++
	}

	templates, err := data.LoadTemplateTable(*templatesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	spawns, err := data.LoadSpawnList(*spawnsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Template sanity.
	byCategory := map[string]int{}
	templates.Each(func(tpl *data.ObjectTemplate) {
		byCategory[tpl.Category]++
		if tpl.Name == "" {
			fail("template %d has no name", tpl.TemplateID)
		}
		if tpl.Category == "" {
			fail("template %d (%q) has no category", tpl.TemplateID, tpl.Name)
		}
		if tpl.PoolCapacity > 0 && !tpl.PoolEligible {
			fail("template %d (%q) sets pool_capacity but is not pool_eligible", tpl.TemplateID, tpl.Name)
		}
		if tpl.Gated && tpl.PoolEligible {
			// A gated device despawns through self-destruct, which always
			// destroys; pooling it would never trigger.
			fail("template %d (%q) is both gated and pool_eligible", tpl.TemplateID, tpl.Name)
		}
		if tpl.MaxContents < 0 {
			fail("template %d (%q) has negative max_contents", tpl.TemplateID, tpl.Name)
		}
		if tpl.DecaySecs < 0 {
			fail("template %d (%q) has negative decay_secs", tpl.TemplateID, tpl.Name)
		}
	})

	// Spawn list cross-checks.
	for i, e := range spawns {
		tpl := templates.Get(e.TemplateID)
		if tpl == nil {
			fail("spawn entry %d references unknown template %d", i, e.TemplateID)
			continue
		}
		if e.Count <= 0 {
			fail("spawn entry %d (%q) has count %d", i, tpl.Name, e.Count)
		}
		if e.RandomX < 0 || e.RandomY < 0 {
			fail("spawn entry %d (%q) has negative placement jitter", i, tpl.Name)
		}
		if e.RespawnDelay < 0 {
			fail("spawn entry %d (%q) has negative respawn_delay", i, tpl.Name)
		}
	}

	// Summary.
	fmt.Printf("templates: %d\n", templates.Count())
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Printf("  %-10s %d\n", c, byCategory[c])
	}
	totalSpawned := 0
	for _, e := range spawns {
		totalSpawned += e.Count
	}
	fmt.Printf("spawn entries: %d (%d objects at boot)\n", len(spawns), totalSpawned)

	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "%d problem(s) found\n", errCount)
		os.Exit(1)
	}
	fmt.Println("ok")
}
