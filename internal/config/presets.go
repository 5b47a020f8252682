package config

import "sort"

// Presets are built-in example programs, runnable by name with --preset.
var Presets = map[string]string{
	"orbit": `# Two masses falling toward each other.
particle sun at (0.0, 0.0) mass 100.0
particle moon at (8.0, 0.0) mass 1.0
force gravity(sun, moon) G = 1.0
detect gap = distance(sun, moon)
detect moon_x = position(moon)
simulate dt = 0.005 steps = 2000
`,

	"springs": `# A chain of three masses joined by springs.
let rest = 2.0

fn link(left, right) {
	force spring(left, right) k = 4.0 rest = rest
}

particle a at (0.0, 0.0) mass 1.0
particle b at (3.0, 0.0) mass 1.0
particle c at (5.5, 0.0) mass 1.0
link("a", "b")
link("b", "c")
detect left = distance(a, b)
detect right = distance(b, c)
simulate dt = 0.01 steps = 1500
`,

	"pulse": `# A scripted loop kicks a particle five times, then goes quiet.
particle probe at (0.0, 0.0) mass 1.0
loop for 5 cycles with frequency 2.0 damping 0.0 on probe {
	force push(probe) magnitude 0.4 direction (1.0, 0.0)
}
detect probe_x = position(probe)
simulate dt = 0.01 steps = 500
`,

	"well": `# A potential well captures a drifting particle past x = 4.
particle drifter at (0.0, 0.0) mass 1.0
loop for 1 cycles with frequency 5.0 damping 0.0 on drifter {
	force push(drifter) magnitude 2.0 direction (1.0, 0.0)
}
well trap on drifter if position(drifter).x >= 4.0 depth 8.0
detect drifter_x = position(drifter)
simulate dt = 0.01 steps = 1200
`,
}

func GetPreset(name string) (string, bool) {
	src, ok := Presets[name]
	return src, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
