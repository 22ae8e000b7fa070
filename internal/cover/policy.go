package cover

import "strings"

// DefaultPlaceholder is shown for entries without a resolvable cover.
const DefaultPlaceholder = "img/placeholder.webp"

// Policy holds the tunable parts of cover resolution. The zero value resolves
// nothing; start from DefaultPolicy.
type Policy struct {
	// ConsoleKeys maps a lowercase console display name to the folder key
	// used by the cover index ("playstation 2" -> "ps2").
	ConsoleKeys map[string]string
	// SerialFirst lists console keys whose entries are looked up by serial
	// before falling back to the normalized title.
	SerialFirst map[string]bool
	// GenericSerials are uppercase codes that stand in for a console rather
	// than identifying a game ("NES", "N64").
	GenericSerials map[string]bool
	Placeholder    string
}

func DefaultPolicy() Policy {
	return Policy{
		ConsoleKeys: map[string]string{
			"ps1":           "ps1",
			"psx":           "ps1",
			"playstation":   "ps1",
			"playstation 1": "ps1",
			"ps2":           "ps2",
			"playstation 2": "ps2",
			"gamecube":      "wii_gc",
			"gc":            "wii_gc",
			"wii":           "wii_gc",
			"n64":           "n64",
			"nes":           "nes",
			"snes":          "snes",
			"gba":           "gba",
			"gb":            "gb",
			"ds":            "ds",
			"nds":           "ds",
			"atari 2600":    "atari_2600",
		},
		SerialFirst: map[string]bool{
			"ps1":    true,
			"ps2":    true,
			"wii_gc": true,
		},
		GenericSerials: setOf("NES", "N64", "SNES", "GBA", "GB", "DS", "2600", "PS1", "PS2", "GC", "WII"),
		Placeholder:    DefaultPlaceholder,
	}
}

// ConsoleKey maps a console display name to its cover folder key.
func (p Policy) ConsoleKey(console string) (string, bool) {
	key, ok := p.ConsoleKeys[strings.ToLower(strings.TrimSpace(console))]
	return key, ok && key != ""
}

// IsGeneric reports whether code is a console tag rather than a real serial.
func (p Policy) IsGeneric(code string) bool {
	return p.GenericSerials[strings.ToUpper(strings.TrimSpace(code))]
}

// Merge returns a copy of p with the non-empty parts of o layered on top.
// Console key overrides are merged entry by entry; the sets replace.
func (p Policy) Merge(o Policy) Policy {
	out := p
	if len(o.ConsoleKeys) > 0 {
		out.ConsoleKeys = make(map[string]string, len(p.ConsoleKeys)+len(o.ConsoleKeys))
		for k, v := range p.ConsoleKeys {
			out.ConsoleKeys[k] = v
		}
		for k, v := range o.ConsoleKeys {
			out.ConsoleKeys[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
		}
	}
	if len(o.SerialFirst) > 0 {
		out.SerialFirst = o.SerialFirst
	}
	if len(o.GenericSerials) > 0 {
		out.GenericSerials = o.GenericSerials
	}
	if o.Placeholder != "" {
		out.Placeholder = o.Placeholder
	}
	return out
}

func setOf(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// KeySet builds a console-key set from configuration values.
func KeySet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			m[v] = true
		}
	}
	return m
}

// CodeSet builds a generic-serial set from configuration values.
func CodeSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			m[v] = true
		}
	}
	return m
}
