package extraction

// Bounds caps every context snapshot handed to the model. Older entities
// silently fall out of context and become un-discoverable for model-side
// deduplication; that is a deliberate cost/precision trade-off.
type Bounds struct {
	MessageHistory     int `yaml:"message_history"`
	MessageCharCap     int `yaml:"message_char_cap"`
	RecentMemories     int `yaml:"recent_memories"`
	MemoryNarrativeCap int `yaml:"memory_narrative_cap"`
	RecentPersons      int `yaml:"recent_persons"`
	RecentChapters     int `yaml:"recent_chapters"`

	PlannerMemories     int `yaml:"planner_memories"`
	PlannerNarrativeCap int `yaml:"planner_narrative_cap"`
}

func DefaultBounds() Bounds {
	return Bounds{
		MessageHistory:      10,
		MessageCharCap:      500,
		RecentMemories:      5,
		MemoryNarrativeCap:  200,
		RecentPersons:       20,
		RecentChapters:      10,
		PlannerMemories:     20,
		PlannerNarrativeCap: 300,
	}
}

// ResolverConfig tunes entity resolution. Window is the maximum distance,
// in runes, between a role keyword and a name token for role promotion.
type ResolverConfig struct {
	Window      int      `yaml:"window"`
	FamilyRoles []string `yaml:"family_roles"`
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Window:      30,
		FamilyRoles: DefaultFamilyRoles(),
	}
}

type Config struct {
	Bounds   Bounds         `yaml:"bounds"`
	Resolver ResolverConfig `yaml:"resolver"`
}

func DefaultConfig() Config {
	return Config{
		Bounds:   DefaultBounds(),
		Resolver: DefaultResolverConfig(),
	}
}
