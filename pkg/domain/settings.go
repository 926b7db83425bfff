package domain

// Settings are the runtime knobs shared by every execution context.
type Settings struct {
	// MaxFlags sizes the per-context flag array. The engine raises it to the number
	// of flags discovered while compiling routines.
	MaxFlags int `yaml:"max_flags"`

	// InitialConversationPool is the number of contexts created up front.
	InitialConversationPool int `yaml:"initial_conversation_pool"`

	// PreventSingleNodeChoices auto-advances when exactly one candidate remains,
	// even if that candidate has response text.
	PreventSingleNodeChoices bool `yaml:"prevent_single_node_choices"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		InitialConversationPool: 1,
	}
}
