package filter

import (
	"net/netip"

	"github.com/c2h5oh/datasize"
)

// Rule binds an action to a prefix.
type Rule struct {
	Prefix netip.Prefix `yaml:"prefix" json:"prefix"`
	Action Action       `yaml:"action" json:"action"`
}

func (m Rule) String() string {
	return m.Prefix.String() + " " + m.Action.String()
}

// Config is the prefix filter configuration.
type Config struct {
	// MemoryLimit bounds the memory used by trie nodes. Zero means
	// unlimited.
	MemoryLimit datasize.ByteSize `yaml:"memory_limit"`
	// Default is installed as the 0.0.0.0/0 catch-all unless it is
	// ActionNone.
	Default Action `yaml:"default"`
	// Rules is the initial set of rules.
	Rules []Rule `yaml:"rules"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MemoryLimit: 64 * datasize.MB,
		Default:     ActionNone,
		Rules:       []Rule{},
	}
}
