package filter

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"go.uber.org/zap"

	"github.com/yanet-platform/prefixtrie/common/go/xnetip"
	"github.com/yanet-platform/prefixtrie/internal/metrics"
	"github.com/yanet-platform/prefixtrie/lpm"
)

// Option is a function that configures the filter.
type Option func(*options)

type options struct {
	Log     *zap.SugaredLogger
	Metrics *metrics.Metrics
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// WithLog configures the filter with a logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithMetrics configures the filter to report its metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.Metrics = m
	}
}

// Verdict is the result of an address lookup.
type Verdict struct {
	Addr   netip.Addr `json:"addr"`
	Action Action     `json:"action"`
	// Prefix is the matched rule prefix, valid only if Matched is set.
	Prefix  netip.Prefix `json:"prefix"`
	Matched bool         `json:"matched"`
}

// Filter maps IPv4 addresses to actions using longest-prefix-match.
//
// Lookups may run concurrently with each other, while mutations are
// exclusive.
type Filter struct {
	mu      sync.RWMutex
	trie    *lpm.Trie[Action]
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

// NewFilter creates a new filter populated with the configured rules.
func NewFilter(cfg *Config, options ...Option) (*Filter, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}

	m := &Filter{
		metrics: opts.Metrics,
		log:     opts.Log,
	}

	trie, err := m.build(cfg)
	if err != nil {
		return nil, err
	}
	m.trie = trie
	m.updateGauges()

	m.log.Infow("initialized prefix filter",
		zap.Int("rules", trie.Len()),
		zap.Int("nodes", trie.Nodes()),
		zap.Stringer("memory_limit", cfg.MemoryLimit),
	)

	return m, nil
}

func (m *Filter) build(cfg *Config) (*lpm.Trie[Action], error) {
	trie := lpm.New[Action](lpm.WithMemoryLimit(cfg.MemoryLimit))

	if cfg.Default != ActionNone {
		if err := trie.Insert(0, 0, cfg.Default); err != nil {
			return nil, fmt.Errorf("failed to install default action: %w", err)
		}
	}

	for _, rule := range cfg.Rules {
		if err := trie.InsertPrefix(rule.Prefix, rule.Action); err != nil {
			m.countInsertError(err)
			return nil, fmt.Errorf("failed to install rule %q: %w", rule, err)
		}
	}

	return trie, nil
}

// Reload atomically replaces all rules with the configured ones.
//
// On error the current rules are kept.
func (m *Filter) Reload(cfg *Config) error {
	trie, err := m.build(cfg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.trie = trie
	m.updateGauges()
	m.mu.Unlock()

	m.log.Infow("reloaded prefix filter", zap.Int("rules", trie.Len()))
	return nil
}

// Insert installs or replaces the rule for the prefix.
func (m *Filter) Insert(prefix netip.Prefix, action Action) error {
	p, err := lpm.PrefixFrom(prefix)
	if err != nil {
		m.countInsertError(err)
		return err
	}

	return m.InsertRaw(p.Addr, p.Bits, action)
}

// InsertRaw installs or replaces the rule for the prefix given in integer
// form.
func (m *Filter) InsertRaw(addr uint32, prefixLen uint8, action Action) error {
	m.mu.Lock()
	err := m.trie.Insert(addr, prefixLen, action)
	m.updateGauges()
	m.mu.Unlock()

	if err != nil {
		m.countInsertError(err)
		m.log.Warnw("failed to insert rule",
			zap.Uint32("addr", addr),
			zap.Uint8("prefix_len", prefixLen),
			zap.Stringer("action", action),
			zap.Error(err),
		)
		return err
	}

	m.log.Debugw("inserted rule",
		zap.Stringer("prefix", lpm.Prefix{Addr: addr, Bits: prefixLen}.Masked()),
		zap.Stringer("action", action),
	)
	return nil
}

// Remove deletes the rule for exactly this prefix.
func (m *Filter) Remove(prefix netip.Prefix) bool {
	p, err := lpm.PrefixFrom(prefix)
	if err != nil {
		return false
	}

	return m.RemoveRaw(p.Addr, p.Bits)
}

// RemoveRaw deletes the rule for exactly this prefix given in integer form.
func (m *Filter) RemoveRaw(addr uint32, prefixLen uint8) bool {
	m.mu.Lock()
	_, ok := m.trie.Remove(addr, prefixLen)
	m.updateGauges()
	m.mu.Unlock()

	if ok {
		m.log.Debugw("removed rule",
			zap.Stringer("prefix", lpm.Prefix{Addr: addr, Bits: prefixLen}.Masked()),
		)
	}
	return ok
}

// Lookup returns the action of the longest rule covering the address.
func (m *Filter) Lookup(addr netip.Addr) (Verdict, error) {
	v, ok := xnetip.Uint32(addr)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: %s", lpm.ErrNotIPv4, addr)
	}

	m.mu.RLock()
	prefix, action, matched := m.trie.LookupPrefix(v, lpm.MaxBits)
	m.mu.RUnlock()

	m.metrics.Lookups.WithLabelValues(action.String()).Inc()

	verdict := Verdict{
		Addr:    addr.Unmap(),
		Action:  action,
		Matched: matched,
	}
	if matched {
		verdict.Prefix = prefix.NetIP()
	}

	return verdict, nil
}

// LookupRaw returns the action for the first bitWidth bits of the address,
// or ActionNone if no rule matches.
func (m *Filter) LookupRaw(addr uint32, bitWidth uint8) Action {
	m.mu.RLock()
	action, _ := m.trie.Lookup(addr, bitWidth)
	m.mu.RUnlock()

	m.metrics.Lookups.WithLabelValues(action.String()).Inc()
	return action
}

// Rules returns a snapshot of all installed rules in address order.
func (m *Filter) Rules() []Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rules := make([]Rule, 0, m.trie.Len())
	for prefix, action := range m.trie.All() {
		rules = append(rules, Rule{Prefix: prefix.NetIP(), Action: action})
	}

	return rules
}

// Len returns the number of installed rules.
func (m *Filter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.trie.Len()
}

// updateGauges must be called with the lock held.
func (m *Filter) updateGauges() {
	m.metrics.Rules.Set(float64(m.trie.Len()))
	m.metrics.Nodes.Set(float64(m.trie.Nodes()))
}

func (m *Filter) countInsertError(err error) {
	reason := "other"
	switch {
	case errors.Is(err, lpm.ErrInvalidPrefixLength):
		reason = "invalid_prefix_length"
	case errors.Is(err, lpm.ErrAllocationFailure):
		reason = "allocation_failure"
	case errors.Is(err, lpm.ErrNotIPv4):
		reason = "not_ipv4"
	}

	m.metrics.InsertErrors.WithLabelValues(reason).Inc()
}
