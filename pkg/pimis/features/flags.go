package features

import (
	"sort"
	"strings"
	"sync"
)

// Flag represents a deployment switch that shows or hides part of the UI
type Flag string

const (
	// FlagPimisFields enables PIMIS-specific project fields and branding
	FlagPimisFields Flag = "has_pimis_fields"
	// FlagEsnipFields enables ESNIP-specific project fields
	FlagEsnipFields Flag = "has_esnip_fields"
	// FlagFilterPanel enables the project list filter panel
	FlagFilterPanel Flag = "has_filter_panel"
	// FlagMEReports enables monitoring and evaluation reports
	FlagMEReports Flag = "has_me_reports"
	// FlagProjectPrograms groups projects under programs
	FlagProjectPrograms Flag = "project_has_programs"
	// FlagFiscalYearDates shows project dates as fiscal years
	FlagFiscalYearDates Flag = "project_dates_fiscal_years"
	// FlagTopbarInformation enables the information block in the top bar
	FlagTopbarInformation Flag = "has_topbar_information_block"
)

// Known lists every flag the application understands, in display order.
var Known = []Flag{
	FlagPimisFields,
	FlagEsnipFields,
	FlagFilterPanel,
	FlagMEReports,
	FlagProjectPrograms,
	FlagFiscalYearDates,
	FlagTopbarInformation,
}

// Variant identifies a deployment of the application.
type Variant string

const (
	// VariantUG is the Integrated Bank of Projects deployment (default)
	VariantUG Variant = "ug"
	// VariantMZB is the ESNIP deployment
	VariantMZB Variant = "mzb"
	// VariantJM is the PIMIS deployment
	VariantJM Variant = "jm"
)

// ParseVariant normalises a variant identifier. Unknown identifiers are
// returned as-is so callers can apply their own fallback.
func ParseVariant(s string) Variant {
	return Variant(strings.ToLower(strings.TrimSpace(s)))
}

// Resolver answers whether a feature is enabled.
type Resolver interface {
	IsEnabled(flag Flag) bool
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(Flag) bool

// IsEnabled implements Resolver.
func (f ResolverFunc) IsEnabled(flag Flag) bool { return f(flag) }

// Set holds the enabled/disabled state of feature flags. Flags that were
// never set fall back to the defaults the set was created with.
type Set struct {
	mu       sync.RWMutex
	flags    map[Flag]bool
	defaults map[Flag]bool
}

// NewSet returns an empty set where every flag is disabled by default.
func NewSet() *Set {
	return &Set{
		flags:    make(map[Flag]bool),
		defaults: make(map[Flag]bool),
	}
}

// ForVariant returns a set seeded with the defaults of a deployment.
func ForVariant(v Variant) *Set {
	s := NewSet()
	for _, f := range variantDefaults(v) {
		s.defaults[f] = true
	}
	return s
}

func variantDefaults(v Variant) []Flag {
	switch v {
	case VariantJM:
		return []Flag{FlagPimisFields, FlagProjectPrograms, FlagTopbarInformation}
	case VariantMZB:
		return []Flag{FlagEsnipFields, FlagFiscalYearDates}
	case VariantUG:
		return []Flag{FlagFilterPanel, FlagMEReports}
	default:
		return nil
	}
}

// IsEnabled checks if a feature flag is enabled
func (s *Set) IsEnabled(flag Flag) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if enabled, ok := s.flags[flag]; ok {
		return enabled
	}
	return s.defaults[flag]
}

// Enable enables a feature flag
func (s *Set) Enable(flag Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flag] = true
}

// Disable disables a feature flag
func (s *Set) Disable(flag Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flag] = false
}

// Reset drops every override, restoring the defaults
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = make(map[Flag]bool)
}

// Apply overrides flags from configuration. Keys are flag names.
func (s *Set) Apply(overrides map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, enabled := range overrides {
		s.flags[Flag(name)] = enabled
	}
}

// All returns the current state of every known flag plus any override for
// an unknown one.
func (s *Set) All() map[Flag]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[Flag]bool, len(Known))
	for _, flag := range Known {
		if enabled, ok := s.flags[flag]; ok {
			result[flag] = enabled
		} else {
			result[flag] = s.defaults[flag]
		}
	}
	for flag, enabled := range s.flags {
		result[flag] = enabled
	}
	return result
}

// Enabled returns the names of enabled flags, sorted.
func (s *Set) Enabled() []Flag {
	var out []Flag
	for flag, on := range s.All() {
		if on {
			out = append(out, flag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
