package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CollectionProfile is a declarative description of a drop that the
// factory can instantiate without hand-built wiring code.
type CollectionProfile struct {
	Name      string         `yaml:"name" json:"name"`
	Symbol    string         `yaml:"symbol" json:"symbol"`
	Creator   string         `yaml:"creator" json:"creator"`
	MaxSupply int64          `yaml:"max_supply" json:"max_supply"`
	Public    SaleConfig     `yaml:"public" json:"public"`
	Presales  []PresaleEntry `yaml:"presales,omitempty" json:"presales,omitempty"`
	Royalty   RoyaltyConfig  `yaml:"royalty,omitempty" json:"royalty,omitempty"`
}

// SaleConfig holds the public sale parameters. Offsets are relative to
// instantiation time so profiles stay reusable across launches.
type SaleConfig struct {
	PriceMinor    int64    `yaml:"price_minor" json:"price_minor"`
	StartOffset   Duration `yaml:"start_offset" json:"start_offset"`
	EndOffset     Duration `yaml:"end_offset" json:"end_offset"`
	MaxPerAddress int64    `yaml:"max_per_address" json:"max_per_address"`
}

// Duration accepts Go duration strings ("24h") or plain integer seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("parse duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// PresaleEntry declares one allow-list gated phase.
type PresaleEntry struct {
	Name      string     `yaml:"name" json:"name"`
	Sale      SaleConfig `yaml:"sale" json:"sale"`
	Addresses []string   `yaml:"addresses" json:"addresses"`
}

// RoyaltyConfig holds secondary-sale royalty reporting parameters.
type RoyaltyConfig struct {
	Receiver string `yaml:"receiver,omitempty" json:"receiver,omitempty"`
	Bps      int64  `yaml:"bps,omitempty" json:"bps,omitempty"`
}

// LoadProfile loads a collection profile YAML by slug.
// It searches the profiles directory for profile_<slug>.yaml.
func LoadProfile(profilesDir, slug string) (*CollectionProfile, error) {
	slug = strings.ToLower(slug)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", slug))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", slug, err)
	}

	var profile CollectionProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", slug, err)
	}

	if profile.Name == "" {
		profile.Name = slug
	}

	return &profile, nil
}

// LoadAllProfiles loads all profile_*.yaml files from the profiles directory,
// keyed by slug.
func LoadAllProfiles(profilesDir string) (map[string]*CollectionProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*CollectionProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile CollectionProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		// Slug from filename: profile_genesis.yaml -> genesis
		base := filepath.Base(path)
		slug := strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		profiles[slug] = &profile
	}

	return profiles, nil
}

// Validate reports the first structural problem with the profile.
func (p *CollectionProfile) Validate() error {
	if p.Creator == "" {
		return fmt.Errorf("profile %q: creator address required", p.Name)
	}
	if p.MaxSupply <= 0 {
		return fmt.Errorf("profile %q: max_supply must be positive", p.Name)
	}
	if err := p.Public.validate("public"); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	for _, ps := range p.Presales {
		if err := ps.Sale.validate(ps.Name); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
		if len(ps.Addresses) == 0 {
			return fmt.Errorf("profile %q: presale %q has no addresses", p.Name, ps.Name)
		}
	}
	if p.Royalty.Bps < 0 || p.Royalty.Bps > 10_000 {
		return fmt.Errorf("profile %q: royalty bps out of range", p.Name)
	}
	return nil
}

func (s SaleConfig) validate(label string) error {
	if s.PriceMinor < 0 {
		return fmt.Errorf("sale %q: negative price", label)
	}
	if s.EndOffset <= s.StartOffset {
		return fmt.Errorf("sale %q: window must end after it starts", label)
	}
	if s.MaxPerAddress <= 0 {
		return fmt.Errorf("sale %q: max_per_address must be positive", label)
	}
	return nil
}
