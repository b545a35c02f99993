package memory

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/user"
)

//go:embed seed.yaml
var defaultSeed []byte

type Seed struct {
	Users    []user.User       `yaml:"users"`
	Products []catalog.Product `yaml:"products"`
}

// LoadSeed reads the seed file at path, or the built-in seed when path is empty.
func LoadSeed(path string) (Seed, error) {
	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Seed{}, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	for _, u := range seed.Users {
		if _, err := user.NewRole(string(u.Role)); err != nil {
			return Seed{}, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, p := range seed.Products {
		if err := p.Validate(); err != nil {
			return Seed{}, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return seed, nil
}

func (s Seed) State() State {
	st := NewState()
	for _, u := range s.Users {
		st.Users[u.Username] = u
	}
	for _, p := range s.Products {
		st.Products[p.ID] = p
	}
	return st
}
