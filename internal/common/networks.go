package common

import (
	"fmt"
	"os"
	"path/filepath"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"teo-client-go/internal/models"
)

type networksFile struct {
	Networks []models.Network `yaml:"networks"`
}

// LoadNetworks reads and validates the networks file. Relative paths resolve
// against the working directory.
func LoadNetworks(networksPath string) ([]models.Network, error) {
	path := networksPath
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, networksPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", networksPath, err)
	}
	return ParseNetworks(data)
}

func ParseNetworks(data []byte) ([]models.Network, error) {
	var cfg networksFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse networks: %w", err)
	}
	if len(cfg.Networks) == 0 {
		return nil, fmt.Errorf("no networks defined")
	}

	seen := make(map[string]bool, len(cfg.Networks))
	for i, n := range cfg.Networks {
		if n.Name == "" {
			return nil, fmt.Errorf("network at index %d missing name", i)
		}
		if seen[n.Name] {
			return nil, fmt.Errorf("duplicate network %q", n.Name)
		}
		seen[n.Name] = true
		if n.ChainID == 0 {
			return nil, fmt.Errorf("network %q missing chain_id", n.Name)
		}
		if n.TokenAddress != "" && !ethcommon.IsHexAddress(n.TokenAddress) {
			return nil, fmt.Errorf("network %q has invalid token_address %q", n.Name, n.TokenAddress)
		}
		if n.ChainName == "" {
			cfg.Networks[i].ChainName = n.Name
		}
		if n.Currency.Decimals == 0 {
			cfg.Networks[i].Currency.Decimals = 18
		}
	}

	return cfg.Networks, nil
}

// FindNetwork returns the network called name.
func FindNetwork(networks []models.Network, name string) (*models.Network, error) {
	for i := range networks {
		if networks[i].Name == name {
			return &networks[i], nil
		}
	}
	return nil, fmt.Errorf("network %q not found in networks file", name)
}
