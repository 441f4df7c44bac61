package accounts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rmalhotra/smsledger/internal/domain"
)

// registryFile is the on-disk shape of the accounts registry.
type registryFile struct {
	Accounts []domain.Account `yaml:"accounts"`
}

// LoadRegistryFile reads a YAML accounts file into a MemoryRegistry.
//
// Expected layout:
//
//	accounts:
//	  - account_id: XX1234
//	    name: Landlord
//	    default_title: Rent
//	    default_category_name: Housing
func LoadRegistryFile(path string) (*MemoryRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRegistryFile: reading %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("LoadRegistryFile: parsing %s: %w", path, err)
	}

	reg := NewMemoryRegistry()
	for i, a := range file.Accounts {
		if a.AccountID == "" {
			return nil, fmt.Errorf("LoadRegistryFile: account %d in %s has no account_id", i, path)
		}
		if _, exists := reg.accounts[a.AccountID]; exists {
			return nil, fmt.Errorf("LoadRegistryFile: duplicate account_id %q in %s", a.AccountID, path)
		}
		reg.accounts[a.AccountID] = a
	}

	return reg, nil
}
