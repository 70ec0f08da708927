// Copyright 2025 Alexander Kappner.
//
// Package config loads a YAML inventory of known appliances and their
// pairing material. The core protocol packages (cryptoutil, transport, dop2)
// take no configuration format of their own -- they are constructed from a
// provisioning.Info value directly -- and do not import this package.
// cmd/mctl does not use it either: it reads a pairing JSON keys file through
// provisioning.FromPairingJSON.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/akappner/mielecrypto/pkg/apperr"
	"github.com/akappner/mielecrypto/pkg/provisioning"
)

// Appliance is one entry in the inventory: a host to dial plus the
// hex-encoded pairing material murl.py/Server.py call GroupID and GroupKey.
type Appliance struct {
	Name      string `yaml:"name"`
	Host      string `yaml:"host"`
	Route     string `yaml:"route,omitempty"`
	GroupID   string `yaml:"group_id"`
	GroupKey  string `yaml:"group_key"`
}

// Inventory is the top-level shape of a loaded config file.
type Inventory struct {
	Appliances []Appliance `yaml:"appliances"`
}

// Load reads and parses an inventory file.
func Load(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Inventory{}, apperr.Wrap(apperr.Usage, "CONFIG_READ_FAILED", fmt.Sprintf("could not read config file %q", path), err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return Inventory{}, apperr.Wrap(apperr.Usage, "CONFIG_PARSE_FAILED", "could not parse config YAML", err)
	}
	return inv, nil
}

// Find locates an appliance by name.
func (inv Inventory) Find(name string) (Appliance, bool) {
	for _, a := range inv.Appliances {
		if a.Name == name {
			return a, true
		}
	}
	return Appliance{}, false
}

// ProvisioningInfo derives the appliance's provisioning.Info from its
// hex-encoded pairing fields.
func (a Appliance) ProvisioningInfo() (provisioning.Info, error) {
	return provisioning.FromHex(a.GroupID, a.GroupKey)
}
