package models

import (
	"encoding/json"
	"math/bits"
	"sort"

	dErrors "covault/pkg/domain-errors"
)

// Capability is one governed action a role may be granted.
type Capability uint16

const (
	CapDeposit Capability = 1 << iota
	CapProposeWithdrawal
	CapVote
	CapWithdrawDirect
	CapInvite
	CapManageMembers
	CapChangeRules
)

var capabilityNames = map[Capability]string{
	CapDeposit:           "deposit",
	CapProposeWithdrawal: "propose_withdrawal",
	CapVote:              "vote",
	CapWithdrawDirect:    "withdraw_direct",
	CapInvite:            "invite",
	CapManageMembers:     "manage_members",
	CapChangeRules:       "change_rules",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCapability maps a wire name to a Capability.
func ParseCapability(name string) (Capability, error) {
	for c, n := range capabilityNames {
		if n == name {
			return c, nil
		}
	}
	return 0, dErrors.Newf(dErrors.CodeValidation, "unknown capability %q", name)
}

// PermissionSet is a bit set of capabilities.
type PermissionSet uint16

// AllCapabilities is the set implicitly held by founders.
const AllCapabilities = PermissionSet(CapDeposit | CapProposeWithdrawal | CapVote |
	CapWithdrawDirect | CapInvite | CapManageMembers | CapChangeRules)

// NewPermissionSet builds a set from capabilities.
func NewPermissionSet(caps ...Capability) PermissionSet {
	var p PermissionSet
	for _, c := range caps {
		p |= PermissionSet(c)
	}
	return p
}

func (p PermissionSet) Has(c Capability) bool {
	return p&PermissionSet(c) != 0
}

func (p PermissionSet) With(c Capability) PermissionSet {
	return p | PermissionSet(c)
}

func (p PermissionSet) Without(c Capability) PermissionSet {
	return p &^ PermissionSet(c)
}

func (p PermissionSet) Len() int {
	return bits.OnesCount16(uint16(p))
}

// Names returns the sorted wire names of the set.
func (p PermissionSet) Names() []string {
	names := make([]string, 0, p.Len())
	for c, n := range capabilityNames {
		if p.Has(c) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the set as a sorted list of capability names.
func (p PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Names())
}

// UnmarshalJSON rejects unknown capability names.
func (p *PermissionSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	var set PermissionSet
	for _, n := range names {
		c, err := ParseCapability(n)
		if err != nil {
			return err
		}
		set = set.With(c)
	}
	*p = set
	return nil
}
