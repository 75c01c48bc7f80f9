package mail

import (
	"errors"
	netmail "net/mail"
	"strings"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Address string `json:"address" yaml:"address"`
}

// ParseAddress parses "Name <user@example.com>" or a bare address.
func ParseAddress(s string) (Address, error) {
	a, err := netmail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return Address{}, errors.Join(ErrInvalidAddress, err)
	}
	return Address{Name: a.Name, Address: a.Address}, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAddressList parses a comma separated list of addresses. An empty
// string yields an empty list.
func ParseAddressList(s string) ([]Address, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	list, err := netmail.ParseAddressList(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidAddress, err)
	}
	return fromNetAddresses(list), nil
}

// String formats the address for a header. Addresses without a display
// name are returned bare.
func (a Address) String() string {
	if a.Name == "" {
		return a.Address
	}
	return (&netmail.Address{Name: a.Name, Address: a.Address}).String()
}

func (a Address) IsZero() bool {
	return a.Address == ""
}

// Domain returns the part after the last "@".
func (a Address) Domain() string {
	if i := strings.LastIndex(a.Address, "@"); i >= 0 {
		return a.Address[i+1:]
	}
	return ""
}

// Addresses returns the bare addresses of list, skipping empty ones.
func Addresses(list []Address) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		if !a.IsZero() {
			out = append(out, a.Address)
		}
	}
	return out
}

func fromNetAddresses(list []*netmail.Address) []Address {
	out := make([]Address, 0, len(list))
	for _, a := range list {
		if a != nil {
			out = append(out, Address{Name: a.Name, Address: a.Address})
		}
	}
	return out
}

func toNetAddresses(list []Address) []netmail.Address {
	out := make([]netmail.Address, 0, len(list))
	for _, a := range list {
		if !a.IsZero() {
			out = append(out, netmail.Address{Name: a.Name, Address: a.Address})
		}
	}
	return out
}
