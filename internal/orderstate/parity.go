package orderstate

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"sudooom.storefront/internal/model"
)

// Mismatch a pair the client and the backend disagree on
type Mismatch struct {
	From   model.OrderStatus
	To     model.OrderStatus
	Client bool
	Remote bool
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s -> %s: client=%t backend=%t", m.From, m.To, m.Client, m.Remote)
}

// CheckParity compares all 25 pairs of the client table against remote.
func CheckParity(remote Table) []Mismatch {
	var out []Mismatch
	for _, from := range model.OrderStatuses {
		for _, to := range model.OrderStatuses {
			client := CanTransition(from, to)
			other := remote.allows(from, to)
			if client != other {
				out = append(out, Mismatch{From: from, To: to, Client: client, Remote: other})
			}
		}
	}
	return out
}

// LoadTable reads a backend transition table exported as YAML:
//
//	pending: [confirmed, shipping, cancel]
//	shipping: [completed]
func LoadTable(r io.Reader) (Table, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode transition table: %w", err)
	}

	table := make(Table, len(raw))
	for from, targets := range raw {
		fromStatus, err := model.ParseOrderStatus(from)
		if err != nil {
			return nil, err
		}
		for _, to := range targets {
			toStatus, err := model.ParseOrderStatus(to)
			if err != nil {
				return nil, err
			}
			table[fromStatus] = append(table[fromStatus], toStatus)
		}
	}
	return table, nil
}
