package graph

import "fmt"

// EdgeKey identifies an edge by its endpoints and an optional name. Two keys
// are equal when all three fields match, so EdgeKey is usable as a map key.
//
// On simple graphs Name is always "". On undirected graphs V <= W.
type EdgeKey struct {
	V    string `json:"v"`
	W    string `json:"w"`
	Name string `json:"name,omitempty"`
}

// Other returns the endpoint of k opposite to id. For a self-loop it returns id.
func (k EdgeKey) Other(id string) string {
	if k.V == id {
		return k.W
	}
	return k.V
}

// IsSelfLoop reports whether both endpoints are the same node.
func (k EdgeKey) IsSelfLoop() bool { return k.V == k.W }

// Reversed returns the key with its endpoints swapped and the name kept.
func (k EdgeKey) Reversed() EdgeKey { return EdgeKey{V: k.W, W: k.V, Name: k.Name} }

func (k EdgeKey) String() string {
	if k.Name == "" {
		return fmt.Sprintf("%s->%s", k.V, k.W)
	}
	return fmt.Sprintf("%s->%s[%s]", k.V, k.W, k.Name)
}
