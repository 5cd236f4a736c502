package requests

// Get - read a single key from the cache
type Get struct {
	Key string `json:"key"`
}

// Set - upsert a single key
type Set struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Delete - remove keys
type Delete struct {
	Keys []string `json:"keys"`
}

// Clear - remove all keys
type Clear struct{}

// Pair - a single upsert of a mutation
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Mutate - upserts and removals are applied first, clear drops everything
// including the upserts of the same request
type Mutate struct {
	Set     []Pair   `json:"set,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Clear   bool     `json:"clear,omitempty"`
}

// Dump - query the whole mapping
type Dump struct{}

// Pull - re-read the gist file
type Pull struct{}
