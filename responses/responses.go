package responses

// Value - result of a get
type Value struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// Update - information about a mutation or pull
type Update struct {
	// did it work or not
	Success bool `json:"success"`
	// number of keys after the update
	Keys int `json:"keys"`
	// seconds
	Runtime float64 `json:"runtime"`
}

// Snapshot - the whole mapping and where it lives
type Snapshot struct {
	GistID   string            `json:"gistId"`
	Filename string            `json:"filename"`
	Entries  map[string]string `json:"entries"`
}
