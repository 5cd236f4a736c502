package gist

// Gist is the subset of the gist resource the client cares about.
type Gist struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Public      bool             `json:"public"`
	Files       map[string]*File `json:"files"`
	HTMLURL     string           `json:"html_url,omitempty"`
}

// File describes a single file of a gist. Content is elided by the API when
// the file is too large, in which case Truncated is set and the full text has
// to be fetched from RawURL.
type File struct {
	Filename  string `json:"filename,omitempty"`
	Type      string `json:"type,omitempty"`
	Language  string `json:"language,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
	Size      int    `json:"size"`
	Truncated bool   `json:"truncated"`
	Content   string `json:"content"`
}

// FileContent is the payload shape for creating and updating files.
type FileContent struct {
	Content string `json:"content"`
}

type createRequest struct {
	Description string                  `json:"description"`
	Public      bool                    `json:"public"`
	Files       map[string]*FileContent `json:"files"`
}

type updateRequest struct {
	Files map[string]*FileContent `json:"files"`
}

type errorMessage struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}
