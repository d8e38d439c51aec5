package upload

import "github.com/japaniel/dictkit/pkg/dictionary"

// KeyPrefix namespaces entries in the remote store.
const KeyPrefix = "dictionary/"

// Payload is the JSON body of one content API request.
type Payload struct {
	Content  string `json:"content"`
	Domain   string `json:"domain"`
	Key      string `json:"key"`
	Type     string `json:"type"`
	Username string `json:"username"`
}

// RemoteKey returns the storage key of an entry file, e.g. "dictionary/aaron.json".
func RemoteKey(e dictionary.Entry) string {
	return KeyPrefix + e.Name
}

// NewPayload builds the request body for an entry.
func NewPayload(e dictionary.Entry, content, domain, username string) Payload {
	return Payload{
		Content:  content,
		Domain:   domain,
		Key:      RemoteKey(e),
		Type:     "string",
		Username: username,
	}
}
