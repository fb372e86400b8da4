package advice

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed messages.json
var defaultMessages []byte

// Catalog is a lookup table of message bodies keyed by selection key. The
// texts themselves are data, not code; households can ship their own
// catalog without touching the selector.
type Catalog struct {
	messages map[Key]string
}

// LoadCatalog parses a catalog from its JSON form, a flat object of key to
// message text.
func LoadCatalog(data []byte) (*Catalog, error) {
	var raw map[Key]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	return &Catalog{messages: raw}, nil
}

// DefaultCatalog returns the embedded message set.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultMessages)
	if err != nil {
		// The embedded catalog is validated by tests; reaching this means
		// a broken build, not a runtime condition.
		panic(err)
	}
	return c
}

// Lookup returns the message for a key.
func (c *Catalog) Lookup(key Key) (string, bool) {
	msg, ok := c.messages[key]
	return msg, ok
}

// Len reports how many messages the catalog holds.
func (c *Catalog) Len() int {
	return len(c.messages)
}
