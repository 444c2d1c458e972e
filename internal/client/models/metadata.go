// Package models defines client-side data models used by the atlaskeeper CLI.
package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
)

// ParseMetadata turns "key=value" items into a map. Whitespace around keys
// and values is dropped; the first '=' separates key from value.
func ParseMetadata(items []string) (map[string]string, error) {
	md := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q must be key=value", common.ErrorIncorrectMetadata, item)
		}
		md[k] = strings.TrimSpace(v)
	}
	return md, nil
}
