package config

import "fmt"

// ValidateKeys checks that every bound key string parses. Duplicate
// detection is context-scoped and happens where the binding tables are
// built, since the same key may legitimately shadow across contexts.
func ValidateKeys(keys map[string]string) error {
	for action, keyStr := range keys {
		if keyStr == "" {
			continue
		}
		if _, err := ParseKey(keyStr); err != nil {
			return fmt.Errorf("invalid key for %s: %w", action, err)
		}
	}
	return nil
}
