package localization

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
)

type Localizer struct {
	messages map[string]map[string]string
}

// NewLocalizer loads every locales/*.json catalog from the given filesystem.
func NewLocalizer(dir fs.FS) (*Localizer, error) {
	messages := make(map[string]map[string]string)

	files, err := fs.ReadDir(dir, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales directory: %w", err)
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		lang := file.Name()[:len(file.Name())-len(".json")]
		content, err := fs.ReadFile(dir, filepath.Join("locales", file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", file.Name(), err)
		}

		var langMessages map[string]string
		if err := json.Unmarshal(content, &langMessages); err != nil {
			return nil, fmt.Errorf("failed to parse locale file %s: %w", file.Name(), err)
		}
		messages[lang] = langMessages
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no locale catalogs found")
	}

	return &Localizer{messages: messages}, nil
}

// GetMessage returns the message for lang/key, falling back to English and
// finally to the key itself so a missing entry is visible rather than fatal.
func (l *Localizer) GetMessage(lang, key string) string {
	if langMessages, ok := l.messages[lang]; ok {
		if message, ok := langMessages[key]; ok {
			return message
		}
	}

	if defaultMessages, ok := l.messages["en"]; ok {
		if message, ok := defaultMessages[key]; ok {
			return message
		}
	}

	return key
}
