package localization

import (
	"testing"
	"testing/fstest"
)

func TestGetMessageFallbacks(t *testing.T) {
	loc, err := NewLocalizer(fstest.MapFS{
		"locales/en.json": &fstest.MapFile{Data: []byte(`{"greet":"hello","only_en":"english"}`)},
		"locales/ru.json": &fstest.MapFile{Data: []byte(`{"greet":"привет"}`)},
	})
	if err != nil {
		t.Fatalf("NewLocalizer: %v", err)
	}

	tests := []struct {
		lang, key, want string
	}{
		{"ru", "greet", "привет"},
		{"en", "greet", "hello"},
		{"ru", "only_en", "english"},
		{"de", "greet", "hello"},
		{"ru", "missing_key", "missing_key"},
	}
	for _, tt := range tests {
		if got := loc.GetMessage(tt.lang, tt.key); got != tt.want {
			t.Errorf("GetMessage(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.want)
		}
	}
}

func TestNewLocalizerRejectsEmptyCatalog(t *testing.T) {
	if _, err := NewLocalizer(fstest.MapFS{"locales/.keep": &fstest.MapFile{}}); err == nil {
		t.Error("NewLocalizer accepted a directory with no catalogs")
	}
}

func TestNewLocalizerRejectsMalformedJSON(t *testing.T) {
	fsys := fstest.MapFS{"locales/en.json": &fstest.MapFile{Data: []byte(`{broken`)}}
	if _, err := NewLocalizer(fsys); err == nil {
		t.Error("NewLocalizer accepted malformed JSON")
	}
}
