package navigation

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed translations/*.yaml
var translationFS embed.FS

// DefaultLanguage is used when a requested language has no catalog.
const DefaultLanguage = "en"

// Translator resolves translation keys to display text.
type Translator interface {
	Translate(key string) string
}

// Translations is a per-language message catalog with a fallback to the
// default language. Keys missing from both are returned unchanged.
type Translations struct {
	lang     string
	entries  map[string]string
	fallback map[string]string
}

// NewTranslations builds a catalog from in-memory entries.
func NewTranslations(lang string, entries, fallback map[string]string) *Translations {
	return &Translations{lang: lang, entries: entries, fallback: fallback}
}

// LoadTranslations reads the embedded catalog for lang. An unknown language
// falls back to the default one.
func LoadTranslations(lang string) (*Translations, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = DefaultLanguage
	}

	fallback, err := readTranslations(DefaultLanguage)
	if err != nil {
		return nil, err
	}
	if lang == DefaultLanguage {
		return NewTranslations(lang, fallback, nil), nil
	}

	entries, err := readTranslations(lang)
	if err != nil {
		if _, statErr := fs.Stat(translationFS, translationPath(lang)); statErr != nil {
			return NewTranslations(DefaultLanguage, fallback, nil), nil
		}
		return nil, err
	}
	return NewTranslations(lang, entries, fallback), nil
}

func translationPath(lang string) string {
	return "translations/" + lang + ".yaml"
}

func readTranslations(lang string) (map[string]string, error) {
	data, err := translationFS.ReadFile(translationPath(lang))
	if err != nil {
		return nil, fmt.Errorf("failed to read translations %s: %w", lang, err)
	}
	entries := make(map[string]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse translations %s: %w", lang, err)
	}
	return entries, nil
}

// Language returns the language actually served.
func (t *Translations) Language() string { return t.lang }

// Translate implements Translator.
func (t *Translations) Translate(key string) string {
	if v, ok := t.entries[key]; ok && v != "" {
		return v
	}
	if v, ok := t.fallback[key]; ok && v != "" {
		return v
	}
	return key
}

// LabelResolver produces the display label of a node.
type LabelResolver interface {
	Label(n Node) string
}

// Labeler resolves a node's label from its translation key, else its
// title, else its first child's title.
type Labeler struct {
	translator Translator
}

// NewLabeler creates a labeler. A nil translator leaves translation keys
// untranslated.
func NewLabeler(tr Translator) *Labeler {
	return &Labeler{translator: tr}
}

// Label implements LabelResolver.
func (l *Labeler) Label(n Node) string {
	if n.Translation != "" {
		if l == nil || l.translator == nil {
			return n.Translation
		}
		return l.translator.Translate(n.Translation)
	}
	if n.Title != "" {
		return n.Title
	}
	if len(n.Children) > 0 {
		return n.Children[0].Title
	}
	return ""
}
