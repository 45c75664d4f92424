// Package occupations holds the static reference list of gazetted critical
// skills occupations. The list is loaded once and never modified afterwards.
package occupations

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

//go:embed critical_skills.yaml
var defaultList []byte

const maxLevel = 10

// Entry is one gazetted occupation.
type Entry struct {
	Code     string `mapstructure:"code" json:"code"`
	Name     string `mapstructure:"name" json:"name"`
	MinLevel int    `mapstructure:"min-nqf" json:"minNqf"`
}

// Accepts reports whether the numeric NQF level satisfies the entry minimum.
func (e Entry) Accepts(level int) bool {
	return level >= e.MinLevel
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s (Min NQF %d)", e.Code, e.Name, e.MinLevel)
}

// List is an immutable set of entries indexed by reference code.
type List struct {
	source  string
	entries []Entry
	byCode  map[string]int
}

// Default returns the embedded gazette snapshot.
func Default() (*List, error) {
	return Parse(bytes.NewReader(defaultList), "yaml")
}

// Load reads the list from path, or returns the embedded snapshot when path is empty.
// The file format follows the extension (yaml, yml, json, toml).
func Load(path string) (*List, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading occupations file %q: %w", path, err)
	}

	list, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("occupations file %q: %w", filepath.Base(path), err)
	}

	return list, nil
}

// Parse reads a list in the given viper config format.
func Parse(r io.Reader, format string) (*List, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("parse occupations: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*List, error) {
	var entries []Entry
	cfg := &mapstructure.DecoderConfig{
		Result:           &entries,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.Get("occupations")); err != nil {
		return nil, fmt.Errorf("decode occupations: %w", err)
	}

	return New(v.GetString("source"), entries)
}

// New validates entries and builds a list. Codes must be unique.
func New(source string, entries []Entry) (*List, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("occupations list is empty")
	}

	list := &List{
		source:  strings.TrimSpace(source),
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}

	for i, entry := range entries {
		entry.Code = strings.TrimSpace(entry.Code)
		entry.Name = strings.TrimSpace(entry.Name)

		if entry.Code == "" {
			return nil, fmt.Errorf("entry %d: code is required", i)
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("entry %s: name is required", entry.Code)
		}
		if entry.MinLevel < 0 || entry.MinLevel > maxLevel {
			return nil, fmt.Errorf("entry %s: min-nqf %d out of range", entry.Code, entry.MinLevel)
		}
		if _, dup := list.byCode[entry.Code]; dup {
			return nil, fmt.Errorf("entry %s: duplicate code", entry.Code)
		}

		list.byCode[entry.Code] = len(list.entries)
		list.entries = append(list.entries, entry)
	}

	return list, nil
}

func (l *List) Source() string { return l.source }

func (l *List) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in list order.
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Lookup finds an entry by exact reference code.
func (l *List) Lookup(code string) (Entry, bool) {
	idx, ok := l.byCode[strings.TrimSpace(code)]
	if !ok {
		return Entry{}, false
	}
	return l.entries[idx], true
}

// FindByName returns entries whose normalized name equals the normalized title.
func (l *List) FindByName(title string) []Entry {
	needle := Normalize(title)
	if needle == "" {
		return nil
	}

	var found []Entry
	for _, entry := range l.entries {
		if Normalize(entry.Name) == needle {
			found = append(found, entry)
		}
	}
	return found
}

// Search returns entries whose name or code contains text, case-insensitively.
func (l *List) Search(text string) []Entry {
	needle := Normalize(text)
	if needle == "" {
		return l.Entries()
	}

	var found []Entry
	for _, entry := range l.entries {
		if strings.Contains(Normalize(entry.Name), needle) || strings.Contains(entry.Code, strings.TrimSpace(text)) {
			found = append(found, entry)
		}
	}
	return found
}

// Summary renders the list one entry per line for prompts and listings.
func (l *List) Summary() string {
	var b strings.Builder
	for _, entry := range l.entries {
		b.WriteString("- ")
		b.WriteString(entry.String())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Normalize lowercases s, drops punctuation and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}
