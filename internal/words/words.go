// internal/words/words.go
//
// Dictionary used by the local opponent.
//
// Responsibilities:
//   - Load a word list from a file (WORDS_FILE) or fall back to the embedded default.
//   - Keep only lowercase alphabetic words of at least MinLength letters.
//   - Index words by their first two letters so the opponent can answer a prefix quickly.
//
// Initialization behavior (Init):
//   1. If a path is given, load that file.
//   2. Otherwise use assets/words.txt.
//   Init runs once (sync.Once); Default returns the loaded dictionary.

package words

import (
	"bufio"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/robalobadob/pheasant/assets"
)

// MinLength is the shortest word kept in a dictionary.
const MinLength = 3

// Dictionary is an immutable, prefix-indexed word set. Safe for concurrent use.
type Dictionary struct {
	words    []string            // sorted
	set      map[string]struct{} // membership
	byPrefix map[string][]string // first two letters → words (sorted)
}

var (
	initOnce   sync.Once
	defaultDic *Dictionary
	initialErr error
)

// Init loads the default dictionary exactly once.
// Returns an error if the list ends up empty.
func Init(path string) error {
	initOnce.Do(func() {
		var d *Dictionary
		if path != "" {
			d, initialErr = Load(path)
		} else {
			d, initialErr = Embedded()
		}
		if initialErr != nil {
			return
		}
		if d.Len() == 0 {
			initialErr = errors.New("words: dictionary is empty")
			return
		}
		defaultDic = d
	})
	return initialErr
}

// Default returns the dictionary loaded by Init, or the embedded one if Init
// was never called.
func Default() *Dictionary {
	if err := Init(""); err != nil {
		return New(nil)
	}
	return defaultDic
}

// Embedded builds a dictionary from the word list shipped with the binary.
func Embedded() (*Dictionary, error) {
	list, err := assets.WordList()
	if err != nil {
		return nil, err
	}
	return New(list), nil
}

// Load reads one word per line from path.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return New(out), nil
}

// New normalizes list (trim, lowercase), drops invalid words and duplicates.
func New(list []string) *Dictionary {
	d := &Dictionary{
		set:      make(map[string]struct{}, len(list)),
		byPrefix: make(map[string][]string),
	}
	for _, raw := range list {
		w := strings.TrimSpace(strings.ToLower(raw))
		if len(w) < MinLength || !isAlpha(w) {
			continue
		}
		if _, dup := d.set[w]; dup {
			continue
		}
		d.set[w] = struct{}{}
		d.words = append(d.words, w)
	}
	sort.Strings(d.words)
	for _, w := range d.words {
		d.byPrefix[w[:2]] = append(d.byPrefix[w[:2]], w)
	}
	return d
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Candidates returns the words starting with prefix, in sorted order.
// An empty prefix returns every word. The slice is a copy.
func (d *Dictionary) Candidates(prefix string) []string {
	prefix = strings.ToLower(prefix)
	if len(prefix) == 2 {
		return append([]string(nil), d.byPrefix[prefix]...)
	}
	var out []string
	for _, w := range d.words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	return out
}

// Contains reports whether w is in the dictionary.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.set[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// Len returns the number of words.
func (d *Dictionary) Len() int { return len(d.words) }

// Stats returns the size of the default dictionary and how many two-letter
// prefixes it can answer.
func Stats() (wordCount int, prefixCount int) {
	d := Default()
	return len(d.words), len(d.byPrefix)
}
