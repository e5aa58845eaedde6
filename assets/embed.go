// assets/embed.go
//
// Embedded default word lists for the two difficulty tiers.
// Lines are returned as written (trimmed, blank and "#" lines skipped);
// validation happens when a word is drawn, not here.

package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed medium_words.txt long_words.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// MediumList returns the embedded "normal" difficulty list.
func MediumList() ([]string, error) {
	return readLines("medium_words.txt")
}

// LongList returns the embedded "hard" difficulty list.
func LongList() ([]string, error) {
	return readLines("long_words.txt")
}
