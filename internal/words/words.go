// internal/words/words.go
//
// Word source for the game engine.
//
// Responsibilities:
//   - Load the medium and long word lists from environment-provided files or
//     fall back to the embedded defaults in the assets package.
//   - Draw a uniformly random word for a difficulty tier and validate it.
//   - Filter and normalise user-supplied custom words.
//
// Initialization behavior (Init):
//   1. WORDS_MEDIUM_FILE / WORDS_LONG_FILE, when set, replace the matching list.
//   2. Otherwise the embedded list is used.
//
// Constraints:
//   • Drawn words are uppercased and must be 1–20 letters A–Z.
//   • Entries are kept verbatim at load; a bad entry surfaces as ErrNoValidWord
//     when it is drawn.
//   • Custom words may contain letters and spaces and have no length cap.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/robalobadob/hangman/assets"
)

// Difficulty selects one of the static word lists.
type Difficulty string

const (
	Medium Difficulty = "medium"
	Long   Difficulty = "long"
)

// MaxWordLength caps drawn (non-custom) words.
const MaxWordLength = 20

var (
	ErrNoValidWord       = errors.New("words: no valid word")
	ErrUnknownDifficulty = errors.New("words: unknown difficulty")
	ErrInvalidCustomWord = errors.New("words: custom word must contain only letters and spaces")
	ErrEmptyList         = errors.New("words: list is empty")

	drawnWordPattern  = regexp.MustCompile(`^[A-Za-z]+$`)
	customWordPattern = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// ParseDifficulty maps the wire names (plus the UI aliases "normal"/"hard").
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medium", "normal":
		return Medium, nil
	case "long", "hard":
		return Long, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Source draws words from per-difficulty lists.
type Source struct {
	lists map[Difficulty][]string
}

// NewSource builds a Source over the given lists. The slices are not copied.
func NewSource(medium, long []string) *Source {
	return &Source{lists: map[Difficulty][]string{Medium: medium, Long: long}}
}

// Draw picks a uniformly random entry of the difficulty's list and validates it.
func (s *Source) Draw(d Difficulty) (string, error) {
	list, ok := s.lists[d]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	if len(list) == 0 {
		return "", ErrEmptyList
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return "", fmt.Errorf("words: random index: %w", err)
	}
	w, ok := Validate(list[n.Int64()])
	if !ok {
		return "", ErrNoValidWord
	}
	return w, nil
}

// Counts reports the list sizes.
func (s *Source) Counts() (medium, long int) {
	return len(s.lists[Medium]), len(s.lists[Long])
}

// Validate uppercases w and reports whether it is letters-only and at most
// MaxWordLength long.
func Validate(w string) (string, bool) {
	w = strings.ToUpper(w)
	if !drawnWordPattern.MatchString(w) || len(w) > MaxWordLength {
		return "", false
	}
	return w, true
}

// SanitizeCustom is the live input filter for the custom word field: the new
// value is kept (uppercased) when it is empty or letters-and-spaces only,
// otherwise the previous value is returned unchanged.
func SanitizeCustom(prev, next string) string {
	if next != "" && !customWordPattern.MatchString(next) {
		return prev
	}
	return strings.ToUpper(next)
}

// NormalizeCustom accepts a submitted custom word. It must contain at least one
// letter and nothing but letters and spaces.
func NormalizeCustom(s string) (string, error) {
	if !customWordPattern.MatchString(s) || strings.TrimSpace(s) == "" {
		return "", ErrInvalidCustomWord
	}
	return strings.ToUpper(s), nil
}

// --- process-wide default source ------------------------------------------

var (
	initOnce   sync.Once
	defaultSrc *Source
	initialErr error
)

// Init loads word lists exactly once.
// Returns an error if either list ends up empty.
func Init() error {
	initOnce.Do(func() {
		medium, err := loadList(os.Getenv("WORDS_MEDIUM_FILE"), assets.MediumList)
		if err != nil {
			initialErr = err
			return
		}
		long, err := loadList(os.Getenv("WORDS_LONG_FILE"), assets.LongList)
		if err != nil {
			initialErr = err
			return
		}
		if len(medium) == 0 || len(long) == 0 {
			initialErr = ErrEmptyList
			return
		}
		defaultSrc = NewSource(medium, long)
	})
	return initialErr
}

// Default returns the process-wide source loaded by Init.
func Default() (*Source, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return defaultSrc, nil
}

func loadList(path string, embedded func() ([]string, error)) ([]string, error) {
	if path == "" {
		return embedded()
	}
	return readWordFile(path)
}

// readWordFile loads one word per line from a file, trimming whitespace and
// skipping blank and "#" lines.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out, sc.Err()
}
