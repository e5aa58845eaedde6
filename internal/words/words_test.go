package words

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "lowercase is uppercased", in: "apple", want: "APPLE", wantOK: true},
		{name: "mixed case", in: "BaNaNa", want: "BANANA", wantOK: true},
		{name: "exactly twenty letters", in: "abcdefghijabcdefghij", want: "ABCDEFGHIJABCDEFGHIJ", wantOK: true},
		{name: "twenty one letters", in: "abcdefghijabcdefghijk", wantOK: false},
		{name: "digit", in: "r2d2", wantOK: false},
		{name: "space", in: "new york", wantOK: false},
		{name: "punctuation", in: "don't", wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Validate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSourceDraw(t *testing.T) {
	src := NewSource([]string{"kettle"}, []string{"lighthouse"})

	w, err := src.Draw(Medium)
	require.NoError(t, err)
	assert.Equal(t, "KETTLE", w)

	w, err = src.Draw(Long)
	require.NoError(t, err)
	assert.Equal(t, "LIGHTHOUSE", w)
}

func TestSourceDrawCorruptEntry(t *testing.T) {
	src := NewSource([]string{"b4d-entry"}, []string{"waytoolongtobeawordinthislist"})

	_, err := src.Draw(Medium)
	assert.ErrorIs(t, err, ErrNoValidWord)

	_, err = src.Draw(Long)
	assert.ErrorIs(t, err, ErrNoValidWord)
}

func TestSourceDrawUnknownAndEmpty(t *testing.T) {
	src := NewSource(nil, []string{"lighthouse"})

	_, err := src.Draw(Medium)
	assert.ErrorIs(t, err, ErrEmptyList)

	_, err = src.Draw(Difficulty("impossible"))
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
}

func TestSourceDrawIsUniformEnough(t *testing.T) {
	// Not a statistical test, just checks that every entry is reachable.
	list := []string{"alpha", "bravo", "charlie", "delta"}
	src := NewSource(list, nil)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		w, err := src.Draw(Medium)
		require.NoError(t, err)
		seen[w] = true
	}
	assert.Len(t, seen, len(list))
}

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]Difficulty{
		"medium": Medium, "Normal": Medium, " long ": Long, "HARD": Long,
	} {
		got, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDifficulty("custom")
	assert.True(t, errors.Is(err, ErrUnknownDifficulty))
}

func TestSanitizeCustom(t *testing.T) {
	tests := []struct {
		name       string
		prev, next string
		want       string
	}{
		{name: "letters accepted and uppercased", prev: "NE", next: "new", want: "NEW"},
		{name: "space accepted", prev: "NEW", next: "NEW ", want: "NEW "},
		{name: "digit rejected keeps previous", prev: "NEW", next: "NEW1", want: "NEW"},
		{name: "punctuation rejected", prev: "", next: "!", want: ""},
		{name: "clearing allowed", prev: "NEW", next: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeCustom(tt.prev, tt.next))
		})
	}
}

func TestNormalizeCustom(t *testing.T) {
	got, err := NormalizeCustom("new york")
	require.NoError(t, err)
	assert.Equal(t, "NEW YORK", got)

	// No cap on custom words, unlike drawn ones.
	long := "supercalifragilisticexpialidocious"
	got, err = NormalizeCustom(long)
	require.NoError(t, err)
	assert.Len(t, got, len(long))

	for _, bad := range []string{"", "   ", "abc1", "rock&roll"} {
		_, err := NormalizeCustom(bad)
		assert.ErrorIs(t, err, ErrInvalidCustomWord, bad)
	}
}

func TestInitLoadsEmbeddedLists(t *testing.T) {
	src, err := Default()
	require.NoError(t, err)
	medium, long := src.Counts()
	assert.Greater(t, medium, 0)
	assert.Greater(t, long, 0)

	for _, d := range []Difficulty{Medium, Long} {
		w, err := src.Draw(d)
		require.NoError(t, err)
		_, ok := Validate(w)
		assert.True(t, ok, w)
	}
}
