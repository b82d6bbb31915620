package words

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Result classifies a word submission. The three failure cases map to
// distinct user-facing messages and must stay separate.
type Result int

const (
	Valid Result = iota
	NotContainingPiece
	NotInDictionary
	Blocked
)

// Verdict is the outcome of judging one submission
type Verdict struct {
	Result  Result
	Message string
}

// OK reports whether the verdict is a pass
func (v Verdict) OK() bool {
	return v.Result == Valid
}

// Judge validates submitted words against a required piece, a dictionary,
// and a blocklist of disallowed words
type Judge struct {
	mu         sync.RWMutex
	dictionary map[string]struct{}
	blocklist  map[string]struct{}
}

// NewJudge creates a Judge with empty word lists
func NewJudge() *Judge {
	return &Judge{
		dictionary: make(map[string]struct{}),
		blocklist:  make(map[string]struct{}),
	}
}

// Validate judges word against the required piece. Both strings are
// normalized to lowercase and trimmed before any check.
func (j *Judge) Validate(word, piece string) Verdict {
	word = Normalize(word)
	piece = Normalize(piece)

	if !strings.Contains(word, piece) {
		return Verdict{NotContainingPiece, fmt.Sprintf("Word must contain %q", piece)}
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	if _, ok := j.dictionary[word]; !ok {
		if _, bad := j.blocklist[word]; bad {
			return Verdict{Blocked, "That word is not allowed"}
		}
		return Verdict{NotInDictionary, "Not a valid word"}
	}

	return Verdict{Valid, "Valid word!"}
}

// Normalize lowercases and trims a word the way every word check does
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// LoadDictionary replaces the dictionary with words read from a file,
// one word per line
func (j *Judge) LoadDictionary(path string) error {
	words, err := readWordFile(path)
	if err != nil {
		return err
	}
	j.SetDictionary(words)
	return nil
}

// LoadBlocklist replaces the blocklist with words read from a file,
// one word per line
func (j *Judge) LoadBlocklist(path string) error {
	words, err := readWordFile(path)
	if err != nil {
		return err
	}
	j.SetBlocklist(words)
	return nil
}

// SetDictionary replaces the dictionary (useful for testing)
func (j *Judge) SetDictionary(words []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dictionary = toSet(words)
}

// SetBlocklist replaces the blocklist (useful for testing)
func (j *Judge) SetBlocklist(words []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.blocklist = toSet(words)
}

// DictionarySize returns the number of dictionary words loaded
func (j *Judge) DictionarySize() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.dictionary)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = Normalize(w); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func readWordFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
