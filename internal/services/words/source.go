package words

import (
	"github.com/quackextractor/wordrush/internal/dependencies/random"
)

// Difficulty selects which piece table a draw comes from
type Difficulty int

const (
	Normal Difficulty = iota
	Hard
)

// normalPieces are common two-letter fragments most English words contain
var normalPieces = []string{
	"an", "ar", "at", "be", "ca", "ch", "co", "de", "di", "ed",
	"en", "er", "es", "et", "ex", "fi", "fo", "ge", "ha", "he",
	"hi", "ho", "ic", "id", "il", "im", "in", "io", "is", "it",
	"la", "le", "li", "lo", "ma", "me", "mi", "mo", "na", "ne",
	"no", "nt", "of", "ol", "on", "op", "or", "ot", "ou", "ow",
	"pa", "pe", "pl", "po", "pr", "ra", "re", "ri", "ro", "ru",
	"sa", "se", "sh", "si", "so", "st", "ta", "te", "th", "ti",
	"to", "tr", "tu", "ty", "ul", "un", "up", "ur", "us", "ut",
	"ve", "vi", "wa", "we", "wi", "wo",
}

// hardPieces are rarer clusters used for trap pieces and powerup rolls
var hardPieces = []string{
	"ble", "ck", "ct", "dge", "ft", "gh", "ght", "kn", "mb",
	"mn", "ng", "nk", "ph", "que", "rh", "sch", "scr", "spr",
	"str", "tch", "th", "tion", "wh", "wr", "xc", "xt", "zz",
}

// Source draws random word pieces
type Source struct {
	random random.Random
}

// NewSource creates a word-piece source backed by the given randomness
func NewSource(random random.Random) *Source {
	return &Source{random: random}
}

// Next returns a uniformly random piece of the given difficulty
func (s *Source) Next(d Difficulty) string {
	table := normalPieces
	if d == Hard {
		table = hardPieces
	}
	return table[s.random.Intn(len(table))]
}
