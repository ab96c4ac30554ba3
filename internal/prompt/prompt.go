// Package prompt picks the text shown on the capture screen.
package prompt

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Options control word drill composition.
type Options struct {
	Words    int
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// DefaultPunctSet is used when a drill enables punctuation without a set.
var DefaultPunctSet = []rune(".,?!;:")

// Generator selects and composes prompts.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick returns one passage uniformly at random, or "" when passages is empty.
func (g *Generator) Pick(passages []string) string {
	if len(passages) == 0 {
		return ""
	}
	return passages[g.rnd.Intn(len(passages))]
}

// Compose builds a drill of opts.Words words drawn uniformly from words, with
// optional capitalization and trailing punctuation.
func (g *Generator) Compose(words []string, opts Options) string {
	if len(words) == 0 || opts.Words <= 0 {
		return ""
	}
	punctSet := opts.PunctSet
	if len(punctSet) == 0 {
		punctSet = DefaultPunctSet
	}
	out := make([]string, 0, opts.Words)
	for i := 0; i < opts.Words; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = g.capitalize(word, opts.CapsPct)
		word = g.punctuate(word, opts.PunctPct, punctSet)
		out = append(out, word)
	}
	return strings.Join(out, " ")
}

func (g *Generator) capitalize(word string, pct float64) string {
	if pct <= 0 || g.rnd.Float64() > pct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func (g *Generator) punctuate(word string, pct float64, set []rune) string {
	if pct <= 0 || g.rnd.Float64() > pct {
		return word
	}
	return word + string(set[g.rnd.Intn(len(set))])
}

// Passages returns the built-in prompt passages.
func Passages() []string {
	return append([]string(nil), passages...)
}

// Words returns the built-in drill vocabulary.
func Words() []string {
	return append([]string(nil), words...)
}

var passages = []string{
	"The quick brown fox jumps over the lazy dog while the farmer watches from the porch.",
	"Every morning she walked to the harbor to watch the fishing boats return with their catch.",
	"A good habit is easier to keep than to start, so begin with something small today.",
	"The library was quiet except for the soft rustle of pages and the hum of the old radiator.",
	"He wrote the letter three times before he was happy with the way the first line sounded.",
	"Rain drummed on the tin roof as the children counted the seconds between thunder and lightning.",
	"Typing without looking at the keys takes patience, but the rhythm comes with steady practice.",
	"They packed bread, cheese and apples for the long train ride through the mountains.",
}

var words = strings.Fields(`
the of and to in is you that it he was for on are as with his they at be
this have from or one had by word but not what all were we when your can
said there use an each which she do how their if will up other about out
many then them these so some her would make like him into time has look two
more write go see number no way could people my than first water been call
who oil its now find long down day did get come made may part over new sound
take only little work know place year live me back give most very after thing
our just name good sentence man think say great where help through much before
line right too mean old any same tell boy follow came want show also around
form three small set put end does another well large must big even such because
turn here why ask went men read need land different home us move try kind hand
picture again change off play spell air away animal house point page letter mother
answer found study still learn should world high every near add food between own
below country plant last school father keep tree never start city earth eye light
thought head under story saw left few while along might close something seem next
hard open example begin life always those both paper together got group often run
`)
