package sentiment

import (
	"strings"
	"unicode"
)

// Scorer maps a text to a polarity in [-1, 1]. Implementations must be pure:
// the engine assumes no side effects and no hidden state.
type Scorer interface {
	Score(text string) float64
}

// Lexicon is a word-list polarity scorer tuned for financial headlines.
// Construct one explicitly and pass it in; there is no package-level instance.
type Lexicon struct {
	weights      map[string]float64
	negators     map[string]bool
	intensifiers map[string]float64
}

// NewLexicon returns a scorer with the built-in headline lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		weights:      defaultWeights,
		negators:     defaultNegators,
		intensifiers: defaultIntensifiers,
	}
}

// Score averages the polarity of the sentiment-bearing words in text.
// A negator within two tokens before a hit flips its sign, an intensifier
// scales it. Text with no hits scores 0.
func (l *Lexicon) Score(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	var hits int
	for i, tok := range tokens {
		w, ok := l.weights[tok]
		if !ok {
			continue
		}

		mult := 1.0
		for j := max(0, i-2); j < i; j++ {
			if l.negators[tokens[j]] {
				mult *= -1
			}
			if m, ok := l.intensifiers[tokens[j]]; ok {
				mult *= m
			}
		}

		sum += w * mult
		hits++
	}

	if hits == 0 {
		return 0
	}
	return clamp(sum / float64(hits))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

var defaultNegators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
	"isn't": true, "won't": true, "can't": true, "don't": true, "didn't": true,
}

var defaultIntensifiers = map[string]float64{
	"very": 1.5, "hugely": 1.5, "sharply": 1.4, "strongly": 1.4,
	"slightly": 0.6, "somewhat": 0.7, "modestly": 0.7,
}

var defaultWeights = map[string]float64{
	// positive
	"gain": 0.5, "gains": 0.5, "rally": 0.6, "rallies": 0.6, "surge": 0.7,
	"surges": 0.7, "soar": 0.8, "soars": 0.8, "jump": 0.5, "jumps": 0.5,
	"climb": 0.4, "climbs": 0.4, "rise": 0.4, "rises": 0.4, "rose": 0.4,
	"beat": 0.6, "beats": 0.6, "record": 0.4, "strong": 0.5, "stronger": 0.5,
	"growth": 0.4, "grow": 0.4, "grows": 0.4, "profit": 0.4, "profits": 0.4,
	"upgrade": 0.6, "upgraded": 0.6, "upgrades": 0.6, "bullish": 0.7,
	"buy": 0.3, "outperform": 0.6, "outperforms": 0.6, "optimistic": 0.5,
	"positive": 0.4, "win": 0.4, "wins": 0.4, "boost": 0.5, "boosts": 0.5,
	"breakthrough": 0.6, "success": 0.5, "successful": 0.5, "upbeat": 0.5,
	"recovery": 0.4, "recovers": 0.4, "rebound": 0.5, "rebounds": 0.5,
	"expands": 0.3, "expansion": 0.3, "dividend": 0.2, "best": 0.5,
	"top": 0.3, "high": 0.2, "higher": 0.3, "good": 0.3, "great": 0.5,

	// negative
	"loss": -0.5, "losses": -0.5, "fall": -0.4, "falls": -0.4, "fell": -0.4,
	"drop": -0.4, "drops": -0.4, "plunge": -0.7, "plunges": -0.7,
	"crash": -0.8, "crashes": -0.8, "tumble": -0.6, "tumbles": -0.6,
	"slump": -0.6, "slumps": -0.6, "slide": -0.4, "slides": -0.4,
	"miss": -0.5, "misses": -0.5, "missed": -0.5, "weak": -0.5,
	"weaker": -0.5, "decline": -0.4, "declines": -0.4, "downgrade": -0.6,
	"downgraded": -0.6, "downgrades": -0.6, "bearish": -0.7, "sell": -0.3,
	"selloff": -0.6, "underperform": -0.6, "underperforms": -0.6,
	"pessimistic": -0.5, "negative": -0.4, "lawsuit": -0.5, "sues": -0.5,
	"probe": -0.4, "investigation": -0.4, "fraud": -0.8, "scandal": -0.7,
	"recall": -0.5, "layoffs": -0.6, "cuts": -0.4, "cut": -0.3,
	"warning": -0.5, "warns": -0.5, "fears": -0.5, "fear": -0.4,
	"risk": -0.3, "risks": -0.3, "worst": -0.6, "bad": -0.4,
	"low": -0.2, "lower": -0.3, "concern": -0.4, "concerns": -0.4,
	"bankruptcy": -0.9, "default": -0.7, "debt": -0.3, "crisis": -0.7,
}
