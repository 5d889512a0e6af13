package filter

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ZanzyTHEbar/kpseq/kpseq/corpus"

	"github.com/rs/zerolog"
)

// edgeWords may not open or close a keyphrase.
var edgeWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "or": {}, "in": {}, "on": {},
	"for": {}, "to": {}, "with": {}, "by": {}, "at": {}, "from": {}, "as": {}, "is": {},
}

// MatchTags reports whether tags follow (JJ|NN*|VBG|VBN)* NN*: modifiers and nouns that end
// in a noun.
func MatchTags(tags []string) bool {
	if len(tags) == 0 || !isNoun(tags[len(tags)-1]) {
		return false
	}
	for _, tag := range tags {
		if !isNoun(tag) && !isModifier(tag) {
			return false
		}
	}
	return true
}

func isNoun(tag string) bool { return strings.HasPrefix(tag, "NN") }

func isModifier(tag string) bool {
	return strings.HasPrefix(tag, "JJ") || tag == "VBG" || tag == "VBN"
}

// ValidShape rejects phrases with a token that has no letter or digit, and phrases that open
// or close on a function word.
func ValidShape(p corpus.Phrase) bool {
	if len(p) == 0 {
		return false
	}
	for _, tok := range p {
		if strings.IndexFunc(tok, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
			return false
		}
	}
	_, first := edgeWords[strings.ToLower(p[0])]
	_, last := edgeWords[strings.ToLower(p[len(p)-1])]
	return !first && !last
}

// PatternFilter drops predicted keyphrases whose shape or part-of-speech sequence is not a
// plausible keyphrase. It only ever removes predictions. Verdicts are cached per phrase text.
type PatternFilter struct {
	tagger POSTagger
	logger zerolog.Logger

	mu    sync.Mutex
	cache map[string]bool
}

// Option configures a PatternFilter.
type Option func(*PatternFilter)

func WithLogger(logger zerolog.Logger) Option {
	return func(f *PatternFilter) { f.logger = logger }
}

// NewPatternFilter builds a filter over tagger; a nil tagger uses ProseTagger.
func NewPatternFilter(tagger POSTagger, opts ...Option) *PatternFilter {
	if tagger == nil {
		tagger = NewProseTagger()
	}
	f := &PatternFilter{tagger: tagger, logger: zerolog.Nop(), cache: make(map[string]bool)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Valid reports whether p passes the shape checks and the tag pattern. A phrase the tagger
// fails on is rejected.
func (f *PatternFilter) Valid(p corpus.Phrase) bool {
	key := p.String()
	f.mu.Lock()
	v, ok := f.cache[key]
	f.mu.Unlock()
	if ok {
		return v
	}

	v = ValidShape(p)
	if v {
		tags, err := f.tagger.Tag(p)
		if err != nil {
			f.logger.Debug().Err(err).Str("phrase", key).Msg("tagging failed, dropping phrase")
			v = false
		} else {
			v = len(tags) == len(p) && MatchTags(tags)
		}
	}

	f.mu.Lock()
	f.cache[key] = v
	f.mu.Unlock()
	return v
}

// Filter keeps the valid phrases of ps in order.
func (f *PatternFilter) Filter(ps []corpus.Phrase) []corpus.Phrase {
	out := make([]corpus.Phrase, 0, len(ps))
	for _, p := range ps {
		if f.Valid(p) {
			out = append(out, p)
		}
	}
	return out
}

// FilterAll applies Filter to every document's predictions.
func (f *PatternFilter) FilterAll(predicted map[string][]corpus.Phrase) map[string][]corpus.Phrase {
	out := make(map[string][]corpus.Phrase, len(predicted))
	kept, total := 0, 0
	for key, ps := range predicted {
		out[key] = f.Filter(ps)
		kept += len(out[key])
		total += len(ps)
	}
	f.logger.Debug().Int("kept", kept).Int("predicted", total).Msg("pattern filter applied")
	return out
}
