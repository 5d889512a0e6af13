package vocab

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"github.com/armon/go-radix"
	"github.com/rs/zerolog"
)

// Unknown is the index used for padding and for tokens outside the materialized vocabulary.
const Unknown = 0

// Vocabulary maps tokens to contiguous indices starting at 1, ordered by descending
// corpus frequency with ties kept in first-seen order. It is immutable after Fit.
type Vocabulary struct {
	index   *radix.Tree // token -> int index
	words   []string    // words[i-1] has index i
	counts  []int       // parallel to words
	maxSize int
}

type options struct {
	logger zerolog.Logger
}

// Option configures Fit.
type Option func(*options)

// WithLogger sets the logger used for fitting diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Fit counts token frequencies over all documents and assigns indices.
// maxSize bounds NumWords, not the number of retained entries.
func Fit(docs [][]string, maxSize int, opts ...Option) (*Vocabulary, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if maxSize < 1 {
		return nil, kpseq.NewConfigurationError("max_vocabulary_size", "must be at least 1, got %d", maxSize)
	}
	if len(docs) == 0 {
		return nil, kpseq.NewConfigurationError("corpus", "cannot fit a vocabulary on zero documents").Wrap(kpseq.ErrEmptyCorpus)
	}

	counts := make(map[string]int)
	var order []string
	for _, doc := range docs {
		for _, tok := range doc {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	if len(order) == 0 {
		return nil, kpseq.NewConfigurationError("corpus", "documents contain no tokens").Wrap(kpseq.ErrEmptyCorpus)
	}

	// order is first-seen; a stable sort keeps it for equal counts
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	v := newVocabulary(maxSize, len(order))
	for _, tok := range order {
		v.add(tok, counts[tok])
	}

	o.logger.Debug().
		Int("documents", len(docs)).
		Int("unique_tokens", v.Len()).
		Int("num_words", v.NumWords()).
		Msg("Dictionary fitting completed")
	return v, nil
}

func newVocabulary(maxSize, capacity int) *Vocabulary {
	return &Vocabulary{
		index:   radix.New(),
		words:   make([]string, 0, capacity),
		counts:  make([]int, 0, capacity),
		maxSize: maxSize,
	}
}

func (v *Vocabulary) add(tok string, count int) {
	if _, exists := v.index.Get(tok); exists {
		return
	}
	v.words = append(v.words, tok)
	v.counts = append(v.counts, count)
	v.index.Insert(tok, len(v.words))
}

// Len returns the number of distinct tokens retained, which may exceed MaxSize.
func (v *Vocabulary) Len() int { return len(v.words) }

// MaxSize returns the configured cap.
func (v *Vocabulary) MaxSize() int { return v.maxSize }

// NumWords is the number of materialized rows: min(MaxSize, 1+Len). Row 0 is reserved.
func (v *Vocabulary) NumWords() int {
	if n := 1 + len(v.words); n < v.maxSize {
		return n
	}
	return v.maxSize
}

// Index returns the raw rank of token, ignoring the cap.
func (v *Vocabulary) Index(token string) (int, bool) {
	raw, ok := v.index.Get(token)
	if !ok {
		return Unknown, false
	}
	return raw.(int), true
}

// Lookup returns the encoded index of token: Unknown when absent or ranked at or beyond NumWords.
func (v *Vocabulary) Lookup(token string) int {
	idx, ok := v.Index(token)
	if !ok || idx >= v.NumWords() {
		return Unknown
	}
	return idx
}

// Word returns the token with index i.
func (v *Vocabulary) Word(i int) (string, bool) {
	if i < 1 || i > len(v.words) {
		return "", false
	}
	return v.words[i-1], true
}

// Count returns the corpus frequency of the token with index i.
func (v *Vocabulary) Count(i int) int {
	if i < 1 || i > len(v.counts) {
		return 0
	}
	return v.counts[i-1]
}

// Words returns all tokens in index order (element 0 has index 1).
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}

// Encode maps each token to its index without padding. It never fails.
func (v *Vocabulary) Encode(tokens []string) []int {
	out := make([]int, len(tokens))
	for i, tok := range tokens {
		out[i] = v.Lookup(tok)
	}
	return out
}

// WithPrefix returns the tokens starting with prefix in lexical order.
func (v *Vocabulary) WithPrefix(prefix string) []string {
	var out []string
	v.index.WalkPrefix(prefix, func(s string, _ interface{}) bool {
		out = append(out, s)
		return false
	})
	return out
}

// WriteTo writes one "token<TAB>count" line per entry in index order.
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for i, tok := range v.words {
		c, err := fmt.Fprintf(bw, "%s\t%d\n", tok, v.counts[i])
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ReadVocabulary restores a vocabulary written by WriteTo. Line n gets index n.
func ReadVocabulary(r io.Reader, maxSize int) (*Vocabulary, error) {
	if maxSize < 1 {
		return nil, kpseq.NewConfigurationError("max_vocabulary_size", "must be at least 1, got %d", maxSize)
	}
	v := newVocabulary(maxSize, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		tok, countStr, found := strings.Cut(scanner.Text(), "\t")
		count := 0
		if found {
			c, err := strconv.Atoi(countStr)
			if err != nil {
				return nil, fmt.Errorf("vocabulary line %d: %w", line, err)
			}
			count = c
		}
		if _, exists := v.index.Get(tok); exists {
			return nil, kpseq.NewConfigurationError("vocabulary", "duplicate token %q on line %d", tok, line)
		}
		v.add(tok, count)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	if v.Len() == 0 {
		return nil, kpseq.NewConfigurationError("vocabulary", "no entries").Wrap(kpseq.ErrEmptyCorpus)
	}
	return v, nil
}
