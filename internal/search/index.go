// Package search provides a small, deterministic, concurrency-safe in-memory
// FAQ index. Entries are tagged with the intent they answer and the language
// they are written in, and ranked by Jaccard similarity between token sets:
// score = |Q ∩ E| / |Q ∪ E|.
//
// Thai is written without spaces between words, so Thai runs are tokenized
// into overlapping character bigrams while Latin text is split into words.
// The index is immutable after construction and does no logging.
package search

import (
	"bytes"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"
)

// Entry is one answer in the knowledge base. Empty Intent or Language
// means the entry matches any intent or language.
type Entry struct {
	Intent   string
	Language string
	Text     string
}

// Query selects candidate entries and supplies the text to rank them by.
type Query struct {
	Text     string
	Intent   string
	Language string
}

// Result is a ranked entry with its similarity score.
type Result struct {
	Entry
	Score float64
}

// Index is implemented by all knowledge indices.
type Index interface {
	TopK(q Query, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minEntryRunes int
	stopwords     map[string]struct{}
	maxEntries    int
}

func defaultConfig() config {
	return config{minEntryRunes: 10}
}

// WithMinEntryRunes drops entries shorter than n code points.
func WithMinEntryRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minEntryRunes = n
		}
	}
}

// WithStopwords removes the given Latin words from both queries and entries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxEntries caps the number of indexed entries.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	entry  Entry
	tokens map[string]struct{}
	runes  int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndexFromMarkdown reads the knowledge file at path; see ParseMarkdown
// for the expected layout.
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &index{cfg: defaultConfig()}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader parses Markdown from r and indexes its entries.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	entries, err := ParseMarkdown(r)
	if err != nil {
		return &index{cfg: cfg}, err
	}
	return buildIndex(entries, cfg), nil
}

// NewIndexFromEntries indexes entries directly.
func NewIndexFromEntries(entries []Entry, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return buildIndex(entries, cfg)
}

func buildIndex(entries []Entry, cfg config) *index {
	docs := make([]doc, 0, len(entries))
	for _, e := range entries {
		e.Text = strings.TrimSpace(normalizeWhitespace(e.Text))
		if e.Text == "" {
			continue
		}
		n := utf8.RuneCountInString(e.Text)
		if cfg.minEntryRunes > 0 && n < cfg.minEntryRunes {
			continue
		}
		toks := tokenize(e.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		if e.Language == "" {
			e.Language = languageOf(e.Text)
		}
		docs = append(docs, doc{entry: e, tokens: toks, runes: n})
		if cfg.maxEntries > 0 && len(docs) >= cfg.maxEntries {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching entries for q. Entries whose intent or
// language disagree with a non-empty query field are skipped. Ties prefer
// the shorter entry, then lexical order.
func (i *index) TopK(q Query, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q.Text) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q.Text, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		doc   doc
		score float64
	}
	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		if !matches(q.Intent, d.entry.Intent) || !matches(q.Language, d.entry.Language) {
			continue
		}
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		buf = append(buf, scored{doc: d, score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].doc.runes != buf[b].doc.runes {
			return buf[a].doc.runes < buf[b].doc.runes
		}
		return buf[a].doc.entry.Text < buf[b].doc.entry.Text
	})

	k = min(k, len(buf))
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = Result{Entry: buf[j].doc.entry, Score: buf[j].score}
	}
	return out
}

func matches(want, have string) bool {
	return want == "" || have == "" || want == have
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
