// Package spam implements a trainable naive-Bayes text classifier used to
// route inbound mail to the spam folder. The classifier is trained once at
// process start, from a fixed corpus or a persisted snapshot, and is
// read-only afterwards, so concurrent Classify calls need no locking.
package spam

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"
)

// Verdict is the classification outcome for a piece of text.
type Verdict string

const (
	VerdictSpam    Verdict = "spam"
	VerdictNotSpam Verdict = "not-spam"
)

// IsSpam reports whether the verdict is spam.
func (v Verdict) IsSpam() bool { return v == VerdictSpam }

// counts holds per-word occurrence counts for one class.
type counts struct {
	Words map[string]int `json:"words"`
	Docs  int            `json:"docs"`
	Total int            `json:"total"`
}

// Classifier is a word-level naive-Bayes spam/ham classifier.
type Classifier struct {
	Spam counts `json:"spam"`
	Ham  counts `json:"ham"`

	trained bool
}

// New returns an empty, untrained classifier.
func New() *Classifier {
	return &Classifier{
		Spam: counts{Words: make(map[string]int)},
		Ham:  counts{Words: make(map[string]int)},
	}
}

// Train records one labeled document.
func (c *Classifier) Train(text string, spam bool) {
	words := tokenize(text)
	if len(words) == 0 {
		return
	}
	cl := &c.Ham
	if spam {
		cl = &c.Spam
	}
	cl.Docs++
	for _, w := range words {
		cl.Words[w]++
		cl.Total++
	}
	c.trained = true
}

// Classify scores text and returns a verdict. Degenerate input (empty text,
// no recognizable words, untrained state) is never spam.
func (c *Classifier) Classify(text string) Verdict {
	if c == nil || !c.trained || c.Spam.Docs == 0 || c.Ham.Docs == 0 {
		return VerdictNotSpam
	}
	words := tokenize(text)
	if len(words) == 0 {
		return VerdictNotSpam
	}

	vocab := len(c.Spam.Words) + len(c.Ham.Words)
	if vocab == 0 {
		return VerdictNotSpam
	}

	totalDocs := float64(c.Spam.Docs + c.Ham.Docs)
	spamScore := math.Log(float64(c.Spam.Docs) / totalDocs)
	hamScore := math.Log(float64(c.Ham.Docs) / totalDocs)

	// Laplace-smoothed per-word log likelihoods.
	for _, w := range words {
		spamScore += math.Log(float64(c.Spam.Words[w]+1) / float64(c.Spam.Total+vocab))
		hamScore += math.Log(float64(c.Ham.Words[w]+1) / float64(c.Ham.Total+vocab))
	}

	if spamScore > hamScore {
		return VerdictSpam
	}
	return VerdictNotSpam
}

// Save writes a JSON snapshot of the trained state.
func (c *Classifier) Save(path string) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode classifier: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write classifier snapshot: %w", err)
	}
	return nil
}

// Load restores a classifier from a JSON snapshot.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier snapshot: %w", err)
	}
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to decode classifier snapshot: %w", err)
	}
	c.trained = c.Spam.Docs > 0 && c.Ham.Docs > 0
	return c, nil
}

// LoadOrTrain restores a snapshot from path, falling back to training a new
// classifier from the built-in corpus when no usable snapshot exists. The
// freshly trained state is saved back to path on a best-effort basis.
func LoadOrTrain(path string) *Classifier {
	if path != "" {
		if c, err := Load(path); err == nil && c.trained {
			return c
		}
	}
	c := NewFromCorpus()
	if path != "" {
		_ = c.Save(path)
	}
	return c
}

// NewFromCorpus trains a classifier on the fixed built-in corpus.
func NewFromCorpus() *Classifier {
	c := New()
	for _, doc := range spamCorpus {
		c.Train(doc, true)
	}
	for _, doc := range hamCorpus {
		c.Train(doc, false)
	}
	return c
}

// Fixed training corpus. Deliberately small; the classifier contract only
// requires determinism given fixed trained state.
var (
	spamCorpus = []string{
		"win money now instant prize",
		"free exclusive offer click here limited time",
		"nigerian prince needs your help with funds",
		"enlarge your xxx product now",
		"urgent account verification needed immediately",
	}
	hamCorpus = []string{
		"hello friend how are you doing today",
		"meeting scheduled for tomorrow at 10am",
		"project update and next steps discussion",
		"invoice for recent purchase order #12345",
		"family gathering next weekend, hope you can make it",
	}
)

// tokenize lower-cases text and splits it into letter/digit runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
