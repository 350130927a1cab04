package bank

import (
	"embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/nextstep/internal/assessment"
)

//go:embed data/*.yaml
var defaults embed.FS

// defaultFiles maps each sub-test to its embedded bank file.
var defaultFiles = map[assessment.SubTest]string{
	assessment.SubTestGapAnalysis: "data/gap_analysis.yaml",
	assessment.SubTestPersonality: "data/personality.yaml",
	assessment.SubTestCoding:      "data/coding.yaml",
}

// Bank is an ordered, immutable question bank.
type Bank struct {
	SubTest   assessment.SubTest
	questions []assessment.Question
	byID      map[string]int
}

var _ assessment.Bank = (*Bank)(nil)

// file is the on-disk YAML layout.
type file struct {
	SubTest   assessment.SubTest    `yaml:"sub_test"`
	Questions []assessment.Question `yaml:"questions"`
}

// Load decodes a YAML bank. Ordinals are assigned in file order.
func Load(r io.Reader) (*Bank, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	return New(f.SubTest, f.Questions)
}

// LoadFile loads a bank from a YAML file on disk.
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded bank for a sub-test.
func Default(st assessment.SubTest) (*Bank, error) {
	name, ok := defaultFiles[st]
	if !ok {
		return nil, fmt.Errorf("no default bank for %q", st)
	}
	f, err := defaults.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open embedded bank: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// New builds a bank from questions, validating ids.
func New(st assessment.SubTest, qs []assessment.Question) (*Bank, error) {
	b := &Bank{
		SubTest:   st,
		questions: make([]assessment.Question, len(qs)),
		byID:      make(map[string]int, len(qs)),
	}
	for i, q := range qs {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: empty id", i)
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		q.Ordinal = i
		b.questions[i] = q
		b.byID[q.ID] = i
	}
	return b, nil
}

// At returns a copy of the question at ordinal i.
func (b *Bank) At(i int) (*assessment.Question, bool) {
	if i < 0 || i >= len(b.questions) {
		return nil, false
	}
	q := b.questions[i]
	return &q, true
}

// Get returns a copy of the question with the given id.
func (b *Bank) Get(id string) (*assessment.Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	q := b.questions[i]
	return &q, true
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Filter returns the questions for which keep returns true, in bank order.
func (b *Bank) Filter(keep func(q *assessment.Question) bool) []*assessment.Question {
	var out []*assessment.Question
	for i := range b.questions {
		q := b.questions[i]
		if keep(&q) {
			out = append(out, &q)
		}
	}
	return out
}

// Topics returns the distinct non-empty topics in bank order.
func (b *Bank) Topics() []string {
	var out []string
	seen := make(map[string]bool)
	for _, q := range b.questions {
		if q.Topic == "" || seen[q.Topic] {
			continue
		}
		seen[q.Topic] = true
		out = append(out, q.Topic)
	}
	return out
}
