package assessment

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	domain "github.com/yungbote/skillforge-backend/internal/domain/assessment"
)

//go:embed templates.yaml
var templatesYAML []byte

const pointsPerDifficulty = 10

type template struct {
	Type        string   `yaml:"type"`
	Text        string   `yaml:"text"`
	Options     []string `yaml:"options"`
	Answer      string   `yaml:"answer"`
	Explanation string   `yaml:"explanation"`
}

// Bank is the template question source keyed by skill name, then category.
type Bank struct {
	skills     map[string][]template
	categories map[string][]template
	generic    []template
}

func DefaultBank() (*Bank, error) {
	return ParseBank(templatesYAML)
}

func ParseBank(raw []byte) (*Bank, error) {
	var doc struct {
		Skills     map[string][]template `yaml:"skills"`
		Categories map[string][]template `yaml:"categories"`
		Generic    []template            `yaml:"generic"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse question templates: %w", err)
	}
	if len(doc.Generic) == 0 {
		return nil, fmt.Errorf("question templates: generic pool is empty")
	}
	b := &Bank{
		skills:     make(map[string][]template, len(doc.Skills)),
		categories: make(map[string][]template, len(doc.Categories)),
		generic:    doc.Generic,
	}
	for k, v := range doc.Skills {
		b.skills[normKey(k)] = v
	}
	for k, v := range doc.Categories {
		b.categories[normKey(k)] = v
	}
	return b, nil
}

func normKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// pool returns templates for the skill in lookup order, each tier shuffled.
func (b *Bank) pool(sk *types.Skill, rng *rand.Rand) []template {
	var out []template
	for _, tier := range [][]template{
		b.skills[normKey(sk.Name)],
		b.categories[normKey(sk.Category)],
		b.generic,
	} {
		tier = append([]template(nil), tier...)
		rng.Shuffle(len(tier), func(i, j int) { tier[i], tier[j] = tier[j], tier[i] })
		out = append(out, tier...)
	}
	return out
}

// Build renders count questions at the given level. Templates repeat when the
// pool is smaller than count.
func (b *Bank) Build(sk *types.Skill, level, count int, rng *rand.Rand) []domain.Question {
	pool := b.pool(sk, rng)
	out := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		t := pool[i%len(pool)]
		render := func(s string) string { return strings.ReplaceAll(s, "{skill}", sk.Name) }
		opts := make([]string, 0, len(t.Options))
		for _, o := range t.Options {
			opts = append(opts, render(o))
		}
		qtype := t.Type
		if qtype == "" {
			qtype = domain.QuestionShortAnswer
		}
		out = append(out, domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Type:          qtype,
			Text:          render(t.Text),
			Options:       opts,
			CorrectAnswer: render(t.Answer),
			Explanation:   render(t.Explanation),
			Difficulty:    level,
			Points:        level * pointsPerDifficulty,
		})
	}
	return out
}
