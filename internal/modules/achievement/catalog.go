package achievement

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	domain "github.com/yungbote/skillforge-backend/internal/domain/achievement"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Definition is one catalog entry with its condition decoded.
type Definition struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Icon        string           `yaml:"icon" json:"icon"`
	Category    string           `yaml:"category" json:"category"`
	Points      int              `yaml:"points" json:"points"`
	Condition   domain.Condition `yaml:"condition" json:"condition"`
}

// Catalog is immutable once loaded.
type Catalog struct {
	defs []Definition
	byID map[string]Definition
}

var knownKinds = map[string]bool{
	domain.KindAssessmentCount: true,
	domain.KindHighScore:       true,
	domain.KindPerfectScore:    true,
	domain.KindAverageScore:    true,
	domain.KindSkillCategories: true,
	domain.KindUniqueSkills:    true,
	domain.KindSkillLevel:      true,
	domain.KindStreak:          true,
	domain.KindTotalXP:         true,
	domain.KindFastCompletion:  true,
	domain.KindTimeBased:       true,
	domain.KindMasteryLevel:    true,
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc struct {
		Achievements []Definition `yaml:"achievements"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse achievement catalog: %w", err)
	}
	c := &Catalog{byID: make(map[string]Definition, len(doc.Achievements))}
	for _, d := range doc.Achievements {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("achievement catalog: entry without id")
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("achievement catalog: duplicate id %q", d.ID)
		}
		if !knownKinds[d.Condition.Type] {
			return nil, fmt.Errorf("achievement catalog: %s has unknown condition %q", d.ID, d.Condition.Type)
		}
		if d.Condition.Type == domain.KindTimeBased &&
			d.Condition.Window != domain.WindowNight && d.Condition.Window != domain.WindowMorning {
			return nil, fmt.Errorf("achievement catalog: %s has unknown window %q", d.ID, d.Condition.Window)
		}
		if d.Points < 0 {
			return nil, fmt.Errorf("achievement catalog: %s has negative points", d.ID)
		}
		c.defs = append(c.defs, d)
		c.byID[d.ID] = d
	}
	return c, nil
}

func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *Catalog) Get(id string) (Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

func (c *Catalog) Len() int { return len(c.defs) }

// Models converts the catalog into rows for the achievement table.
func (c *Catalog) Models() ([]*types.Achievement, error) {
	out := make([]*types.Achievement, 0, len(c.defs))
	for i, d := range c.defs {
		cond, err := json.Marshal(d.Condition)
		if err != nil {
			return nil, err
		}
		out = append(out, &types.Achievement{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Category:    d.Category,
			Points:      d.Points,
			Condition:   cond,
			SortOrder:   i,
		})
	}
	return out, nil
}
