package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"researchsim/internal/tech"
)

// Document is one technology authored as markdown with YAML frontmatter.
// The body becomes the description when the frontmatter has none.
type Document struct {
	Frontmatter map[string]any
	Definition  tech.Definition
	Body        string
	SourceFile  string
}

var (
	ErrNoFrontmatter   = errors.New("no frontmatter found")
	ErrInvalidYAML     = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle    = errors.New("frontmatter missing required 'title' field")
	ErrMissingCategory = errors.New("frontmatter missing required 'category' field")
)

// technologyFields mirrors the frontmatter keys a technology document may set.
type technologyFields struct {
	Title           string             `yaml:"title"`
	ID              string             `yaml:"id"`
	Description     string             `yaml:"description"`
	Category        string             `yaml:"category"`
	Prerequisites   any                `yaml:"prerequisites"`
	RequiredSkills  map[string]float64 `yaml:"required_skills"`
	Complexity      *float64           `yaml:"complexity"`
	DiscoveryChance *float64           `yaml:"discovery_chance"`
	Benefits        map[string]float64 `yaml:"benefits"`
	UnlockActions   any                `yaml:"unlock_actions"`
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := strings.TrimSpace(string(rest[end+len("---\n"):]))

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}
	var fields technologyFields
	if err := yaml.Unmarshal(yamlBytes, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if strings.TrimSpace(fields.Title) == "" {
		return nil, ErrMissingTitle
	}
	if strings.TrimSpace(fields.Category) == "" {
		return nil, ErrMissingCategory
	}

	prerequisites, err := parseList("prerequisites", fields.Prerequisites)
	if err != nil {
		return nil, err
	}
	unlocks, err := parseList("unlock_actions", fields.UnlockActions)
	if err != nil {
		return nil, err
	}

	def := tech.Definition{
		ID:             fields.ID,
		Name:           strings.TrimSpace(fields.Title),
		Description:    fields.Description,
		Category:       tech.Category(strings.ToLower(strings.TrimSpace(fields.Category))),
		Prerequisites:  prerequisites,
		RequiredSkills: fields.RequiredSkills,
		Benefits:       fields.Benefits,
		UnlockActions:  unlocks,
	}
	if def.ID == "" {
		def.ID = Slug(def.Name)
	}
	if def.Description == "" {
		def.Description = firstParagraph(body)
	}
	def.Complexity = 0.5
	if fields.Complexity != nil {
		def.Complexity = *fields.Complexity
	}
	def.DiscoveryChance = 0.01
	if fields.DiscoveryChance != nil {
		def.DiscoveryChance = *fields.DiscoveryChance
	}

	return &Document{
		Frontmatter: frontmatter,
		Definition:  def,
		Body:        body,
	}, nil
}

// Slug turns a title into a catalog id: "Basic Tools" becomes "basic_tools".
func Slug(title string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case b.Len() > 0 && !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func firstParagraph(body string) string {
	if body == "" {
		return ""
	}
	para, _, _ := strings.Cut(body, "\n\n")
	return strings.Join(strings.Fields(para), " ")
}

func parseList(field string, value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be strings", field)
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			items = append(items, s)
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%s must be string or list of strings", field)
	}
}
