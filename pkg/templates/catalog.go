// Package templates expands named block scaffolds onto a page. A template
// is a static forest of typed block payloads; expansion stamps it out as
// fresh blocks through the editor so the usual access checks, locking, and
// change records all apply.
package templates

import (
	"sort"

	"github.com/notebase/notebase/pkg/models"
)

// TemplateBlock is one node of a template's scaffold.
type TemplateBlock struct {
	Type     models.BlockType `json:"type"`
	Content  models.JSONMap   `json:"content"`
	Children []TemplateBlock  `json:"children,omitempty"`
}

// Template is a named scaffold.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Blocks      []TemplateBlock `json:"blocks"`
}

// Catalog resolves template ids. The built-in catalog is static; a future
// store-backed one can sit behind the same interface.
type Catalog interface {
	Get(id string) (*Template, bool)
	List() []*Template
}

type builtinCatalog struct {
	byID map[string]*Template
}

// Builtin returns the catalog of templates that ship with the server.
func Builtin() Catalog {
	c := &builtinCatalog{byID: make(map[string]*Template)}
	for _, t := range builtinTemplates() {
		c.byID[t.ID] = t
	}
	return c
}

func (c *builtinCatalog) Get(id string) (*Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

func (c *builtinCatalog) List() []*Template {
	out := make([]*Template, 0, len(c.byID))
	for _, t := range c.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func builtinTemplates() []*Template {
	return []*Template{
		{
			ID:          "meeting-notes",
			Name:        "Meeting Notes",
			Description: "Agenda, notes, and action items for a meeting",
			Blocks: []TemplateBlock{
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Meeting Notes", "level": float64(1)}},
				{Type: models.BlockTypeText, Content: models.JSONMap{"text": "Date: "}},
				{Type: models.BlockTypeText, Content: models.JSONMap{"text": "Attendees: "}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Agenda", "level": float64(2)}},
				{Type: models.BlockTypeBulletList, Content: models.JSONMap{"items": []any{}}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Notes", "level": float64(2)}},
				{Type: models.BlockTypeText, Content: models.JSONMap{"text": ""}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Action Items", "level": float64(2)}},
				{Type: models.BlockTypeTodo, Content: models.JSONMap{"text": "", "checked": false}},
			},
		},
		{
			ID:          "project-plan",
			Name:        "Project Plan",
			Description: "Goals, milestones, and risks for a project",
			Blocks: []TemplateBlock{
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Project Plan", "level": float64(1)}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Overview", "level": float64(2)}},
				{Type: models.BlockTypeText, Content: models.JSONMap{"text": ""}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Goals", "level": float64(2)}},
				{Type: models.BlockTypeBulletList, Content: models.JSONMap{"items": []any{}}},
				{
					Type:    models.BlockTypeHeading,
					Content: models.JSONMap{"text": "Milestones", "level": float64(2)},
					Children: []TemplateBlock{
						{Type: models.BlockTypeTodo, Content: models.JSONMap{"text": "Milestone 1", "checked": false}},
						{Type: models.BlockTypeTodo, Content: models.JSONMap{"text": "Milestone 2", "checked": false}},
					},
				},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Risks", "level": float64(2)}},
				{Type: models.BlockTypeBulletList, Content: models.JSONMap{"items": []any{}}},
			},
		},
		{
			ID:          "daily-journal",
			Name:        "Daily Journal",
			Description: "Gratitude, plans, and reflections for the day",
			Blocks: []TemplateBlock{
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Daily Journal", "level": float64(1)}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Today I'm grateful for", "level": float64(3)}},
				{Type: models.BlockTypeBulletList, Content: models.JSONMap{"items": []any{}}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Today's plan", "level": float64(3)}},
				{Type: models.BlockTypeTodo, Content: models.JSONMap{"text": "", "checked": false}},
				{Type: models.BlockTypeHeading, Content: models.JSONMap{"text": "Reflections", "level": float64(3)}},
				{Type: models.BlockTypeText, Content: models.JSONMap{"text": ""}},
			},
		},
	}
}
