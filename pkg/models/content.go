package models

import (
	"encoding/json"
	"fmt"
)

// BlockType identifies which typed payload a block's Content column holds.
// The set is closed: decoding a type outside it is an error, never a
// fallback to a generic shape.
type BlockType string

const (
	BlockTypeText         BlockType = "text"
	BlockTypeHeading      BlockType = "heading"
	BlockTypeBulletList   BlockType = "bullet_list"
	BlockTypeNumberedList BlockType = "numbered_list"
	BlockTypeTodo         BlockType = "todo"
	BlockTypeQuote        BlockType = "quote"
	BlockTypeCode         BlockType = "code"
	BlockTypeDivider      BlockType = "divider"
	BlockTypeImage        BlockType = "image"
	BlockTypeTable        BlockType = "table"
	BlockTypeDatabase     BlockType = "database"
	BlockTypePage         BlockType = "page"
)

// BlockContent is the closed union of payload shapes. Each block type has
// exactly one implementation; DecodeContent is the only constructor from
// stored data.
type BlockContent interface {
	blockContent()
	// Validate reports whether the payload is internally consistent
	// (heading levels in range, table rows referencing known columns).
	Validate() error
}

// TextContent is the payload of text and quote blocks.
type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) blockContent()   {}
func (TextContent) Validate() error { return nil }

// HeadingContent carries the heading text and its level, 1 through 3.
type HeadingContent struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

func (HeadingContent) blockContent() {}

func (h HeadingContent) Validate() error {
	if h.Level < 1 || h.Level > 3 {
		return fmt.Errorf("heading level %d out of range 1..3", h.Level)
	}
	return nil
}

// ListContent is the payload of bulleted and numbered list blocks.
type ListContent struct {
	Items []string `json:"items"`
}

func (ListContent) blockContent()   {}
func (ListContent) Validate() error { return nil }

// TodoContent is the payload of checklist item blocks.
type TodoContent struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

func (TodoContent) blockContent()   {}
func (TodoContent) Validate() error { return nil }

// CodeContent is the payload of code snippet blocks.
type CodeContent struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

func (CodeContent) blockContent()   {}
func (CodeContent) Validate() error { return nil }

// DividerContent is the empty payload of divider blocks.
type DividerContent struct{}

func (DividerContent) blockContent()   {}
func (DividerContent) Validate() error { return nil }

// ImageContent is the payload of image blocks.
type ImageContent struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

func (ImageContent) blockContent() {}

func (i ImageContent) Validate() error {
	if i.URL == "" {
		return fmt.Errorf("image block requires a url")
	}
	return nil
}

// TableColumn describes one column of a table block.
type TableColumn struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TableContent is the payload of table blocks. Row cells are keyed by
// column id.
type TableContent struct {
	Columns []TableColumn       `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

func (TableContent) blockContent() {}

func (t TableContent) Validate() error {
	known := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.ID == "" {
			return fmt.Errorf("table column %q has no id", c.Name)
		}
		if _, dup := known[c.ID]; dup {
			return fmt.Errorf("duplicate table column id %q", c.ID)
		}
		known[c.ID] = struct{}{}
	}
	for i, row := range t.Rows {
		for colID := range row {
			if _, ok := known[colID]; !ok {
				return fmt.Errorf("table row %d references unknown column %q", i, colID)
			}
		}
	}
	return nil
}

// DatabaseContent references an embedded sub-database.
type DatabaseContent struct {
	DatabaseID string  `json:"database_id,omitempty"`
	Properties JSONMap `json:"properties,omitempty"`
}

func (DatabaseContent) blockContent()   {}
func (DatabaseContent) Validate() error { return nil }

// PageRefContent references an embedded sub-page.
type PageRefContent struct {
	PageID PageID `json:"page_id"`
}

func (PageRefContent) blockContent() {}

func (p PageRefContent) Validate() error {
	if p.PageID.IsZero() {
		return fmt.Errorf("page block requires a page_id")
	}
	return nil
}

// DecodeContent decodes a stored JSONMap into the typed payload for the
// given block type and validates it. There is deliberately no default case.
func DecodeContent(t BlockType, raw JSONMap) (BlockContent, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode content for %s block: %w", t, err)
	}

	var content BlockContent
	switch t {
	case BlockTypeText, BlockTypeQuote:
		var c TextContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeHeading:
		var c HeadingContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeBulletList, BlockTypeNumberedList:
		var c ListContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeTodo:
		var c TodoContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeCode:
		var c CodeContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeDivider:
		var c DividerContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeImage:
		var c ImageContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeTable:
		var c TableContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypeDatabase:
		var c DatabaseContent
		err = json.Unmarshal(data, &c)
		content = c
	case BlockTypePage:
		var c PageRefContent
		err = json.Unmarshal(data, &c)
		content = c
	default:
		return nil, fmt.Errorf("unknown block type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s block content: %w", t, err)
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s block content: %w", t, err)
	}
	return content, nil
}

// EncodeContent converts a typed payload back into the stored JSONMap form.
func EncodeContent(c BlockContent) (JSONMap, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = JSONMap{}
	}
	return m, nil
}

// ValidateBlockContent checks a raw content payload against the block type
// without keeping the decoded form.
func ValidateBlockContent(t BlockType, raw JSONMap) error {
	_, err := DecodeContent(t, raw)
	return err
}
