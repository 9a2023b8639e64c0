package notion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"notionwatch/internal/watch"
	"notionwatch/pkg/logx"
)

// rawPage is the subset of a Notion page object this system reads.
type rawPage struct {
	ID             string                     `json:"id"`
	URL            string                     `json:"url"`
	LastEditedTime string                     `json:"last_edited_time"`
	Properties     map[string]json.RawMessage `json:"properties"`
}

type richTextItem struct {
	PlainText string `json:"plain_text"`
}

// titleProp / richTextProp / checkboxProp decode the three property shapes
// this system cares about. Notion sends every property with a "type" tag and
// a payload keyed by that type.
type pageProperty struct {
	Type     string         `json:"type"`
	Title    []richTextItem `json:"title"`
	RichText []richTextItem `json:"rich_text"`
	Checkbox *bool          `json:"checkbox"`
}

// mapPage converts one raw page object into the canonical ChangeRecord.
//
// Structural failures (not JSON, missing id, unparseable timestamp) are hard
// errors: they indicate a truncated or incompatible page and abort the fetch.
// Missing *fields* are soft: an absent title maps to the placeholder, an
// absent detail to "", an absent pending checkbox to true (the query already
// filtered on it where configured).
func mapPage(raw json.RawMessage, cfg Config, log logx.Logger) (watch.ChangeRecord, error) {
	var p rawPage
	if err := json.Unmarshal(raw, &p); err != nil {
		return watch.ChangeRecord{}, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return watch.ChangeRecord{}, fmt.Errorf("page has no id")
	}

	modified, err := time.Parse(time.RFC3339, p.LastEditedTime)
	if err != nil {
		return watch.ChangeRecord{}, fmt.Errorf("page %s: last_edited_time: %w", p.ID, err)
	}

	rec := watch.ChangeRecord{
		ID:         p.ID,
		Title:      extractTitle(p.Properties, cfg.TitleProperty),
		Detail:     extractRichText(p.Properties, cfg.DetailProperty),
		ModifiedAt: modified.UTC(),
		Pending:    extractPending(p.Properties, cfg.PendingProperty),
		Location:   p.URL,
	}
	if rec.Title == watch.PlaceholderTitle {
		log.Debug("page has no title, using placeholder", logx.String("page_id", p.ID))
	}
	return rec, nil
}

// extractTitle reads the named title property, or auto-detects the page's
// title property when name is empty (every Notion database has exactly one).
func extractTitle(props map[string]json.RawMessage, name string) string {
	if name != "" {
		if pp, ok := decodeProperty(props[name]); ok {
			if s := joinPlainText(pp.Title); s != "" {
				return s
			}
		}
		return watch.PlaceholderTitle
	}
	for _, raw := range props {
		pp, ok := decodeProperty(raw)
		if !ok || pp.Type != "title" {
			continue
		}
		if s := joinPlainText(pp.Title); s != "" {
			return s
		}
	}
	return watch.PlaceholderTitle
}

func extractRichText(props map[string]json.RawMessage, name string) string {
	if name == "" {
		return ""
	}
	pp, ok := decodeProperty(props[name])
	if !ok {
		return ""
	}
	return joinPlainText(pp.RichText)
}

func extractPending(props map[string]json.RawMessage, name string) bool {
	if name == "" {
		return true
	}
	pp, ok := decodeProperty(props[name])
	if !ok || pp.Checkbox == nil {
		// Soft missing-field: the server-side filter already matched.
		return true
	}
	return *pp.Checkbox
}

func decodeProperty(raw json.RawMessage) (pageProperty, bool) {
	if len(raw) == 0 {
		return pageProperty{}, false
	}
	var pp pageProperty
	if err := json.Unmarshal(raw, &pp); err != nil {
		return pageProperty{}, false
	}
	return pp, true
}

func joinPlainText(items []richTextItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.PlainText)
	}
	return strings.TrimSpace(b.String())
}
