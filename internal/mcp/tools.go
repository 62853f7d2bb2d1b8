package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/service"
)

// Tool is one entry of the catalog. The same definition backs the HTTP
// envelope and the stdio server.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	call     func(ctx context.Context, args json.RawMessage) (any, error)
	register func(srv *gomcp.Server)
}

// define builds a Tool whose arguments decode into In.
func define[In any](name, description string, fn func(ctx context.Context, in In) (any, error)) Tool {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("schema for tool %s: %v", name, err))
	}
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
		call: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in In
			if len(args) > 0 && string(args) != "null" {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, apierr.BadRequestf("invalid arguments: %v", err)
				}
			}
			return fn(ctx, in)
		},
		register: func(srv *gomcp.Server) {
			gomcp.AddTool(srv, &gomcp.Tool{Name: name, Description: description},
				func(ctx context.Context, _ *gomcp.CallToolRequest, in In) (*gomcp.CallToolResult, any, error) {
					out, err := fn(ctx, in)
					text, isErr := renderResult(out, err)
					return &gomcp.CallToolResult{
						Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
						IsError: isErr,
					}, nil, nil
				})
		},
	}
}

// renderResult formats a tool outcome as text: indented JSON on success,
// "Error: ..." otherwise. Internal errors are not shown verbatim.
func renderResult(out any, err error) (string, bool) {
	if err != nil {
		if apierr.KindOf(err) == apierr.Internal {
			return "Error: internal error", true
		}
		return "Error: " + err.Error(), true
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error: marshal result: %v", err), true
	}
	return string(data), false
}

type ListTagsInput struct{}

type SearchIdeasInput struct {
	Q     string `json:"q" jsonschema:"Search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type ListIdeasInput struct {
	Type   string `json:"type,omitempty" jsonschema:"Filter by type: note, page, quote, book, tweet, image, video, tag, meta"`
	Tag    string `json:"tag,omitempty" jsonschema:"Filter by tag ID or tag title"`
	URL    string `json:"url,omitempty" jsonschema:"Filter by exact url (project identifier for meta ideas)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max results (default 20, max 100)"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Pagination cursor from previous response"`
}

type GetIdeaInput struct {
	ID string `json:"id" jsonschema:"Idea ID"`
}

type CreateIdeaInput struct {
	Type    string         `json:"type" jsonschema:"Idea type (note, page, quote, book, tweet, image, video, tag, meta)"`
	Title   string         `json:"title,omitempty" jsonschema:"Title"`
	URL     string         `json:"url,omitempty" jsonschema:"URL (for page/tweet types)"`
	Summary string         `json:"summary,omitempty" jsonschema:"Short summary"`
	Data    domain.Content `json:"data,omitempty" jsonschema:"Type-specific content blob"`
}

type UpdateIdeaInput struct {
	ID      string         `json:"id" jsonschema:"Idea ID"`
	Title   *string        `json:"title,omitempty" jsonschema:"New title (empty string clears it)"`
	URL     *string        `json:"url,omitempty" jsonschema:"New URL (empty string clears it)"`
	Summary *string        `json:"summary,omitempty" jsonschema:"New summary (empty string clears it)"`
	Data    domain.Content `json:"data,omitempty" jsonschema:"Content keys to set; other existing keys are kept"`
}

type TagIdeaInput struct {
	IdeaID string `json:"idea_id" jsonschema:"ID of the idea to tag"`
	TagID  string `json:"tag_id" jsonschema:"ID of the tag idea"`
}

type CreateConnectionInput struct {
	FromID string `json:"from_id" jsonschema:"Source idea ID"`
	ToID   string `json:"to_id" jsonschema:"Target idea ID"`
	Label  string `json:"label,omitempty" jsonschema:"Connection label (optional)"`
}

type AddNoteInput struct {
	IdeaID string `json:"idea_id" jsonschema:"ID of the idea"`
	Body   string `json:"body" jsonschema:"Note content"`
}

type CaptureInput struct {
	Content string   `json:"content" jsonschema:"Note content"`
	Title   string   `json:"title,omitempty" jsonschema:"Optional short title"`
	TagIDs  []string `json:"tag_ids,omitempty" jsonschema:"IDs of tag ideas to apply (1-3)"`
}

// Catalog returns the tools in listing order.
func Catalog(svc *service.Service) []Tool {
	return []Tool{
		define("list_tags",
			"List all tags with usage counts. Call this before capture_idea to find relevant tag IDs.",
			func(ctx context.Context, _ ListTagsInput) (any, error) {
				tags, err := svc.ListTags(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"tags": tags}, nil
			}),
		define("capture_idea",
			"Primary capture tool: save a note. First call list_tags to find 1-3 relevant tags and pass their IDs "+
				"in tag_ids. If no relevant tag exists, create one first with create_idea (type=\"tag\").",
			func(ctx context.Context, in CaptureInput) (any, error) {
				out, err := svc.Capture(ctx, service.CaptureInput{Content: in.Content, Title: in.Title, TagIDs: in.TagIDs})
				if err != nil {
					return nil, err
				}
				return map[string]any{"idea": out.Idea}, nil
			}),
		define("search_ideas",
			"Full-text search across idea titles and summaries.",
			func(ctx context.Context, in SearchIdeasInput) (any, error) {
				ideas, err := svc.SearchIdeas(ctx, in.Q, in.Limit)
				if err != nil {
					return nil, err
				}
				return map[string]any{"ideas": ideas}, nil
			}),
		define("list_ideas",
			"List ideas newest first, optionally filtered by type, tag or url.",
			func(ctx context.Context, in ListIdeasInput) (any, error) {
				opts := domain.ListOptions{Type: in.Type, Tag: in.Tag, URL: in.URL, Limit: in.Limit}
				if in.Cursor != "" {
					c, err := strconv.ParseInt(in.Cursor, 10, 64)
					if err != nil {
						return nil, apierr.BadRequestf("invalid cursor %q", in.Cursor)
					}
					opts.Cursor = c
				}
				return svc.ListIdeas(ctx, opts)
			}),
		define("get_idea",
			"Get full details of an idea including its content, notes, media and connections.",
			func(ctx context.Context, in GetIdeaInput) (any, error) {
				return svc.GetIdea(ctx, in.ID)
			}),
		define("create_idea",
			"Create a new idea of any type (note, page, quote, book, tweet, image, video, tag, meta).",
			func(ctx context.Context, in CreateIdeaInput) (any, error) {
				return svc.CreateIdea(ctx, service.CreateIdeaInput{
					Type:    in.Type,
					Title:   domain.StringPtr(in.Title),
					URL:     domain.StringPtr(in.URL),
					Summary: domain.StringPtr(in.Summary),
					Data:    in.Data,
				})
			}),
		define("update_idea",
			"Update an idea's title, url or summary and merge keys into its content.",
			func(ctx context.Context, in UpdateIdeaInput) (any, error) {
				if in.ID == "" {
					return nil, apierr.BadRequestf("id is required")
				}
				return svc.MergeIdea(ctx, in.ID, service.UpdateIdeaInput{
					Title:   in.Title,
					URL:     in.URL,
					Summary: in.Summary,
					Data:    in.Data,
				})
			}),
		define("tag_idea",
			"Tag an idea by connecting it to a tag idea.",
			func(ctx context.Context, in TagIdeaInput) (any, error) {
				if err := svc.TagIdea(ctx, in.IdeaID, in.TagID); err != nil {
					return nil, err
				}
				return map[string]any{"tagged": true, "idea_id": in.IdeaID, "tag_id": in.TagID}, nil
			}),
		define("create_connection",
			"Create a labeled connection between two ideas.",
			func(ctx context.Context, in CreateConnectionInput) (any, error) {
				c, err := svc.CreateConnection(ctx, service.CreateConnectionInput{FromID: in.FromID, ToID: in.ToID, Label: in.Label})
				if err != nil {
					return nil, err
				}
				return map[string]any{"connection": c}, nil
			}),
		define("add_note",
			"Add a note to an existing idea.",
			func(ctx context.Context, in AddNoteInput) (any, error) {
				n, err := svc.AddNote(ctx, in.IdeaID, in.Body)
				if err != nil {
					return nil, err
				}
				return map[string]any{"note": n}, nil
			}),
	}
}
