package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/fetcher"
	"github.com/pbaille/sfl/internal/service"
)

// withApp opens the graph for a one-shot command and waits for any
// enrichment it scheduled before returning.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
	defer cancel()
	if err := a.close(shutdownCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func addCmd() *cobra.Command {
	var (
		title   string
		summary string
		typ     string
	)

	cmd := &cobra.Command{
		Use:   "add [content or url]",
		Short: "Add a new idea",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				in := service.CreateIdeaInput{
					Type:    typ,
					Title:   domain.StringPtr(title),
					Summary: domain.StringPtr(summary),
					Data:    domain.Content{},
				}
				if fetcher.IsURL(content) && len(args) == 1 {
					if in.Type == "" {
						in.Type = domain.TypePage
					}
					in.URL = &content
				} else {
					if in.Type == "" {
						in.Type = domain.TypeNote
					}
					in.Data["text"] = content
				}

				out, err := a.svc.CreateIdea(ctx, in)
				if err != nil {
					return err
				}
				fmt.Printf("Added %s: %s\n", out.Idea.Type, out.Idea.ID[:8])
				if in.URL != nil && in.Type == domain.TypePage {
					data, err := a.svc.FetchContent(ctx, out.Idea.ID)
					if err != nil {
						fmt.Printf("(content fetch skipped: %v)\n", err)
					} else if data["article"] == false {
						fmt.Println("(no article text found)")
					}
				}
				fmt.Printf("Content: %s\n", truncate(content, 80))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "idea title")
	cmd.Flags().StringVar(&summary, "summary", "", "idea summary")
	cmd.Flags().StringVar(&typ, "type", "", "idea type (default note, or page for a url)")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		limit int
		typ   string
		tag   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent ideas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				page, err := a.svc.ListIdeas(ctx, domain.ListOptions{Type: typ, Tag: tag, Limit: limit})
				if err != nil {
					return err
				}
				if len(page.Ideas) == 0 {
					fmt.Println("No ideas yet. Use 'sfl add' to create one.")
					return nil
				}
				printIdeas(page.Ideas)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of ideas to show")
	cmd.Flags().StringVar(&typ, "type", "", "only ideas of this type")
	cmd.Flags().StringVar(&tag, "tag", "", "only ideas tagged with this tag id or title")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show idea details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := resolveID(ctx, a, args[0])
				if err != nil {
					return err
				}
				d, err := a.svc.GetIdea(ctx, id)
				if err != nil {
					return err
				}

				fmt.Printf("ID:      %s\n", d.Idea.ID)
				fmt.Printf("Type:    %s\n", d.Idea.Type)
				fmt.Printf("Created: %s\n", time.UnixMilli(d.Idea.CreatedAt).Format("2006-01-02 15:04:05"))
				if t := domain.Deref(d.Idea.Title); t != "" {
					fmt.Printf("Title:   %s\n", t)
				}
				if u := domain.Deref(d.Idea.URL); u != "" {
					fmt.Printf("URL:     %s\n", u)
				}
				if text, ok := d.Data["text"].(string); ok && text != "" {
					fmt.Printf("Content:\n%s\n", text)
				}

				if len(d.Connections) > 0 {
					fmt.Printf("\nConnections:\n")
					for _, c := range d.Connections {
						fmt.Printf("  - %s %s (%s)\n", c.Label, c.Other(id)[:8], domain.Deref(otherTitle(c, id)))
					}
				}
				if len(d.Notes) > 0 {
					fmt.Printf("\nNotes:\n")
					for _, n := range d.Notes {
						fmt.Printf("  - %s\n", truncate(n.Body, 70))
					}
				}
				return nil
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over ideas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ideas, err := a.svc.SearchIdeas(ctx, strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				if len(ideas) == 0 {
					fmt.Println("No matching ideas found.")
					return nil
				}
				printIdeas(ideas)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of results")
	return cmd
}

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags by usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				tags, err := a.svc.ListTags(ctx)
				if err != nil {
					return err
				}
				if len(tags) == 0 {
					fmt.Println("No tags yet. Create one with 'sfl add --type tag -t <name> <description>'.")
					return nil
				}
				for _, t := range tags {
					fmt.Printf("%s  %-30s %d\n", t.ID[:8], domain.Deref(t.Title), t.UsageCount)
				}
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}

	var client string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				token := "sfl_" + rand.Text()
				if err := a.store.InsertToken(ctx, token, client); err != nil {
					return err
				}
				fmt.Println(token)
				return nil
			})
		},
	}
	issue.Flags().StringVar(&client, "client", "cli", "client name recorded with the token")
	cmd.AddCommand(issue)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	})
	return cmd
}

// resolveID accepts a full id or the prefix of a recent idea's id.
func resolveID(ctx context.Context, a *app, prefix string) (string, error) {
	if _, err := a.store.GetIdea(ctx, prefix); err == nil {
		return prefix, nil
	}
	page, err := a.svc.ListIdeas(ctx, domain.ListOptions{Limit: domain.MaxLimit})
	if err != nil {
		return "", err
	}
	for _, idea := range page.Ideas {
		if strings.HasPrefix(idea.ID, prefix) {
			return idea.ID, nil
		}
	}
	return "", fmt.Errorf("idea not found: %s", prefix)
}

func otherTitle(c domain.ConnectionView, self string) *string {
	if c.FromID == self {
		return c.ToTitle
	}
	return c.FromTitle
}

func printIdeas(ideas []domain.Idea) {
	for _, i := range ideas {
		label := domain.Deref(i.Title)
		if label == "" {
			label = domain.Deref(i.URL)
		}
		fmt.Printf("%s  %-6s %s\n", i.ID[:8], i.Type, truncate(label, 60))
	}
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
