package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sentence = "This paragraph has more than enough words to count as article text for sure."

func page(paragraphs int, chrome string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><nav><p>" + sentence + " nav</p></nav>")
	sb.WriteString(chrome)
	sb.WriteString("<article>")
	for i := 0; i < paragraphs; i++ {
		sb.WriteString("<p>" + sentence + " <b>bold</b> " + sentence + " " + sentence + "</p>")
	}
	sb.WriteString("<p>too short</p></article><footer><p>" + sentence + " footer</p></footer></body></html>")
	return sb.String()
}

func TestExtractArticle(t *testing.T) {
	got := extractArticle(page(3, "<script>var x = 1;</script>"))
	paras := strings.Split(got, "\n\n")
	if len(paras) != 3 {
		t.Fatalf("got %d paragraphs: %q", len(paras), got)
	}
	for _, p := range paras {
		if strings.Contains(p, "nav") || strings.Contains(p, "footer") || strings.Contains(p, "too short") {
			t.Errorf("unexpected paragraph %q", p)
		}
		if !strings.Contains(p, " bold ") {
			t.Errorf("inline text lost in %q", p)
		}
	}
}

func TestExtractArticleRejectsThinPages(t *testing.T) {
	if got := extractArticle(page(2, "")); got != "" {
		t.Errorf("two paragraphs should not count as an article, got %q", got)
	}
	short := "<p>one two three four five six seven eight</p>"
	if got := extractArticle(strings.Repeat(short, 5)); got != "" {
		t.Errorf("under 500 characters should not count, got %q", got)
	}
}

func TestArticle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page(4, "")))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/post", http.StatusFound)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/thin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>hi</p>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(5*time.Second, 0)
	ctx := context.Background()

	text, err := f.Article(ctx, srv.URL+"/moved")
	if err != nil || !strings.HasPrefix(text, sentence) {
		t.Fatalf("Article = %q, %v", text, err)
	}
	if _, err := f.Article(ctx, srv.URL+"/json"); !errors.Is(err, ErrNotHTML) {
		t.Errorf("json page err = %v", err)
	}
	if _, err := f.Article(ctx, srv.URL+"/thin"); !errors.Is(err, ErrNoArticle) {
		t.Errorf("thin page err = %v", err)
	}
	if _, err := f.Article(ctx, srv.URL+"/missing"); err == nil {
		t.Error("404 should fail")
	}
}

func TestImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pics/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>nope</p>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(0, 0)
	img, err := f.Image(context.Background(), srv.URL+"/pics/cat.png?size=large")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if img.Filename != "cat.png" || img.ContentType != "image/png" || len(img.Body) != 4 {
		t.Errorf("img = %+v", img)
	}
	if _, err := f.Image(context.Background(), srv.URL+"/page"); !errors.Is(err, ErrNotImage) {
		t.Errorf("html err = %v", err)
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://x.com/a/b/photo.webp": "photo.webp",
		"https://x.com/a/b/photo":      "photo.jpg",
		"https://x.com/":               "image.jpg",
		"https://x.com":                "image.jpg",
	}
	for in, want := range tests {
		if got := FilenameFromURL(in); got != want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsURL(t *testing.T) {
	for _, s := range []string{"https://a.b", "http://a.b", "www.a.b", "  https://a.b "} {
		if !IsURL(s) {
			t.Errorf("IsURL(%q) = false", s)
		}
	}
	if IsURL("just a note") {
		t.Error("plain text treated as URL")
	}
}
