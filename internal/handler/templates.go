package handler

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"year": func() int {
			return time.Now().Year()
		},
		"formatPrice": func(p float64) string {
			return fmt.Sprintf("%.2f", p)
		},
		"optionText": func(t pgtype.Text) string {
			if !t.Valid {
				return ""
			}
			return t.String
		},
		// pageRange enumerates zero-based page numbers for pagination links.
		"pageRange": func(total int64) []int {
			pages := make([]int, total)
			for i := range pages {
				pages[i] = i
			}
			return pages
		},
		// imageSrc turns a stored image path into a servable URL. Feed
		// images carry absolute URLs; uploaded files are stored keys.
		"imageSrc": func(src string) string {
			if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
				return src
			}
			return "/" + strings.TrimPrefix(src, "/")
		},
	}
}
