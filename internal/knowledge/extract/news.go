package extract

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"knowledge-workers/internal/models"
)

// News reads every <article> as one item: its first h2/h3, first link and
// first paragraph. Articles without a title are dropped.
func News(markup string) []models.NewsItem {
	doc := parse(markup)
	items := []models.NewsItem{}
	walk(doc, func(n *html.Node) bool {
		if !isElement(n, atom.Article) {
			return true
		}
		var item models.NewsItem
		if h := find(n, func(c *html.Node) bool { return isElement(c, atom.H2, atom.H3) }); h != nil {
			item.Title = nodeText(h)
		}
		if a := find(n, func(c *html.Node) bool {
			_, ok := attr(c, "href")
			return isElement(c, atom.A) && ok
		}); a != nil {
			item.Link, _ = attr(a, "href")
		}
		if p := find(n, func(c *html.Node) bool { return isElement(c, atom.P) }); p != nil {
			item.Summary = nodeText(p)
		}
		if item.Title != "" {
			items = append(items, item)
		}
		return false
	})
	return items
}
