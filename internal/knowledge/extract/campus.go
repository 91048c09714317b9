package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var programKeywords = []string{
	"campus", "programme", "bachelor", "master", "msc", "cursus",
	"formation", "bootcamp", "coding academy", "mba",
}

// CampusPrograms lists the program titles a campus page advertises: headings
// first, then link and list texts.
func CampusPrograms(markup string) []string {
	doc := parse(markup)
	seen := make(map[string]bool)
	programs := []string{}
	add := func(txt string, ok func(int) bool) {
		if txt == "" || seen[txt] || !mentionsProgram(txt) || !ok(len([]rune(txt))) {
			return
		}
		seen[txt] = true
		programs = append(programs, txt)
	}

	walk(doc, func(n *html.Node) bool {
		if isElement(n, atom.H1, atom.H2, atom.H3, atom.H4) {
			add(nodeText(n), func(l int) bool { return l < 100 })
		}
		return true
	})
	walk(doc, func(n *html.Node) bool {
		if isElement(n, atom.A, atom.Li) {
			add(nodeText(n), func(l int) bool { return l > 5 && l < 60 })
		}
		return true
	})
	return programs
}

func mentionsProgram(txt string) bool {
	low := strings.ToLower(txt)
	for _, k := range programKeywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}
