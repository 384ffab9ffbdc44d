package main

import (
	"strconv"

	"github.com/persistorai/conceptmap/client"
)

// refList renders concept or field references.
type refList []client.Ref

func (l refList) table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, r := range l {
		rows[i] = []string{strconv.FormatInt(r.ID, 10), r.Name}
	}
	return []string{"ID", "NAME"}, rows
}

func (l refList) ids() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = strconv.FormatInt(r.ID, 10)
	}
	return out
}

// articleView renders an article without its body in table mode.
type articleView struct {
	*client.Article
}

func (a articleView) table() ([]string, [][]string) {
	rows := [][]string{
		{"id", a.ArticleID},
		{"title", a.Title},
		{"source", a.SourceLink},
	}
	for _, c := range a.Concepts {
		rows = append(rows, []string{"concept", c.Name})
	}
	for _, f := range a.FieldsOfStudy {
		rows = append(rows, []string{"field", f.Name})
	}
	return []string{"KEY", "VALUE"}, rows
}

type statsView struct {
	*client.StatsResponse
}

func (s statsView) table() ([]string, [][]string) {
	return []string{"ARTICLES", "CONCEPTS", "FIELDS", "RELATIONSHIPS"}, [][]string{{
		strconv.FormatInt(s.Articles, 10),
		strconv.FormatInt(s.Concepts, 10),
		strconv.FormatInt(s.Fields, 10),
		strconv.FormatInt(s.Relationships, 10),
	}}
}

type refView struct {
	*client.Ref
}

func (r refView) table() ([]string, [][]string) {
	return refList{*r.Ref}.table()
}
