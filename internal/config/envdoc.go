package config

import (
	"fmt"
	"strings"
)

// RenderEnvDoc renders specs as markdown, one table per group in the order
// the groups first appear.
func RenderEnvDoc(specs []EnvVar) string {
	groups := make([]string, 0)
	byGroup := make(map[string][]EnvVar)
	for _, s := range specs {
		if _, ok := byGroup[s.Group]; !ok {
			groups = append(groups, s.Group)
		}
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}

	var b strings.Builder
	b.WriteString("# Environment Variables\n\n")
	b.WriteString("Generated from `config.EnvSpecs()`. **Do not edit manually.**\n")

	for _, group := range groups {
		title := group
		if title == "" {
			title = "Other"
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		b.WriteString("| Variable | Default | Type | Description |\n")
		b.WriteString("|----------|---------|------|-------------|\n")

		for _, s := range byGroup[group] {
			def := "none"
			if s.Default != "" {
				def = "`" + s.Default + "`"
			}
			desc := s.Description
			if s.Notes != "" {
				desc += "<br/><em>" + s.Notes + "</em>"
			}
			fmt.Fprintf(&b, "| `%s` | %s | `%s` | %s |\n", s.FullName, def, s.Type, desc)
		}
	}
	return b.String()
}
