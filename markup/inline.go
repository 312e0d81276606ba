package markup

import (
	"regexp"
	"strings"
)

// NodeKind identifies an inline span
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeBold
	NodeItalic
	NodeCode
	NodeLink
)

func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "text"
	case NodeBold:
		return "bold"
	case NodeItalic:
		return "italic"
	case NodeCode:
		return "code"
	case NodeLink:
		return "link"
	default:
		return "unknown"
	}
}

// Node is one inline span. Text is the displayed content (the label for
// links); Raw is the exact source the node was cut from.
type Node struct {
	Kind NodeKind
	Text string
	URL  string // NodeLink only
	Raw  string
}

type inlineRule struct {
	pattern *regexp.Regexp
	build   func(m []string) Node
}

// Order matters: at equal positions the earlier rule wins, so bold must
// precede italic.
var inlineRules = []inlineRule{
	{
		pattern: regexp.MustCompile(`\*\*(.+?)\*\*`),
		build:   func(m []string) Node { return Node{Kind: NodeBold, Text: m[1], Raw: m[0]} },
	},
	{
		pattern: regexp.MustCompile(`\*(.+?)\*`),
		build:   func(m []string) Node { return Node{Kind: NodeItalic, Text: m[1], Raw: m[0]} },
	},
	{
		pattern: regexp.MustCompile("`([^`]+)`"),
		build:   func(m []string) Node { return Node{Kind: NodeCode, Text: m[1], Raw: m[0]} },
	},
	{
		pattern: regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`),
		build:   func(m []string) Node { return Node{Kind: NodeLink, Text: m[1], URL: m[2], Raw: m[0]} },
	},
}

// Inline splits a line into typed spans
func Inline(line string) []Node {
	nodes := []Node{}
	rest := line

	for rest != "" {
		start, end := -1, -1
		var match []string
		var rule *inlineRule

		for i := range inlineRules {
			loc := inlineRules[i].pattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				continue
			}
			if start == -1 || loc[0] < start {
				start, end = loc[0], loc[1]
				match = submatches(rest, loc)
				rule = &inlineRules[i]
			}
		}

		if rule == nil {
			nodes = append(nodes, textNode(rest))
			break
		}

		if start > 0 {
			nodes = append(nodes, textNode(rest[:start]))
		}
		nodes = append(nodes, rule.build(match))
		rest = rest[end:]
	}

	return nodes
}

func textNode(s string) Node {
	return Node{Kind: NodeText, Text: s, Raw: s}
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// Join concatenates the source of each node; Join(Inline(s)) == s
func Join(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Raw)
	}
	return b.String()
}

// Text concatenates the displayed text of each node
func Text(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text)
	}
	return b.String()
}
