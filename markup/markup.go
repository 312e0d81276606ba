// Package markup turns assistant text into display blocks.
//
// Rendering is line-local: each line is classified on its own by the first
// matching rule in lineRules, and inline markup inside the line is split
// into typed nodes by a single left-to-right scan over inlineRules. Nothing
// is merged across lines, and there is no escape syntax.
package markup

import (
	"regexp"
	"strings"
)

// BlockKind identifies how a line is displayed
type BlockKind int

const (
	BlockSpacer BlockKind = iota
	BlockNumbered
	BlockBullet
	BlockHeading
	BlockParagraph
)

func (k BlockKind) String() string {
	switch k {
	case BlockSpacer:
		return "spacer"
	case BlockNumbered:
		return "numbered"
	case BlockBullet:
		return "bullet"
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// MaxHeadingLevel caps heading depth; deeper headings are clamped
const MaxHeadingLevel = 3

// Block is one rendered line
type Block struct {
	Kind   BlockKind
	Number string // BlockNumbered only
	Level  int    // BlockHeading only
	Nodes  []Node
}

// lineRule pairs a pattern with the block it builds. Rules are tried in
// slice order; the first match wins.
type lineRule struct {
	pattern *regexp.Regexp
	build   func(m []string) Block
}

var lineRules = []lineRule{
	{
		pattern: regexp.MustCompile(`^(\d+)\.\s+(.*)$`),
		build: func(m []string) Block {
			return Block{Kind: BlockNumbered, Number: m[1], Nodes: Inline(m[2])}
		},
	},
	{
		pattern: regexp.MustCompile(`^[-*•]\s+(.*)$`),
		build: func(m []string) Block {
			return Block{Kind: BlockBullet, Nodes: Inline(m[1])}
		},
	},
	{
		pattern: regexp.MustCompile(`^(#+)\s+(.*)$`),
		build: func(m []string) Block {
			level := len(m[1])
			if level > MaxHeadingLevel {
				level = MaxHeadingLevel
			}
			return Block{Kind: BlockHeading, Level: level, Nodes: Inline(m[2])}
		},
	},
}

// Render converts a text block into display blocks, one per line
func Render(text string) []Block {
	if text == "" {
		return []Block{}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, renderLine(line))
	}
	return blocks
}

func renderLine(line string) Block {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Block{Kind: BlockSpacer}
	}

	for _, rule := range lineRules {
		if m := rule.pattern.FindStringSubmatch(trimmed); m != nil {
			return rule.build(m)
		}
	}

	return Block{Kind: BlockParagraph, Nodes: Inline(trimmed)}
}

// PlainText flattens blocks back into unstyled text, keeping list markers
func PlainText(blocks []Block) string {
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		text := Text(b.Nodes)
		switch b.Kind {
		case BlockSpacer:
			lines = append(lines, "")
		case BlockNumbered:
			lines = append(lines, b.Number+". "+text)
		case BlockBullet:
			lines = append(lines, "• "+text)
		default:
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
