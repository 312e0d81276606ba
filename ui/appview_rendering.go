package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru"

	"nailchat/engine"
	"nailchat/markup"
	"nailchat/storage"
)

const renderCacheSize = 512

type renderKey struct {
	messageID string
	width     int
}

// renderCache holds rendered assistant messages. Content never changes
// after a message is appended, so (id, width) identifies the output.
type renderCache struct {
	cache *lru.Cache
}

func newRenderCache() *renderCache {
	cache, err := lru.New(renderCacheSize)
	if err != nil {
		// Only fails for a non-positive size
		panic(err)
	}
	return &renderCache{cache: cache}
}

func (rc *renderCache) render(msg storage.Message, width int) string {
	key := renderKey{messageID: msg.ID, width: width}
	if cached, ok := rc.cache.Get(key); ok {
		return cached.(string)
	}
	rendered := RenderMarkup(msg.Content, width)
	rc.cache.Add(key, rendered)
	return rendered
}

// RenderMarkup draws markup blocks as styled terminal lines. Widths of 4
// or less disable wrapping.
func RenderMarkup(text string, width int) string {
	blocks := markup.Render(text)
	wrap := lipgloss.NewStyle()
	if width > 4 {
		wrap = wrap.Width(width)
	}

	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		var line string
		switch block.Kind {
		case markup.BlockSpacer:
			line = ""
		case markup.BlockNumbered:
			line = BulletStyle.Render(block.Number+".") + " " + renderInline(block.Nodes)
		case markup.BlockBullet:
			line = "  " + BulletStyle.Render("•") + " " + renderInline(block.Nodes)
		case markup.BlockHeading:
			line = headingStyle(block.Level).Render(markup.Text(block.Nodes))
		default:
			line = renderInline(block.Nodes)
		}
		lines = append(lines, wrap.Render(line))
	}

	return strings.Join(lines, "\n")
}

func renderInline(nodes []markup.Node) string {
	var sb strings.Builder
	for _, node := range nodes {
		switch node.Kind {
		case markup.NodeBold:
			sb.WriteString(BoldStyle.Render(node.Text))
		case markup.NodeItalic:
			sb.WriteString(ItalicStyle.Render(node.Text))
		case markup.NodeCode:
			sb.WriteString(CodeStyle.Render(node.Text))
		case markup.NodeLink:
			sb.WriteString(LinkStyle.Render(node.Text))
			sb.WriteString(DimStyle.Render(" (" + node.URL + ")"))
		default:
			sb.WriteString(node.Text)
		}
	}
	return sb.String()
}

func (a *AppView) updateViewportContent(gotoBottom bool) {
	snap := a.snapshot

	if len(snap.Messages) == 0 {
		switch {
		case snap.InitError != nil:
			a.viewport.SetContent(ErrorStyle.Render("Could not start a conversation: ") + snap.InitError.Error() +
				"\n\n" + DimStyle.Render("Press "+a.kb.DisplayActionKey("new_chat")+" to try again."))
		case !snap.Ready:
			a.viewport.SetContent(a.spinner.View() + " Connecting to the assistant...")
		default:
			a.viewport.SetContent("Ask anything about nail shapes, colors and care, or attach a photo of your nails.")
		}
		return
	}

	width := a.viewport.Width - 2
	var content strings.Builder

	for _, msg := range snap.Messages {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		if msg.Role == storage.RoleUser {
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), userContent(msg)))
			continue
		}

		role := AssistantStyle.Render("Assistant")
		if badge := feedbackBadge(msg.Feedback); badge != "" {
			role += " " + badge
		}
		content.WriteString(fmt.Sprintf("%s %s\n%s\n", timestamp, role, a.renderCache.render(msg, width)))
		if msg.Analysis != "" {
			analysis := lipgloss.NewStyle().Width(width).Render("Image analysis: " + msg.Analysis)
			content.WriteString(DimStyle.Italic(true).Render(analysis) + "\n")
		}
		if sources := storage.FormatSources(msg.Sources); sources != "" {
			line := lipgloss.NewStyle().Width(width).Render("Sources: " + sources)
			content.WriteString(DimStyle.Render(line) + "\n")
		}
		content.WriteString("\n")
	}

	if snap.Sending {
		content.WriteString(fmt.Sprintf("%s %s\n", a.spinner.View(), DimStyle.Render("Waiting for response...")))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func userContent(msg storage.Message) string {
	content := msg.Content
	if msg.Image != "" {
		marker := DimStyle.Render("[image attached]")
		if content == engine.ImagePlaceholder {
			return marker
		}
		content = marker + "\n" + content
	}
	return content
}

func feedbackBadge(feedback storage.Feedback) string {
	switch feedback {
	case storage.FeedbackLiked:
		return lipgloss.NewStyle().Foreground(successColor).Render("[liked]")
	case storage.FeedbackDisliked:
		return lipgloss.NewStyle().Foreground(dangerColor).Render("[disliked]")
	default:
		return ""
	}
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}
