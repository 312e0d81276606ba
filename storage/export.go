package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Exporter writes a session in one export format
type Exporter interface {
	Export(session *Session, w io.Writer) error
	Extension() string
}

// NewExporter creates an exporter for the named format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json", "":
		return jsonExporter{}, nil
	case "yaml", "yml":
		return yamlExporter{}, nil
	case "md", "markdown":
		return markdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, markdown)", format)
	}
}

type jsonExporter struct{}

func (jsonExporter) Export(session *Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(session)
}

func (jsonExporter) Extension() string { return "json" }

type yamlExporter struct{}

func (yamlExporter) Export(session *Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(session)
}

func (yamlExporter) Extension() string { return "yaml" }

type markdownExporter struct{}

func (markdownExporter) Export(session *Session, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", session.Title)
	_, _ = fmt.Fprintf(w, "**Conversation:** %s  \n", session.ConversationID)
	if !session.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", session.UpdatedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range session.Messages {
		author := "You"
		if msg.Role == RoleAssistant {
			author = "Assistant"
		}

		_, _ = fmt.Fprintf(w, "**%s** (%s)\n\n%s\n\n", author, msg.Timestamp.Format("2006-01-02 15:04"), msg.Content)

		if msg.Image != "" {
			_, _ = fmt.Fprintf(w, "_[image attached]_\n\n")
		}
		if msg.Analysis != "" {
			_, _ = fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(msg.Analysis, "\n", "\n> "))
		}
		if sources := FormatSources(msg.Sources); sources != "" {
			_, _ = fmt.Fprintf(w, "_Sources: %s_\n\n", sources)
		}

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func (markdownExporter) Extension() string { return "md" }

// ExportToFile writes a session to exportPath in the given format
func ExportToFile(session *Session, format, exportPath string) error {
	exporter, err := NewExporter(format)
	if err != nil {
		return err
	}

	// Ensure directory exists (0700 - user-only access)
	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// 0600 - exports contain private conversation data
	f, err := os.OpenFile(exportPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := exporter.Export(session, f); err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}

	return nil
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-", " ", "-",
		"\n", "-", "\r", "-",
	)
	name = replacer.Replace(name)

	// Remove leading/trailing hyphens and dots
	name = strings.Trim(name, "-.")

	if utf8.RuneCountInString(name) > 50 {
		name = string([]rune(name)[:50])
	}

	if name == "" {
		name = "session"
	}

	return name
}

// GenerateExportPath generates a default export path for a session
func GenerateExportPath(dir, sessionTitle, extension string, now time.Time) string {
	filename := fmt.Sprintf("nailchat-%s-%s.%s", SanitizeFilename(sessionTitle), now.Format("20060102-150405"), extension)
	return filepath.Join(dir, filename)
}
