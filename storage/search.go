package storage

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// SessionMessageMatch is a search hit within the roster
type SessionMessageMatch struct {
	SessionID    string
	SessionTitle string
	MessageID    string
	Role         Role
	Preview      string
	Timestamp    time.Time
	Score        int
}

type messageRef struct {
	session int
	message int
}

// messageSource adapts the roster to fuzzy.Source
type messageSource struct {
	roster []Session
	refs   []messageRef
}

func newMessageSource(roster []Session) messageSource {
	src := messageSource{roster: roster}
	for si := range roster {
		for mi := range roster[si].Messages {
			src.refs = append(src.refs, messageRef{session: si, message: mi})
		}
	}
	return src
}

func (s messageSource) String(i int) string {
	ref := s.refs[i]
	return s.roster[ref.session].Messages[ref.message].Content
}

func (s messageSource) Len() int {
	return len(s.refs)
}

// SearchMessages fuzzy-matches query against every message in the roster,
// best matches first.
func SearchMessages(roster []Session, query string) []SessionMessageMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SessionMessageMatch{}
	}

	src := newMessageSource(roster)
	matches := fuzzy.FindFrom(query, src)

	results := make([]SessionMessageMatch, 0, len(matches))
	for _, m := range matches {
		ref := src.refs[m.Index]
		session := roster[ref.session]
		msg := session.Messages[ref.message]

		preview := foldNewlines(msg.Content)
		if utf8.RuneCountInString(preview) > 100 {
			preview = string([]rune(preview)[:100]) + "..."
		}

		results = append(results, SessionMessageMatch{
			SessionID:    session.ID,
			SessionTitle: session.Title,
			MessageID:    msg.ID,
			Role:         msg.Role,
			Preview:      preview,
			Timestamp:    msg.Timestamp,
			Score:        m.Score,
		})
	}

	return results
}
