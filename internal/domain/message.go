package domain

import (
	"time"
)

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is a single entry in a consultation conversation. Messages are
// append-only and scoped to one session.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []string  `json:"sources,omitempty"`
	Error     bool      `json:"error,omitempty"`
	// Inline action affordances surfaced on AI replies.
	ShowReportLink  bool `json:"show_report_link,omitempty"`
	ShowPDFDownload bool `json:"show_pdf_download,omitempty"`
}

// UserMessageCount returns how many messages in the history were authored
// by the user.
func UserMessageCount(history []Message) int {
	n := 0
	for _, m := range history {
		if m.Sender == SenderUser {
			n++
		}
	}
	return n
}
