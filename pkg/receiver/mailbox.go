package receiver

import (
	"context"

	"github.com/emersion/go-imap/v2"
)

// Mailbox is an open, authenticated connection with a folder selected.
type Mailbox interface {
	// Search returns the UIDs matching criteria in ascending order.
	Search(ctx context.Context, criteria *imap.SearchCriteria) ([]uint32, error)
	// Fetch returns the raw messages without setting \Seen.
	Fetch(ctx context.Context, uids []uint32) ([]FetchedMessage, error)
	// MarkSeen adds \Seen to the messages.
	MarkSeen(ctx context.Context, uids []uint32) error
	// Status reports counters of folder without changing the selection.
	// An empty folder means the selected one.
	Status(ctx context.Context, folder string) (*Status, error)
	// CountUnread returns the number of messages without \Seen in folder.
	CountUnread(ctx context.Context, folder string) (int, error)
	Close() error
}

// FetchedMessage is a message as stored on the server.
type FetchedMessage struct {
	UID uint32
	Raw []byte
}

// Status holds mailbox counters.
type Status struct {
	Mailbox     string `json:"mailbox" yaml:"mailbox"`
	Messages    uint32 `json:"messages" yaml:"messages"`
	Unseen      uint32 `json:"unseen" yaml:"unseen"`
	UIDNext     uint32 `json:"uid_next" yaml:"uid_next"`
	UIDValidity uint32 `json:"uid_validity" yaml:"uid_validity"`
}
