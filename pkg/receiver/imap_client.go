package receiver

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"slices"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"

	"github.com/dmitrymomot/mailkit/pkg/dsn"
	"github.com/dmitrymomot/mailkit/pkg/mailauth"
)

// Connection holds everything needed to open a mailbox. Secrets are
// already resolved.
type Connection struct {
	Target    dsn.IMAP
	Username  string
	Password  string
	Mechanism mailauth.Mechanism
	OAuth2    *mailauth.OAuth2Config
	Timeout   time.Duration
}

// MailboxOpener opens a Mailbox for a connection.
type MailboxOpener func(ctx context.Context, conn Connection) (Mailbox, error)

// DialIMAP is the default MailboxOpener. Encryption ssl connects with
// implicit TLS, tls and starttls upgrade with STARTTLS. The mailbox of
// conn.Target is selected read-write.
func DialIMAP(ctx context.Context, conn Connection) (Mailbox, error) {
	target := conn.Target
	dialer := &net.Dialer{Timeout: conn.Timeout}
	raw, err := dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	tlsConfig := &tls.Config{
		ServerName:         target.Host,
		InsecureSkipVerify: !target.VerifyPeer, //nolint:gosec // novalidate-cert is an explicit opt-out
	}
	opts := &imapclient.Options{
		TLSConfig:   tlsConfig,
		WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
	}

	var client *imapclient.Client
	switch {
	case dsn.IsImplicitTLS(target.Encryption):
		tlsConn := tls.Client(raw, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, errors.Join(ErrConnectionFailed, err)
		}
		client = imapclient.New(tlsConn, opts)
	case dsn.IsStartTLS(target.Encryption):
		client, err = imapclient.NewStartTLS(raw, opts)
		if err != nil {
			_ = raw.Close()
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	default:
		client = imapclient.New(raw, opts)
	}

	mb := &imapMailbox{client: client, selected: target.Mailbox}
	stop := mb.guard(ctx)
	defer stop()

	if err := login(ctx, client, conn); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrAuthFailed, err)
	}
	if _, err := client.Select(target.Mailbox, nil).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("select %q: %w", target.Mailbox, err)
	}
	return mb, nil
}

func login(ctx context.Context, client *imapclient.Client, conn Connection) error {
	mech, err := mailauth.ParseMechanism(string(conn.Mechanism))
	if err != nil {
		return err
	}
	switch mech {
	case mailauth.MechanismNone:
		return nil
	case mailauth.MechanismPlain:
		return client.Login(conn.Username, conn.Password).Wait()
	}

	auth, err := mailauth.NewClient(ctx, mailauth.Credentials{
		Mechanism: mech,
		Username:  conn.Username,
		Password:  conn.Password,
		OAuth2:    conn.OAuth2,
		Host:      conn.Target.Host,
		Port:      conn.Target.Port,
	})
	if err != nil {
		return err
	}
	return client.Authenticate(auth)
}

type imapMailbox struct {
	client   *imapclient.Client
	selected string
}

// guard closes the connection when ctx is done. Call the returned function
// once the command finished.
func (m *imapMailbox) guard(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() { _ = m.client.Close() })
}

func (m *imapMailbox) Search(ctx context.Context, criteria *imap.SearchCriteria) ([]uint32, error) {
	defer m.guard(ctx)()

	data, err := m.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}
	uids := make([]uint32, 0, len(data.AllUIDs()))
	for _, uid := range data.AllUIDs() {
		uids = append(uids, uint32(uid))
	}
	slices.Sort(uids)
	return uids, nil
}

func (m *imapMailbox) Fetch(ctx context.Context, uids []uint32) ([]FetchedMessage, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	defer m.guard(ctx)()

	section := &imap.FetchItemBodySection{Peek: true}
	cmd := m.client.Fetch(uidSet(uids), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})

	var out []FetchedMessage
	for {
		msg := cmd.Next()
		if msg == nil {
			break
		}
		var fetched FetchedMessage
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			switch item := item.(type) {
			case imapclient.FetchItemDataUID:
				fetched.UID = uint32(item.UID)
			case imapclient.FetchItemDataBodySection:
				b, err := io.ReadAll(item.Literal)
				if err != nil {
					_ = cmd.Close()
					return nil, err
				}
				fetched.Raw = b
			}
		}
		out = append(out, fetched)
	}
	if err := cmd.Close(); err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b FetchedMessage) int { return cmp.Compare(a.UID, b.UID) })
	return out, nil
}

func (m *imapMailbox) MarkSeen(ctx context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}
	defer m.guard(ctx)()

	return m.client.Store(uidSet(uids), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil).Close()
}

func (m *imapMailbox) Status(ctx context.Context, folder string) (*Status, error) {
	if folder == "" || folder == m.selected {
		return m.selectedStatus(ctx)
	}
	defer m.guard(ctx)()

	data, err := m.client.Status(folder, &imap.StatusOptions{
		NumMessages: true,
		NumUnseen:   true,
		UIDNext:     true,
		UIDValidity: true,
	}).Wait()
	if err != nil {
		return nil, err
	}

	st := &Status{
		Mailbox:     folder,
		UIDNext:     uint32(data.UIDNext),
		UIDValidity: data.UIDValidity,
	}
	if data.NumMessages != nil {
		st.Messages = *data.NumMessages
	}
	if data.NumUnseen != nil {
		st.Unseen = *data.NumUnseen
	}
	return st, nil
}

// selectedStatus reads counters for the selected folder by selecting it
// again, since STATUS must not be sent for it.
func (m *imapMailbox) selectedStatus(ctx context.Context) (*Status, error) {
	defer m.guard(ctx)()

	data, err := m.client.Select(m.selected, nil).Wait()
	if err != nil {
		return nil, err
	}
	unseen, err := m.client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, err
	}

	return &Status{
		Mailbox:     m.selected,
		Messages:    data.NumMessages,
		Unseen:      uint32(len(unseen.AllUIDs())),
		UIDNext:     uint32(data.UIDNext),
		UIDValidity: data.UIDValidity,
	}, nil
}

func (m *imapMailbox) CountUnread(ctx context.Context, folder string) (int, error) {
	st, err := m.Status(ctx, folder)
	if err != nil {
		return 0, err
	}
	return int(st.Unseen), nil
}

func (m *imapMailbox) Close() error {
	logoutErr := m.client.Logout().Wait()
	closeErr := m.client.Close()
	if logoutErr != nil && !errors.Is(logoutErr, net.ErrClosed) {
		return logoutErr
	}
	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return closeErr
	}
	return nil
}

func uidSet(uids []uint32) imap.UIDSet {
	list := make([]imap.UID, len(uids))
	for i, uid := range uids {
		list[i] = imap.UID(uid)
	}
	return imap.UIDSetNum(list...)
}
