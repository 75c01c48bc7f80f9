package receiver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
)

// Date layouts accepted by date keys such as SINCE.
var dateLayouts = []string{"2-Jan-2006", "2006-01-02", "2 January 2006", "2 Jan 2006"}

// headerKeys maps address and subject keys to their header names.
var headerKeys = map[string]string{
	"FROM":    "From",
	"TO":      "To",
	"CC":      "Cc",
	"BCC":     "Bcc",
	"SUBJECT": "Subject",
}

// flagKeys maps flag keys to (flag, set).
var flagKeys = map[string]struct {
	flag imap.Flag
	set  bool
}{
	"SEEN":       {imap.FlagSeen, true},
	"OLD":        {imap.FlagSeen, true},
	"UNSEEN":     {imap.FlagSeen, false},
	"NEW":        {imap.FlagSeen, false},
	"ANSWERED":   {imap.FlagAnswered, true},
	"UNANSWERED": {imap.FlagAnswered, false},
	"FLAGGED":    {imap.FlagFlagged, true},
	"UNFLAGGED":  {imap.FlagFlagged, false},
	"DELETED":    {imap.FlagDeleted, true},
	"UNDELETED":  {imap.FlagDeleted, false},
	"DRAFT":      {imap.FlagDraft, true},
	"UNDRAFT":    {imap.FlagDraft, false},
}

// ParseCriteria parses an IMAP SEARCH style string such as
// `UNSEEN SINCE 1-Jan-2025 FROM "billing@example.com"` into search
// criteria. Keys are ANDed; NOT and OR take one and two keys. An empty
// string matches all messages.
func ParseCriteria(s string) (*imap.SearchCriteria, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	p := &criteriaParser{tokens: tokens}
	c := &imap.SearchCriteria{}
	for !p.done() {
		if err := p.key(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type criteriaParser struct {
	tokens []string
	pos    int
}

func (p *criteriaParser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *criteriaParser) next() (string, bool) {
	if p.done() {
		return "", false
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, true
}

func (p *criteriaParser) arg(key string) (string, error) {
	v, ok := p.next()
	if !ok {
		return "", fmt.Errorf("%w: %s needs an argument", ErrInvalidCriteria, key)
	}
	return v, nil
}

func (p *criteriaParser) number(key string) (int64, error) {
	v, err := p.arg(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s expects a size, got %q", ErrInvalidCriteria, key, v)
	}
	return n, nil
}

// date reads a date argument. The "2 January 2006" form may arrive as
// three unquoted tokens.
func (p *criteriaParser) date(key string) (time.Time, error) {
	v, err := p.arg(key)
	if err != nil {
		return time.Time{}, err
	}
	if d, ok := parseDate(v); ok {
		return d, nil
	}
	if p.pos+1 < len(p.tokens) {
		joined := v + " " + p.tokens[p.pos] + " " + p.tokens[p.pos+1]
		if d, ok := parseDate(joined); ok {
			p.pos += 2
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s expects a date, got %q", ErrInvalidCriteria, key, v)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func (p *criteriaParser) key(c *imap.SearchCriteria) error {
	tok, _ := p.next()
	key := strings.ToUpper(tok)

	if f, ok := flagKeys[key]; ok {
		if f.set {
			c.Flag = append(c.Flag, f.flag)
		} else {
			c.NotFlag = append(c.NotFlag, f.flag)
		}
		return nil
	}
	if header, ok := headerKeys[key]; ok {
		v, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: header, Value: v})
		return nil
	}

	switch key {
	case "ALL":
	case "SINCE", "BEFORE", "ON", "SENTSINCE", "SENTBEFORE", "SENTON":
		d, err := p.date(key)
		if err != nil {
			return err
		}
		next := d.AddDate(0, 0, 1)
		switch key {
		case "SINCE":
			c.Since = later(c.Since, d)
		case "BEFORE":
			c.Before = earlier(c.Before, d)
		case "ON":
			c.Since, c.Before = later(c.Since, d), earlier(c.Before, next)
		case "SENTSINCE":
			c.SentSince = later(c.SentSince, d)
		case "SENTBEFORE":
			c.SentBefore = earlier(c.SentBefore, d)
		case "SENTON":
			c.SentSince, c.SentBefore = later(c.SentSince, d), earlier(c.SentBefore, next)
		}
	case "BODY":
		v, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Body = append(c.Body, v)
	case "TEXT":
		v, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Text = append(c.Text, v)
	case "KEYWORD", "UNKEYWORD":
		v, err := p.arg(key)
		if err != nil {
			return err
		}
		if key == "KEYWORD" {
			c.Flag = append(c.Flag, imap.Flag(v))
		} else {
			c.NotFlag = append(c.NotFlag, imap.Flag(v))
		}
	case "LARGER":
		n, err := p.number(key)
		if err != nil {
			return err
		}
		c.Larger = max(c.Larger, n)
	case "SMALLER":
		n, err := p.number(key)
		if err != nil {
			return err
		}
		if c.Smaller == 0 || n < c.Smaller {
			c.Smaller = n
		}
	case "HEADER":
		name, err := p.arg(key)
		if err != nil {
			return err
		}
		value, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: name, Value: value})
	case "UID":
		v, err := p.arg(key)
		if err != nil {
			return err
		}
		set, err := parseUIDSet(v)
		if err != nil {
			return err
		}
		c.UID = append(c.UID, set)
	case "NOT":
		if p.done() {
			return fmt.Errorf("%w: NOT needs a key", ErrInvalidCriteria)
		}
		var sub imap.SearchCriteria
		if err := p.key(&sub); err != nil {
			return err
		}
		c.Not = append(c.Not, sub)
	case "OR":
		var pair [2]imap.SearchCriteria
		for i := range pair {
			if p.done() {
				return fmt.Errorf("%w: OR needs two keys", ErrInvalidCriteria)
			}
			if err := p.key(&pair[i]); err != nil {
				return err
			}
		}
		c.Or = append(c.Or, pair)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidCriteria, tok)
	}
	return nil
}

// parseUIDSet parses "1,3:5,10:*". "*" is the highest UID in the mailbox.
func parseUIDSet(s string) (imap.UIDSet, error) {
	var set imap.UIDSet
	for _, part := range strings.Split(s, ",") {
		start, stop, isRange := strings.Cut(part, ":")
		a, err := parseUID(start)
		if err != nil {
			return nil, err
		}
		b := a
		if isRange {
			if b, err = parseUID(stop); err != nil {
				return nil, err
			}
		}
		set = append(set, imap.UIDRange{Start: a, Stop: b})
	}
	return set, nil
}

func parseUID(s string) (imap.UID, error) {
	if s == "*" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: invalid uid %q", ErrInvalidCriteria, s)
	}
	return imap.UID(n), nil
}

// tokenize splits on whitespace. Double-quoted strings form one token and
// may contain \" and \\.
func tokenize(s string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		quoted  bool
		escaped bool
	)
	flush := func() {
		if cur.Len() > 0 || quoted {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w: unterminated quote", ErrInvalidCriteria)
	}
	flush()
	return tokens, nil
}

// Repeated date keys are ANDed, so bounds only ever narrow.
func later(cur, d time.Time) time.Time {
	if cur.IsZero() || d.After(cur) {
		return d
	}
	return cur
}

func earlier(cur, d time.Time) time.Time {
	if cur.IsZero() || d.Before(cur) {
		return d
	}
	return cur
}
