// ABOUTME: Parses RSS and Atom payloads into canonical entry records
// ABOUTME: Detects the payload format and derives stable natural keys for keyless items

package parse

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tripp1592/rss-reader/internal/timeutil"
)

// Kind classifies why a payload could not be parsed.
type Kind string

const (
	// KindMalformed means the payload is not well-formed markup.
	KindMalformed Kind = "malformed_payload"
	// KindUnsupported means the payload is well-formed but is not an
	// RSS or Atom document.
	KindUnsupported Kind = "unsupported_format"
)

// Error reports a payload that could not be turned into entries.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parse %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsMalformed reports whether err is a malformed-payload error.
func IsMalformed(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindMalformed
}

// IsUnsupported reports whether err is an unsupported-format error.
func IsUnsupported(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindUnsupported
}

// Feed is a parsed payload reduced to the fields the store keeps.
type Feed struct {
	Title   string
	Entries []Entry
}

// Entry is a single item in canonical form, independent of whether the
// source was RSS or Atom. GUID is always non-empty: items without an
// identifier get a derived natural key.
type Entry struct {
	GUID         string
	Title        string
	Link         string
	Author       string
	Description  string
	PublishedRaw string
	PublishedAt  *time.Time
}

// Parse converts a raw feed payload into a canonical Feed. Missing
// optional elements (description, date, link) become empty values;
// only a broken or non-feed payload fails the whole parse.
func Parse(data []byte) (*Feed, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS, gofeed.FeedTypeAtom:
	case gofeed.FeedTypeJSON:
		return nil, &Error{Kind: KindUnsupported, Err: errors.New("json feeds are not supported")}
	default:
		return nil, classifyUnknown(data)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Err: err}
	}

	feed := &Feed{Title: strings.TrimSpace(parsed.Title)}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Entries = append(feed.Entries, canonicalize(item))
	}
	return feed, nil
}

// classifyUnknown decides between a broken payload and a well-formed
// document in a format we do not handle (HTML, OPML, ...).
func classifyUnknown(data []byte) *Error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return &Error{Kind: KindMalformed, Err: errors.New("no root element")}
		}
		if err != nil {
			return &Error{Kind: KindMalformed, Err: err}
		}
		if start, ok := tok.(xml.StartElement); ok {
			return &Error{Kind: KindUnsupported, Err: fmt.Errorf("unrecognized root element <%s>", start.Name.Local)}
		}
	}
}

func canonicalize(item *gofeed.Item) Entry {
	e := Entry{
		GUID:  strings.TrimSpace(item.GUID),
		Title: strings.TrimSpace(item.Title),
		Link:  strings.TrimSpace(item.Link),
	}

	// Some feeds put the permalink in the guid element and omit link.
	if e.Link == "" && looksLikeURL(e.GUID) {
		e.Link = e.GUID
	}
	if e.GUID == "" {
		e.GUID = NaturalKey(e.Link, e.Title)
	}

	if item.Author != nil {
		e.Author = strings.TrimSpace(item.Author.Name)
		if e.Author == "" {
			e.Author = strings.TrimSpace(item.Author.Email)
		}
	}

	e.Description = strings.TrimSpace(item.Content)
	if e.Description == "" {
		e.Description = strings.TrimSpace(item.Description)
	}

	e.PublishedRaw = strings.TrimSpace(item.Published)
	if e.PublishedRaw == "" {
		e.PublishedRaw = strings.TrimSpace(item.Updated)
	}
	if ts, ok := timeutil.Normalize(e.PublishedRaw); ok {
		e.PublishedAt = &ts
	}

	return e
}

// NaturalKey derives a stable identifier for items that carry none of
// their own. The same link and title always map to the same key, so
// re-fetching a keyless feed never duplicates its items.
func NaturalKey(link, title string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(title), " "))
	sum := sha1.Sum([]byte(link + "|" + normalized))
	return "sha1:" + hex.EncodeToString(sum[:])
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
