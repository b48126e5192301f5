// ABOUTME: OPML subscription list: parse, mutate, and write feed outlines
// ABOUTME: Mirrors the feed table so subscriptions stay portable across readers

package opml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultTitle names documents created by this tool.
const DefaultTitle = "rss-reader subscriptions"

// Subscription is one feed in the document, flattened out of the
// outline tree. Folder is empty for root-level feeds.
type Subscription struct {
	URL    string
	Title  string
	Folder string
}

// Document is a mutable OPML subscription list. Construct with
// NewDocument, Parse, or Load.
type Document struct {
	Title    string
	outlines []outline
	index    map[string]bool
}

// outline doubles as the wire format and the in-memory tree node. A
// node with an xmlUrl is a feed; one without is a folder.
type outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	Children []outline `xml:"outline,omitempty"`
}

type opmlXML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    headXML  `xml:"head"`
	Body    bodyXML  `xml:"body"`
}

type headXML struct {
	Title string `xml:"title"`
}

type bodyXML struct {
	Outlines []outline `xml:"outline"`
}

// NewDocument creates an empty subscription list.
func NewDocument(title string) *Document {
	if title == "" {
		title = DefaultTitle
	}
	return &Document{Title: title, index: make(map[string]bool)}
}

// Parse reads an OPML document from r.
func Parse(r io.Reader) (*Document, error) {
	var raw opmlXML
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}
	doc := &Document{Title: raw.Head.Title, outlines: raw.Body.Outlines}
	doc.reindex()
	return doc, nil
}

// ParseFile reads an OPML document from the file at path.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open opml: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Load reads the subscription list at path. A missing file is not an
// error: the mirror starts empty and materializes on first write.
func Load(path string) (*Document, error) {
	doc, err := ParseFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(DefaultTitle), nil
	}
	return doc, err
}

// GetDefaultPath returns the subscription list location under the
// user's data directory.
func GetDefaultPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "rss-reader", "subscriptions.opml"), nil
}

// Subscriptions returns every feed in the document, depth first, with
// the nearest enclosing folder name attached.
func (d *Document) Subscriptions() []Subscription {
	subs := make([]Subscription, 0, len(d.outlines))
	for _, o := range d.outlines {
		subs = collect(o, "", subs)
	}
	return subs
}

// Has reports whether a feed with the given URL is already listed.
func (d *Document) Has(url string) bool {
	d.ensureIndex()
	return d.index[url]
}

// Add records a subscription, creating its folder on demand. Adding a
// URL that is already present changes nothing; the return value
// reports whether the document changed.
func (d *Document) Add(url, title, folder string) bool {
	url = strings.TrimSpace(url)
	if url == "" || d.Has(url) {
		return false
	}

	text := title
	if text == "" {
		text = url
	}
	leaf := outline{Text: text, Title: title, Type: "rss", XMLURL: url}

	if folder == "" {
		d.outlines = append(d.outlines, leaf)
	} else if i := d.folderIndex(folder); i >= 0 {
		d.outlines[i].Children = append(d.outlines[i].Children, leaf)
	} else {
		d.outlines = append(d.outlines, outline{Text: folder, Children: []outline{leaf}})
	}

	d.index[url] = true
	return true
}

// Remove drops the subscription with the given URL from wherever it
// sits in the tree. Removing an unknown URL changes nothing.
func (d *Document) Remove(url string) bool {
	d.ensureIndex()
	if !d.index[url] {
		return false
	}
	if pruned, ok := removeFrom(d.outlines, url); ok {
		d.outlines = pruned
	}
	delete(d.index, url)
	return true
}

// AddFolder ensures a folder outline with the given name exists.
func (d *Document) AddFolder(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || d.folderIndex(name) >= 0 {
		return false
	}
	d.outlines = append(d.outlines, outline{Text: name})
	return true
}

// Folders returns the folder names in sorted order.
func (d *Document) Folders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, o := range d.outlines {
		if o.XMLURL == "" && o.Text != "" && !seen[o.Text] {
			seen[o.Text] = true
			names = append(names, o.Text)
		}
	}
	sort.Strings(names)
	return names
}

// Write serializes the document as indented OPML 2.0.
func (d *Document) Write(w io.Writer) error {
	raw := opmlXML{
		Version: "2.0",
		Head:    headXML{Title: d.Title},
		Body:    bodyXML{Outlines: d.outlines},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write opml: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("encode opml: %w", err)
	}
	return nil
}

// WriteFile serializes the document to the file at path, creating
// parent directories as needed.
func (d *Document) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create opml directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create opml file: %w", err)
	}
	defer file.Close()
	return d.Write(file)
}

func (d *Document) folderIndex(name string) int {
	for i, o := range d.outlines {
		if o.XMLURL == "" && o.Text == name {
			return i
		}
	}
	return -1
}

func (d *Document) ensureIndex() {
	if d.index == nil {
		d.reindex()
	}
}

func (d *Document) reindex() {
	d.index = make(map[string]bool)
	for _, sub := range d.Subscriptions() {
		d.index[sub.URL] = true
	}
}

func collect(o outline, folder string, subs []Subscription) []Subscription {
	if o.XMLURL != "" {
		subs = append(subs, Subscription{URL: o.XMLURL, Title: titleOf(o), Folder: folder})
		return subs
	}
	for _, child := range o.Children {
		subs = collect(child, o.Text, subs)
	}
	return subs
}

func removeFrom(outlines []outline, url string) ([]outline, bool) {
	for i := range outlines {
		if outlines[i].XMLURL == url {
			return append(outlines[:i], outlines[i+1:]...), true
		}
		if children, ok := removeFrom(outlines[i].Children, url); ok {
			outlines[i].Children = children
			return outlines, true
		}
	}
	return outlines, false
}

// titleOf resolves an outline's display title. A text attribute that
// just repeats the URL means the source had no real title.
func titleOf(o outline) string {
	if o.Title != "" {
		return o.Title
	}
	if o.Text != o.XMLURL {
		return o.Text
	}
	return ""
}
