package markdown

// Heading is one ATX heading in a document.
type Heading struct {
	Line   int    // 1-based line number
	Level  int    // 1..6
	Text   string // trimmed heading text, closing #s stripped
	Anchor string // GitHub-style slug, deduplicated within the document
}

// Fence is one fenced code block.
type Fence struct {
	OpenLine  int    // 1-based line of the opening fence
	CloseLine int    // 1-based line of the closing fence, 0 when unclosed
	Char      byte   // '`' or '~'
	OpenLen   int    // number of fence characters on the opening line (>= 3)
	Indent    int    // leading spaces of the opening line (0..3)
	Info      string // trimmed info string, "" when absent
}

// Closed reports whether the fence has a closing line.
func (f Fence) Closed() bool {
	return f.CloseLine != 0
}

// Language returns the first word of the info string.
func (f Fence) Language() string {
	for i := 0; i < len(f.Info); i++ {
		if f.Info[i] == ' ' || f.Info[i] == '\t' {
			return f.Info[:i]
		}
	}
	return f.Info
}

// Link is one inline link or image.
type Link struct {
	Line       int    // 1-based line number
	Text       string // link text
	Target     string // raw target as written
	Path       string // target without fragment, percent-decoded
	Fragment   string // part after '#', "" when none
	IsExternal bool   // scheme URLs, protocol-relative, mailto, tel
	IsImage    bool
}

// Document is the parsed form of one Markdown file.
type Document struct {
	Path        string // corpus-relative, slash-separated
	Lines       []string
	Headings    []Heading
	Fences      []Fence
	Links       []Link
	FrontMatter map[string]string // flat YAML frontmatter, nil when absent
	BodyStart   int               // 1-based first line after frontmatter
	Directives  []Directive

	suppressions *SuppressionIndex
}

// Suppressions returns the directive-driven suppression index.
func (d *Document) Suppressions() *SuppressionIndex {
	return d.suppressions
}

// AnchorSet returns the document's heading anchors for fragment lookups.
func (d *Document) AnchorSet() map[string]bool {
	set := make(map[string]bool, len(d.Headings))
	for _, h := range d.Headings {
		set[h.Anchor] = true
	}
	return set
}

// Corpus is a scanned set of documents rooted at one directory.
type Corpus struct {
	Root      string      // absolute root directory
	IndexPath string      // corpus-relative path of the index, "" when absent
	Documents []*Document // sorted by Path
	Files     []string    // every file under the root, corpus-relative
}

// Document returns the document at the given corpus-relative path.
func (c *Corpus) Document(rel string) (*Document, bool) {
	for _, d := range c.Documents {
		if d.Path == rel {
			return d, true
		}
	}
	return nil, false
}

// Paths returns the corpus-relative paths of all documents, in order.
func (c *Corpus) Paths() []string {
	paths := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		paths = append(paths, d.Path)
	}
	return paths
}

// Index returns the parsed index document, if the corpus has one.
func (c *Corpus) Index() (*Document, bool) {
	if c.IndexPath == "" {
		return nil, false
	}
	return c.Document(c.IndexPath)
}

// HasFile reports whether any file (not only a document) exists at the
// given corpus-relative path.
func (c *Corpus) HasFile(rel string) bool {
	for _, f := range c.Files {
		if f == rel {
			return true
		}
	}
	for _, d := range c.Documents {
		if d.Path == rel {
			return true
		}
	}
	return false
}
