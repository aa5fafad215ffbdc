package export

// Section is a titled table inside a document, e.g. one academic term.
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Footer is rendered under the table as key/value summary lines.
	Footer [][2]string
}

// Document is a renderer-neutral description of a tabular report.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
	Summary  [][2]string
}

// Renderer turns a document into bytes of a particular format.
type Renderer interface {
	Render(doc Document) ([]byte, error)
	ContentType() string
	Extension() string
}
