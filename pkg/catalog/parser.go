package catalog

import (
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// Parser represents a catalog file parser
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser creates a new catalog parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(CatalogLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: build parser")
	}
	return &Parser{parser: parser}, nil
}

// Parse parses a catalog from a reader. name is only used in positions.
func (p *Parser) Parse(name string, r io.Reader) (*File, error) {
	file, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: parse error")
	}
	return file, nil
}

// ParseString parses a catalog held in memory
func (p *Parser) ParseString(name, input string) (*File, error) {
	file, err := p.parser.ParseString(name, input)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: parse error")
	}
	return file, nil
}

// ParseFile parses a catalog from a file path
func (p *Parser) ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: open")
	}
	defer f.Close()

	return p.Parse(path, f)
}
