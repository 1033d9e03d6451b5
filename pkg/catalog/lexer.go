package catalog

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// CatalogLexer defines the lexical structure of catalog files.
var CatalogLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run to end of line, shell or C++ style
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Keywords must precede Ident
	{Name: "KwFamily", Pattern: `\bfamily\b`},
	{Name: "KwMCU", Pattern: `\bmcu\b`},

	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},

	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "Assign", Pattern: `=`},
	{Name: "Semicolon", Pattern: `;`},
})
