package typeindex

import (
	"bytes"

	"github.com/alecthomas/participle/v2/lexer"
)

// sourceRules tokenize C#-like source and ShaderLab files well enough to find
// declarations. Unknown characters fall through to Punct so lexing never fails
// on exotic syntax.
var sourceRules = []lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "Preproc", Pattern: `#[^\n]*`},
	{Name: "VerbatimString", Pattern: `(?:\$@|@\$|@)"(?:""|[^"])*"`},
	{Name: "String", Pattern: `\$?"(?:\\.|[^"\\\n])*"`},
	{Name: "Char", Pattern: `'(?:\\.|[^'\\\n])+'`},
	{Name: "Ident", Pattern: `@?[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Number", Pattern: `[0-9][0-9a-zA-Z_.]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[^\s]`},
}

// Parser extracts declarations from source and shader files. It is immutable
// after NewParser and safe for concurrent use.
type Parser struct {
	def           *lexer.StatefulDefinition
	ident         lexer.TokenType
	str           lexer.TokenType
	punct         lexer.TokenType
	insignificant map[lexer.TokenType]bool
}

// NewParser builds the lexer definition.
func NewParser() *Parser {
	def := lexer.MustSimple(sourceRules)
	sym := def.Symbols()
	return &Parser{
		def:   def,
		ident: sym["Ident"],
		str:   sym["String"],
		punct: sym["Punct"],
		insignificant: map[lexer.TokenType]bool{
			sym["Whitespace"]: true,
			sym["Comment"]:    true,
			sym["Preproc"]:    true,
		},
	}
}

// tokens lexes src and drops whitespace, comments and preprocessor lines.
func (p *Parser) tokens(filename string, src []byte) ([]lexer.Token, error) {
	lex, err := p.def.Lex(filename, bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if t.EOF() || p.insignificant[t.Type] {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
