package typeindex

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Declaration is one type declared by a source file.
type Declaration struct {
	// Name is the fully-qualified name (namespace and enclosing types joined by dots).
	Name    string
	Partial bool
}

var typeKeywords = map[string]bool{
	"class":     true,
	"struct":    true,
	"interface": true,
	"enum":      true,
	"record":    true,
}

type frameKind int

const (
	frameBlock frameKind = iota
	frameNamespace
	frameType
)

type frame struct {
	kind frameKind
	name string
}

// ParseSource returns the types declared in a source file. Partial types are
// only returned when the file base name matches the type name.
func (p *Parser) ParseSource(filename string, src []byte) ([]Declaration, error) {
	toks, err := p.tokens(filename, src)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	var (
		decls         []Declaration
		stack         []frame
		fileNamespace string
		partial       bool
		pendingNS     []string
		inNamespace   bool
		pendingType   string
		pendingPart   bool
		hasPending    bool
	)

	qualify := func(name string) string {
		var parts []string
		if fileNamespace != "" {
			parts = append(parts, fileNamespace)
		}
		for _, f := range stack {
			if f.kind == frameNamespace || f.kind == frameType {
				parts = append(parts, f.name)
			}
		}
		return strings.Join(append(parts, name), ".")
	}
	inBody := func() bool {
		for _, f := range stack {
			if f.kind == frameBlock {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]

		if inNamespace {
			switch {
			case t.Type == p.ident:
				pendingNS = append(pendingNS, strings.TrimPrefix(t.Value, "@"))
				continue
			case t.Type == p.punct && t.Value == ".":
				continue
			case t.Type == p.punct && t.Value == ";":
				fileNamespace = strings.Join(pendingNS, ".")
				inNamespace, pendingNS = false, nil
				continue
			case t.Type == p.punct && t.Value == "{":
				stack = append(stack, frame{kind: frameNamespace, name: strings.Join(pendingNS, ".")})
				inNamespace, pendingNS = false, nil
				partial = false
				continue
			default:
				inNamespace, pendingNS = false, nil
			}
		}

		switch {
		case t.Type == p.ident && t.Value == "namespace" && !hasPending && !inBody():
			inNamespace = true

		case t.Type == p.ident && t.Value == "partial":
			partial = true

		case t.Type == p.ident && typeKeywords[t.Value] && !hasPending && !inBody():
			if name, ok := declaredName(p, toks, i); ok {
				pendingType, pendingPart, hasPending = name, partial, true
			}

		case t.Type == p.punct && t.Value == "{":
			if hasPending {
				if !pendingPart || pendingType == base {
					decls = append(decls, Declaration{Name: qualify(pendingType), Partial: pendingPart})
				}
				stack = append(stack, frame{kind: frameType, name: pendingType})
				hasPending = false
			} else {
				stack = append(stack, frame{kind: frameBlock})
			}
			partial = false

		case t.Type == p.punct && t.Value == "}":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			partial = false

		case t.Type == p.punct && t.Value == ";":
			// bodiless declarations such as positional records
			if hasPending && parenDepth(toks, i) == 0 {
				if !pendingPart || pendingType == base {
					decls = append(decls, Declaration{Name: qualify(pendingType), Partial: pendingPart})
				}
				hasPending = false
			}
			partial = false
		}
	}

	return decls, nil
}

// declaredName returns the type name following the keyword at i. Keywords used
// as generic constraints (where T : class) or as ordinary identifiers are
// rejected.
func declaredName(p *Parser, toks []lexer.Token, i int) (string, bool) {
	if i > 0 {
		prev := toks[i-1]
		if prev.Type == p.punct && (prev.Value == ":" || prev.Value == "," || prev.Value == "." || prev.Value == "<" || prev.Value == "(") {
			return "", false
		}
	}
	j := i + 1
	// record class Foo / record struct Foo
	if toks[i].Value == "record" && j < len(toks) && (toks[j].Value == "class" || toks[j].Value == "struct") {
		j++
	}
	if j >= len(toks) || toks[j].Type != p.ident {
		return "", false
	}
	name := strings.TrimPrefix(toks[j].Value, "@")
	if name == "where" || typeKeywords[name] {
		return "", false
	}
	return name, true
}

// parenDepth reports the parenthesis nesting at position i, counted from the
// start of the current statement.
func parenDepth(toks []lexer.Token, i int) int {
	depth := 0
	for k := i - 1; k >= 0; k-- {
		v := toks[k].Value
		if v == "{" || v == "}" || v == ";" {
			break
		}
		switch v {
		case ")":
			depth--
		case "(":
			depth++
		}
	}
	return depth
}

// ParseShader returns the lookup name declared by a shader file.
func (p *Parser) ParseShader(filename string, src []byte) (string, bool, error) {
	toks, err := p.tokens(filename, src)
	if err != nil {
		return "", false, err
	}
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Type == p.ident && toks[i].Value == "Shader" && toks[i+1].Type == p.str {
			name := strings.Trim(toks[i+1].Value, `"`)
			if name == "" {
				return "", false, nil
			}
			return name, true, nil
		}
	}
	return "", false, nil
}
