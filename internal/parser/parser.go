// Package parser builds the Program IR from the token stream by
// recursive descent. No backtracking happens beyond the scanner's
// token pushback stack.
package parser

import (
	"strconv"
	"strings"

	"sonic/internal/ast"
	"sonic/internal/diag"
	"sonic/internal/scan"
)

type Parser struct {
	sc   *scan.Scanner
	prog *ast.Program

	insideFuncParms bool
	localParms      []*ast.VarDecl
	localVars       []*ast.VarDecl
}

// ParseFile consumes one source file's tokens into prog. Multi-file
// programs call this once per file with the same program.
func ParseFile(sc *scan.Scanner, prog *ast.Program) error {
	p := &Parser{sc: sc, prog: prog}
	return p.parseTopLevel()
}

// findVar resolves a name while parsing. It is needed before
// validation only to decide whether a subscripted name is an array or
// a wave.
func (p *Parser) findVar(name scan.Token) (*ast.VarDecl, error) {
	for _, d := range p.localParms {
		if d.Name.Lexeme == name.Lexeme {
			return d, nil
		}
	}
	for _, d := range p.localVars {
		if d.Name.Lexeme == name.Lexeme {
			return d, nil
		}
	}
	if d := p.prog.FindGlobal(name.Lexeme); d != nil {
		return d, nil
	}
	return nil, diag.New(diag.Syntax, "undefined symbol").NearToken(name.Lexeme, name.Pos)
}

func (p *Parser) parseTopLevel() error {
	for {
		t, ok, err := p.sc.Get(false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		switch {
		case t.Kind == scan.Builtin:
			if err := p.parseBuiltinAssignment(t); err != nil {
				return err
			}
		case t.Is("program") || t.Is("function"):
			if err := p.sc.Push(t); err != nil {
				return err
			}
			fn, err := p.parseFunction()
			if err != nil {
				return err
			}
			if fn.IsProgramBody {
				if p.prog.Body != nil {
					return diag.New(diag.Syntax, "program body already defined").NearToken(t.Lexeme, t.Pos)
				}
				p.prog.Body = fn
			} else {
				p.prog.Funcs = append(p.prog.Funcs, fn)
			}
		case t.Is("import"):
			if err := p.parseImport(); err != nil {
				return err
			}
		case t.Is("var"):
			if err := p.sc.Push(t); err != nil {
				return err
			}
			// Globals register themselves into the program as they
			// parse so later declarations can reference them.
			if _, err := p.parseVarList(true); err != nil {
				return err
			}
		default:
			return diag.New(diag.Syntax,
				"expected 'program', 'function', 'var', 'import', or constant definition").
				NearToken(t.Lexeme, t.Pos)
		}
	}
}

// parseBuiltinAssignment handles the top-level r, m, and interpolate
// definitions. Each may appear at most once per program.
func (p *Parser) parseBuiltinAssignment(t scan.Token) error {
	switch t.Lexeme {
	case "r", "m":
		const fussy = "expected positive integer constant"
		if err := p.sc.Expect("="); err != nil {
			return err
		}
		v, _, err := p.sc.Get(true)
		if err != nil {
			return err
		}
		if v.Kind != scan.Constant || !isPositiveIntegerLexeme(v.Lexeme) {
			return diag.New(diag.Syntax, fussy).NearToken(v.Lexeme, v.Pos)
		}
		value, err := strconv.ParseInt(v.Lexeme, 10, 64)
		if err != nil || value <= 0 {
			return diag.New(diag.Syntax, fussy).NearToken(v.Lexeme, v.Pos)
		}
		if err := p.sc.Expect(";"); err != nil {
			return err
		}
		if t.Is("r") {
			if p.prog.SamplingRateExplicit {
				return diag.New(diag.Syntax, "value for 'r' has already been defined in program").NearToken(t.Lexeme, t.Pos)
			}
			p.prog.SamplingRate = value
			p.prog.SamplingRateExplicit = true
			return nil
		}
		if value > ast.MaxChannels {
			return diag.Newf(diag.Syntax, "Maximum allowed number of channels is %d", ast.MaxChannels).
				NearToken(t.Lexeme, t.Pos)
		}
		if p.prog.NumChannelsExplicit {
			return diag.New(diag.Syntax, "value for 'm' has already been defined in program").NearToken(t.Lexeme, t.Pos)
		}
		p.prog.NumChannels = int(value)
		p.prog.NumChannelsExplicit = true
		return nil

	case "interpolate":
		if err := p.sc.Expect("="); err != nil {
			return err
		}
		v, _, err := p.sc.Get(true)
		if err != nil {
			return err
		}
		if err := p.sc.Expect(";"); err != nil {
			return err
		}
		if p.prog.InterpolateExplicit {
			return diag.New(diag.Syntax, "value for 'interpolate' has already been defined in program").NearToken(t.Lexeme, t.Pos)
		}
		switch v.Lexeme {
		case "true":
			p.prog.Interpolate = true
		case "false":
			p.prog.Interpolate = false
		default:
			return diag.New(diag.Syntax, "expected 'true' or 'false'").NearToken(v.Lexeme, v.Pos)
		}
		p.prog.InterpolateExplicit = true
		return nil
	}

	return diag.New(diag.Syntax, "cannot assign a value to this built-in symbol").NearToken(t.Lexeme, t.Pos)
}

// parseImport handles: import Name1, ..., NameK from "header.h";
// Every name in the list shares the same header string.
func (p *Parser) parseImport() error {
	var batch []*ast.Function
	for {
		name, _, err := p.sc.Get(true)
		if err != nil {
			return err
		}
		if name.Kind != scan.Identifier {
			return diag.New(diag.Syntax, "expected imported class name").NearToken(name.Lexeme, name.Pos)
		}
		batch = append(batch, &ast.Function{
			Name:       name,
			ReturnType: ast.Simple(ast.TypeReal),
		})

		t, _, err := p.sc.Get(true)
		if err != nil {
			return err
		}
		if t.Is("from") {
			header, _, err := p.sc.Get(true)
			if err != nil {
				return err
			}
			if header.Kind != scan.String {
				return diag.New(diag.Syntax, "expected header filename inside double quotes").NearToken(header.Lexeme, header.Pos)
			}
			if err := p.sc.Expect(";"); err != nil {
				return err
			}
			for _, imp := range batch {
				h := header
				imp.ImportHeader = &h
			}
			p.prog.Imports = append(p.prog.Imports, batch...)
			return nil
		}
		if !t.Is(",") {
			return diag.New(diag.Syntax, "expected ',' or 'from'").NearToken(t.Lexeme, t.Pos)
		}
	}
}

func isPositiveIntegerLexeme(s string) bool {
	if s == "" || strings.ContainsAny(s, ".eE") || s[0] == '-' {
		return false
	}
	return true
}
