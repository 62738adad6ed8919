package parser

import (
	"strings"

	"sonic/internal/ast"
	"sonic/internal/diag"
	"sonic/internal/scan"
)

// parseExpr is the top-level expression parser; it alone accepts the
// brace-enclosed vector literal { e1, ..., ek }.
func (p *Parser) parseExpr() (ast.Expr, error) {
	t, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}
	if t.Is("{") {
		var elems []ast.Expr
		for {
			elem, err := p.parseB0()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			punct, _, err := p.sc.Get(true)
			if err != nil {
				return nil, err
			}
			if punct.Is("}") {
				break
			}
			if !punct.Is(",") {
				return nil, diag.New(diag.Syntax, "expected '}' or ',' after expression").NearToken(punct.Lexeme, punct.Pos)
			}
		}
		return &ast.Vector{LBrace: t, Elems: elems}, nil
	}
	if err := p.sc.Push(t); err != nil {
		return nil, err
	}
	return p.parseB0()
}

// parseB0 handles the '|' level.
func (p *Parser) parseB0() (ast.Expr, error) {
	expr, err := p.parseB1()
	if err != nil {
		return nil, err
	}
	for {
		t, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return expr, nil
		}
		if !t.Is("|") {
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
			return expr, nil
		}
		r, err := p.parseB1()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: t, L: expr, R: r, BoolResult: true, NeedBoolOperands: true}
	}
}

// parseB1 handles the '&' level.
func (p *Parser) parseB1() (ast.Expr, error) {
	expr, err := p.parseB2()
	if err != nil {
		return nil, err
	}
	for {
		t, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return expr, nil
		}
		if !t.Is("&") {
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
			return expr, nil
		}
		r, err := p.parseB2()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: t, L: expr, R: r, BoolResult: true, NeedBoolOperands: true}
	}
}

// parseB2 handles the relational level (non-associative: at most one
// comparison per level).
func (p *Parser) parseB2() (ast.Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	t, ok, err := p.sc.Get(false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return expr, nil
	}
	switch t.Lexeme {
	case "==", "<", "<=", ">", ">=", "!=", "<>":
		r, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: t, L: expr, R: r, BoolResult: true}, nil
	}
	if err := p.sc.Push(t); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseTerm handles '+' and '-'.
func (p *Parser) parseTerm() (ast.Expr, error) {
	expr, err := p.parseT1()
	if err != nil {
		return nil, err
	}
	for {
		t, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return expr, nil
		}
		if !t.Is("+") && !t.Is("-") {
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
			return expr, nil
		}
		r, err := p.parseT1()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: t, L: expr, R: r}
	}
}

// parseT1 handles '*', '/', and '%'.
func (p *Parser) parseT1() (ast.Expr, error) {
	expr, err := p.parseT2()
	if err != nil {
		return nil, err
	}
	for {
		t, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return expr, nil
		}
		if !t.Is("*") && !t.Is("/") && !t.Is("%") {
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
			return expr, nil
		}
		r, err := p.parseT2()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: t, L: expr, R: r}
	}
}

// parseT2 handles '^', which groups right-to-left.
func (p *Parser) parseT2() (ast.Expr, error) {
	expr, err := p.parseT3()
	if err != nil {
		return nil, err
	}
	t, ok, err := p.sc.Get(false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return expr, nil
	}
	if t.Is("^") {
		r, err := p.parseT2()
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: t, L: expr, R: r}, nil
	}
	if err := p.sc.Push(t); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseT3 handles atoms and unary prefixes.
func (p *Parser) parseT3() (ast.Expr, error) {
	t, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}

	switch {
	case t.Kind == scan.Constant:
		typ := ast.Simple(ast.TypeInteger)
		if strings.ContainsAny(t.Lexeme, ".eE") {
			typ = ast.Simple(ast.TypeReal)
		}
		return &ast.Constant{Tok: t, Typ: typ}, nil

	case t.Kind == scan.String:
		return &ast.Constant{Tok: t, Typ: ast.Simple(ast.TypeString)}, nil

	case t.Kind == scan.Builtin:
		return &ast.BuiltinRef{Name: t}, nil

	case t.Kind == scan.Identifier:
		t2, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &ast.Variable{Name: t}, nil
		}
		switch {
		case t2.Is("["):
			return p.parseSubscript(t)
		case t2.Is("."):
			field, _, err := p.sc.Get(true)
			if err != nil {
				return nil, err
			}
			switch field.Lexeme {
			case "n", "m", "r", "max", "interpolate":
				return &ast.WaveField{VarName: t, Field: field}, nil
			}
			return nil, diag.New(diag.Syntax, "expected wave field after '.'").NearToken(field.Lexeme, field.Pos)
		case t2.Is("("):
			return p.parseCall(t)
		}
		if err := p.sc.Push(t2); err != nil {
			return nil, err
		}
		return &ast.Variable{Name: t}, nil

	case t.Is("("):
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		return expr, nil

	case t.Is("!"):
		child, err := p.parseT3()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: t, Child: child}, nil

	case t.Is("-"):
		child, err := p.parseT3()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: t, Child: child}, nil

	case t.Is("$"):
		return &ast.OldData{Dollar: t}, nil
	}

	return nil, diag.New(diag.Syntax, "error in expression").NearToken(t.Lexeme, t.Pos)
}

// parseSubscript disambiguates name[...] into an array subscript or a
// wave sample access by looking the name up.
func (p *Parser) parseSubscript(name scan.Token) (ast.Expr, error) {
	decl, err := p.findVar(name)
	if err != nil {
		return nil, err
	}
	switch decl.Typ.Class {
	case ast.TypeArray:
		var indexes []ast.Expr
		for {
			index, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			indexes = append(indexes, index)
			punct, _, err := p.sc.Get(true)
			if err != nil {
				return nil, err
			}
			if punct.Is("]") {
				break
			}
			if !punct.Is(",") {
				return nil, diag.New(diag.Syntax, "expected ',' or ']'").NearToken(punct.Lexeme, punct.Pos)
			}
		}
		return &ast.ArraySubscript{Name: name, Indexes: indexes}, nil

	case ast.TypeWave:
		cterm, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		iterm, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect("]"); err != nil {
			return nil, err
		}
		return &ast.WaveSample{WaveName: name, CTerm: cterm, ITerm: iterm}, nil
	}
	return nil, diag.New(diag.Syntax, "'[' may appear only after array or wave variable").NearToken(name.Lexeme, name.Pos)
}

// parseCall parses the argument list of a call form. The opening '('
// is already consumed. The pseudo-functions have fixed argument
// syntax and produce dedicated nodes; everything else consults the
// intrinsic table and falls back to a user call.
func (p *Parser) parseCall(name scan.Token) (ast.Expr, error) {
	switch name.Lexeme {
	case "sinewave":
		amplitude, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		frequency, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		phase, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		return &ast.Sinewave{Tok: name, Amplitude: amplitude, Frequency: frequency, Phase: phase}, nil

	case "sawtooth":
		frequency, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		return &ast.Sawtooth{Tok: name, Frequency: frequency}, nil

	case "fft":
		input, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		size, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		funcName, _, err := p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		if funcName.Kind != scan.Identifier {
			return nil, diag.New(diag.Syntax,
				"third parameter to 'fft' must be transfer function name").NearToken(funcName.Lexeme, funcName.Pos)
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		freqShift, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		return &ast.FFT{Tok: name, Input: input, Size: size, FreqShift: freqShift, FuncName: funcName}, nil

	case "iir":
		xCoeffs, err := p.parseCoeffList("x")
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		yCoeffs, err := p.parseCoeffList("y")
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(","); err != nil {
			return nil, err
		}
		input, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		return &ast.IIR{Tok: name, XCoeffs: xCoeffs, YCoeffs: yCoeffs, Input: input}, nil
	}

	var args []ast.Expr
	t, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}
	for !t.Is(")") {
		if err := p.sc.Push(t); err != nil {
			return nil, err
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		t, _, err = p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		if !t.Is(")") {
			if !t.Is(",") {
				return nil, diag.New(diag.Syntax, "expected ',' or ')'").NearToken(t.Lexeme, t.Pos)
			}
			t, _, err = p.sc.Get(true)
			if err != nil {
				return nil, err
			}
		}
	}

	if entry := FindIntrinsic(name.Lexeme); entry != nil {
		if len(args) != entry.NumParams {
			return nil, diag.New(diag.Syntax,
				"wrong number of parameters to intrinsic function").NearToken(name.Lexeme, name.Pos)
		}
		// The call node carries the target-language name; position and
		// kind stay with the Sonic token.
		target := name
		target.Lexeme = entry.TargetName
		return &ast.Call{Name: target, Args: args, FKind: ast.FuncIntrinsic}, nil
	}
	return &ast.Call{Name: name, Args: args, FKind: ast.FuncUser}, nil
}

// parseCoeffList parses one brace-enclosed iir coefficient list. The
// y-list may be empty; the x-list may not.
func (p *Parser) parseCoeffList(which string) ([]ast.Expr, error) {
	if err := p.sc.Expect("{"); err != nil {
		return nil, err
	}
	var coeffs []ast.Expr
	t, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}
	if t.Is("}") && which == "y" {
		return nil, nil
	}
	if err := p.sc.Push(t); err != nil {
		return nil, err
	}
	for {
		coeff, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		coeffs = append(coeffs, coeff)
		t, _, err := p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		if t.Is("}") {
			return coeffs, nil
		}
		if !t.Is(",") {
			return nil, diag.Newf(diag.Syntax,
				"expected ',' or '}' after %s-coeff expression", which).NearToken(t.Lexeme, t.Pos)
		}
	}
}
