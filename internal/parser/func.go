package parser

import (
	"strconv"

	"sonic/internal/ast"
	"sonic/internal/diag"
	"sonic/internal/scan"
)

// parseType parses a type token (integer, real, boolean, wave, or an
// already-declared import type name) with an optional array dimension
// suffix. Inside function parameters the first dimension may be '?';
// elsewhere every dimension must be a positive integer literal.
func (p *Parser) parseType() (ast.Type, error) {
	t, _, err := p.sc.Get(true)
	if err != nil {
		return ast.Type{}, err
	}

	var typ ast.Type
	arrayAllowed := true
	switch {
	case t.Is("integer"):
		typ = ast.Simple(ast.TypeInteger)
	case t.Is("real"):
		typ = ast.Simple(ast.TypeReal)
	case t.Is("boolean"):
		typ = ast.Simple(ast.TypeBoolean)
	case t.Is("wave"):
		typ = ast.Simple(ast.TypeWave)
		arrayAllowed = false
	default:
		arrayAllowed = false
		if imp := p.prog.FindImportType(t.Lexeme); imp != nil {
			typ = ast.ImportType(t)
		} else {
			return ast.Type{}, diag.New(diag.Syntax, "expected data type").NearToken(t.Lexeme, t.Pos)
		}
	}

	lbracket, ok, err := p.sc.Get(false)
	if err != nil {
		return ast.Type{}, err
	}
	if !ok {
		return typ, nil
	}
	if !lbracket.Is("[") {
		if err := p.sc.Push(lbracket); err != nil {
			return ast.Type{}, err
		}
		return typ, nil
	}

	if !arrayAllowed {
		return ast.Type{}, diag.Newf(diag.Syntax, "'%s' may not be an array element type", t.Lexeme).
			NearToken(lbracket.Lexeme, lbracket.Pos)
	}

	var dims []int
	for {
		dim, _, err := p.sc.Get(true)
		if err != nil {
			return ast.Type{}, err
		}
		if len(dims) >= ast.MaxArrayDims {
			return ast.Type{}, diag.New(diag.Syntax, "too many array dimensions").NearToken(dim.Lexeme, dim.Pos)
		}
		if dim.Is("?") {
			if !p.insideFuncParms {
				return ast.Type{}, diag.New(diag.Syntax,
					"may use '?' as array dimension only in function parameters").NearToken(dim.Lexeme, dim.Pos)
			}
			if len(dims) > 0 {
				return ast.Type{}, diag.New(diag.Syntax,
					"may use '?' only as first dimension of array").NearToken(dim.Lexeme, dim.Pos)
			}
			dims = append(dims, 0)
		} else {
			n, convErr := strconv.Atoi(dim.Lexeme)
			if dim.Kind != scan.Constant || !isPositiveIntegerLexeme(dim.Lexeme) || convErr != nil || n < 1 {
				return ast.Type{}, diag.New(diag.Syntax,
					"array dimension must be positive integer constant").NearToken(dim.Lexeme, dim.Pos)
			}
			dims = append(dims, n)
		}

		punct, _, err := p.sc.Get(true)
		if err != nil {
			return ast.Type{}, err
		}
		if punct.Is("]") {
			break
		}
		if !punct.Is(",") {
			return ast.Type{}, diag.New(diag.Syntax, "expected ',' or ']'").NearToken(punct.Lexeme, punct.Pos)
		}
	}

	return ast.ArrayType(typ.Class, dims), nil
}

// checkDeclarableName rejects names that collide with intrinsic or
// pseudo-function names.
func checkDeclarableName(name scan.Token, what string) error {
	if FindIntrinsic(name.Lexeme) != nil {
		return diag.Newf(diag.Syntax, "%s conflicts with intrinsic function", what).NearToken(name.Lexeme, name.Pos)
	}
	if IsPseudoFunction(name.Lexeme) {
		return diag.Newf(diag.Syntax, "%s conflicts with pseudo-function", what).NearToken(name.Lexeme, name.Pos)
	}
	return nil
}

// parseVarList consumes zero or more consecutive 'var' groups:
//
//	var a, b = init, c : type;
//
// Every name in a group shares the group's type, parsed after the
// names. Locals are registered as they appear so later statements can
// distinguish array from wave subscripts.
func (p *Parser) parseVarList(isGlobal bool) ([]*ast.VarDecl, error) {
	var decls []*ast.VarDecl
	for {
		t, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return decls, nil
		}
		if !t.Is("var") {
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
			return decls, nil
		}

		groupStart := len(decls)
		for {
			name, _, err := p.sc.Get(true)
			if err != nil {
				return nil, err
			}
			if name.Kind != scan.Identifier {
				return nil, diag.New(diag.Syntax, "Expected variable name").NearToken(name.Lexeme, name.Pos)
			}
			if err := checkDeclarableName(name, "variable name"); err != nil {
				return nil, err
			}

			var init []ast.Expr
			t, _, err = p.sc.Get(true)
			if err != nil {
				return nil, err
			}
			if t.Is("=") {
				expr, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				init = []ast.Expr{expr}
			} else if t.Is("(") {
				// constructor argument list for import types
				t, _, err = p.sc.Get(true)
				if err != nil {
					return nil, err
				}
				if !t.Is(")") {
					if err := p.sc.Push(t); err != nil {
						return nil, err
					}
					for {
						arg, err := p.parseB0()
						if err != nil {
							return nil, err
						}
						init = append(init, arg)
						t, _, err = p.sc.Get(true)
						if err != nil {
							return nil, err
						}
						if t.Is(")") {
							break
						}
						if !t.Is(",") {
							return nil, diag.New(diag.Syntax, "expected ')' or ','").NearToken(t.Lexeme, t.Pos)
						}
					}
				}
			} else {
				if err := p.sc.Push(t); err != nil {
					return nil, err
				}
			}

			decl := &ast.VarDecl{Name: name, Init: init, Global: isGlobal}
			decls = append(decls, decl)
			if !isGlobal {
				p.localVars = append(p.localVars, decl)
			} else {
				p.prog.Globals = append(p.prog.Globals, decl)
			}

			t, _, err = p.sc.Get(true)
			if err != nil {
				return nil, err
			}
			if t.Is(":") {
				break
			}
			if !t.Is(",") {
				return nil, diag.New(diag.Syntax, "expected ',' or ':'").NearToken(t.Lexeme, t.Pos)
			}
		}

		groupType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		for _, d := range decls[groupStart:] {
			d.Typ = groupType
		}
		// constructor argument list after an import type: var v : T(args);
		if t, ok, err := p.sc.Get(false); err != nil {
			return nil, err
		} else if ok && t.Is("(") && groupType.Is(ast.TypeImport) {
			call, err := p.parseCall(t)
			if err != nil {
				return nil, err
			}
			for _, d := range decls[groupStart:] {
				d.Init = call.(*ast.Call).Args
			}
		} else if ok {
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
		}
		if err := p.sc.Expect(";"); err != nil {
			return nil, err
		}
	}
}

// parseFunction parses 'program name(...) {...}' or
// 'function name(...) [: type] {...}'. The two forms parse
// identically; the keyword decides IsProgramBody.
func (p *Parser) parseFunction() (*ast.Function, error) {
	t, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}
	isProgramBody := t.Is("program")
	if !isProgramBody && !t.Is("function") {
		return nil, diag.New(diag.Syntax, "Expected 'program' or 'function'").NearToken(t.Lexeme, t.Pos)
	}

	funcName, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}
	if funcName.Kind != scan.Identifier {
		what := "function"
		if isProgramBody {
			what = "program"
		}
		return nil, diag.Newf(diag.Syntax, "Expected %s name", what).NearToken(funcName.Lexeme, funcName.Pos)
	}
	if err := checkDeclarableName(funcName, "name"); err != nil {
		return nil, err
	}

	if err := p.sc.Expect("("); err != nil {
		return nil, err
	}

	p.localParms = nil
	p.localVars = nil

	var params []*ast.VarDecl
	for {
		parmName, _, err := p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		if parmName.Is(")") {
			break
		}
		if parmName.Kind != scan.Identifier {
			return nil, diag.New(diag.Syntax, "Expected parameter name or ')'").NearToken(parmName.Lexeme, parmName.Pos)
		}
		if err := checkDeclarableName(parmName, "name"); err != nil {
			return nil, err
		}
		if err := p.sc.Expect(":"); err != nil {
			return nil, err
		}

		p.insideFuncParms = true
		parmType, err := p.parseType()
		p.insideFuncParms = false
		if err != nil {
			return nil, err
		}

		amp, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if ok {
			if amp.Is("&") {
				parmType.Reference = true
			} else if err := p.sc.Push(amp); err != nil {
				return nil, err
			}
		}

		decl := &ast.VarDecl{Name: parmName, Typ: parmType, IsParam: true}
		params = append(params, decl)
		p.localParms = append(p.localParms, decl)

		t, _, err = p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		if !t.Is(",") {
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
		}
	}

	returnType := ast.Simple(ast.TypeVoid)
	t, ok, err := p.sc.Get(false)
	if err != nil {
		return nil, err
	}
	if ok {
		if t.Is(":") {
			returnType, err = p.parseType()
			if err != nil {
				return nil, err
			}
		} else if err := p.sc.Push(t); err != nil {
			return nil, err
		}
	}

	if err := p.sc.Expect("{"); err != nil {
		return nil, err
	}

	locals, err := p.parseVarList(false)
	if err != nil {
		return nil, err
	}

	var body []ast.Stmt
	for {
		t, _, err := p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		if t.Is("}") {
			break
		}
		if err := p.sc.Push(t); err != nil {
			return nil, err
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}

	p.localParms = nil
	p.localVars = nil

	return &ast.Function{
		Name:          funcName,
		IsProgramBody: isProgramBody,
		ReturnType:    returnType,
		Params:        params,
		Locals:        locals,
		Body:          body,
	}, nil
}
