package parser

import (
	"sonic/internal/ast"
	"sonic/internal/diag"
	"sonic/internal/scan"
)

func isAssignOp(op scan.Token) bool {
	switch op.Lexeme {
	case "=", "<<", "+=", "-=", "*=", "/=", "%=":
		return true
	}
	return false
}

// parseAssignment parses an l-value, an assignment operator, and an
// r-value. The caller consumes the trailing ';' where one is required
// (the update clause of a 'for' has none).
func (p *Parser) parseAssignment() (*ast.Assign, error) {
	name, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}
	t2, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}

	lv := &ast.Lvalue{VarName: name, Kind: ast.LvalueScalar}
	if t2.Is("[") {
		// Could be an array assignment or a wave assignment.
		decl, err := p.findVar(name)
		if err != nil {
			return nil, err
		}
		switch decl.Typ.Class {
		case ast.TypeArray:
			lv.Kind = ast.LvalueArray
			for {
				index, err := p.parseTerm()
				if err != nil {
					return nil, err
				}
				lv.Indexes = append(lv.Indexes, index)
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
		case ast.TypeWave:
			lv.Kind = ast.LvalueWave
			if err := p.sc.Expect("c"); err != nil {
				return nil, err
			}
			if err := p.sc.Expect(","); err != nil {
				return nil, err
			}
			if err := p.sc.Expect("i"); err != nil {
				return nil, err
			}
			t, _, err := p.sc.Get(true)
			if err != nil {
				return nil, err
			}
			if t.Is(":") {
				lv.SampleLimit, err = p.parseTerm()
				if err != nil {
					return nil, err
				}
			} else if err := p.sc.Push(t); err != nil {
				return nil, err
			}
			if err := p.sc.Expect("]"); err != nil {
				return nil, err
			}
		default:
			return nil, diag.New(diag.Syntax, "cannot subscript variable of this type").NearToken(name.Lexeme, name.Pos)
		}
	} else if err := p.sc.Push(t2); err != nil {
		return nil, err
	}

	op, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}
	if !isAssignOp(op) {
		return nil, diag.New(diag.Syntax, "invalid assignment operator").NearToken(op.Lexeme, op.Pos)
	}

	rvalue, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.Assign{Op: op, Lvalue: lv, Rvalue: rvalue}, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	t, _, err := p.sc.Get(true)
	if err != nil {
		return nil, err
	}

	switch {
	case t.Is("if"):
		if err := p.sc.Expect("("); err != nil {
			return nil, err
		}
		cond, err := p.parseB0()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		then, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		var elseStmt ast.Stmt
		t, ok, err := p.sc.Get(false)
		if err != nil {
			return nil, err
		}
		if ok {
			if t.Is("else") {
				elseStmt, err = p.parseStatement()
				if err != nil {
					return nil, err
				}
			} else if err := p.sc.Push(t); err != nil {
				return nil, err
			}
		}
		return &ast.If{Cond: cond, Then: then, Else: elseStmt}, nil

	case t.Is("while"):
		if err := p.sc.Expect("("); err != nil {
			return nil, err
		}
		cond, err := p.parseB0()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.While{Cond: cond, Body: body}, nil

	case t.Is("for"):
		if err := p.sc.Expect("("); err != nil {
			return nil, err
		}
		init, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		cond, err := p.parseB0()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(";"); err != nil {
			return nil, err
		}
		update, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.For{Init: init, Cond: cond, Update: update, Body: body}, nil

	case t.Is("repeat"):
		if err := p.sc.Expect("("); err != nil {
			return nil, err
		}
		count, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(")"); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.Repeat{Count: count, Body: body}, nil

	case t.Is("return"):
		t2, _, err := p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		var value ast.Expr
		if !t2.Is(";") {
			if err := p.sc.Push(t2); err != nil {
				return nil, err
			}
			value, err = p.parseB0()
			if err != nil {
				return nil, err
			}
			if err := p.sc.Expect(";"); err != nil {
				return nil, err
			}
		}
		return &ast.Return{Tok: t, Value: value}, nil

	case t.Is("{"):
		var stmts []ast.Stmt
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
			stmts = append(stmts, stmt)
		}
		return &ast.Compound{Stmts: stmts}, nil

	case t.Is(";"):
		return &ast.Compound{}, nil

	case t.Kind == scan.Identifier:
		// One more token decides: function call or assignment.
		t2, _, err := p.sc.Get(true)
		if err != nil {
			return nil, err
		}
		if t2.Is("(") {
			if err := p.sc.Push(t2); err != nil {
				return nil, err
			}
			if err := p.sc.Push(t); err != nil {
				return nil, err
			}
			expr, err := p.parseT3()
			if err != nil {
				return nil, err
			}
			call, ok := expr.(*ast.Call)
			if !ok {
				return nil, diag.New(diag.Syntax, "expected function call").NearToken(t.Lexeme, t.Pos)
			}
			if err := p.sc.Expect(";"); err != nil {
				return nil, err
			}
			return &ast.CallStmt{Call: call}, nil
		}
		if err := p.sc.Push(t2); err != nil {
			return nil, err
		}
		if err := p.sc.Push(t); err != nil {
			return nil, err
		}
		assign, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if err := p.sc.Expect(";"); err != nil {
			return nil, err
		}
		return assign, nil
	}

	return nil, diag.New(diag.Syntax, "expected a statement").NearToken(t.Lexeme, t.Pos)
}
