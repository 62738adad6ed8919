// Package validate walks the Program IR after parsing: it enforces
// name uniqueness, resolves every reference to its declaration, infers
// expression types, and checks every conversion. Validation is
// idempotent; running it twice leaves the IR unchanged.
package validate

import (
	"sonic/internal/ast"
	"sonic/internal/diag"
	"sonic/internal/scan"
)

type checker struct {
	prog *ast.Program
}

// Program validates the whole program: the program body first, then
// each function, then the global variables.
func Program(prog *ast.Program) error {
	c := &checker{prog: prog}

	if prog.Body == nil {
		return diag.New(diag.Semantic, "code contains no program body")
	}
	if err := c.function(prog.Body); err != nil {
		return err
	}
	for _, fn := range prog.Funcs {
		if err := c.function(fn); err != nil {
			return err
		}
	}
	for _, g := range prog.Globals {
		switch n := prog.CountInstances(g.Name.Lexeme); {
		case n < 1:
			return diag.New(diag.Internal, "cannot locate global variable").NearToken(g.Name.Lexeme, g.Name.Pos)
		case n > 1:
			return diag.New(diag.Semantic, "global variable declared more than once").NearToken(g.Name.Lexeme, g.Name.Pos)
		}
		if err := c.varDecl(g, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) function(fn *ast.Function) error {
	if c.prog.Body != fn && c.prog.Body.Name.Lexeme == fn.Name.Lexeme {
		return diag.New(diag.Semantic, "function name conflicts with program name").NearToken(fn.Name.Lexeme, fn.Name.Pos)
	}
	count := 0
	for _, other := range c.prog.Funcs {
		if other.Name.Lexeme == fn.Name.Lexeme {
			count++
		}
	}
	if count > 1 {
		return diag.New(diag.Semantic, "function name already defined").NearToken(fn.Name.Lexeme, fn.Name.Pos)
	}

	for _, p := range fn.Params {
		if err := c.uniqueSymbol(fn, p.Name); err != nil {
			return err
		}
		if err := c.varDecl(p, fn); err != nil {
			return err
		}
	}
	for _, v := range fn.Locals {
		if err := c.uniqueSymbol(fn, v.Name); err != nil {
			return err
		}
		if err := c.varDecl(v, fn); err != nil {
			return err
		}
	}
	for _, s := range fn.Body {
		if err := c.stmt(s, fn); err != nil {
			return err
		}
	}
	return nil
}

// uniqueSymbol counts occurrences of a declared name across globals,
// imports, functions, the program body, and the enclosing function's
// parameters and locals. Exactly one is well-formed.
func (c *checker) uniqueSymbol(fn *ast.Function, name scan.Token) error {
	found := fn.CountInstances(name.Lexeme) + c.prog.CountInstances(name.Lexeme)
	for _, other := range c.prog.Funcs {
		if other.Name.Lexeme == name.Lexeme {
			found++
		}
	}
	for _, imp := range c.prog.Imports {
		if imp.Name.Lexeme == name.Lexeme {
			found++
		}
	}
	if c.prog.Body.Name.Lexeme == name.Lexeme {
		found++
	}
	if found == 0 {
		return diag.New(diag.Semantic, "symbol not defined").NearToken(name.Lexeme, name.Pos)
	}
	if found > 1 {
		return diag.New(diag.Semantic, "symbol defined more than once").NearToken(name.Lexeme, name.Pos)
	}
	return nil
}

func (c *checker) varDecl(v *ast.VarDecl, fn *ast.Function) error {
	if len(v.Init) == 0 {
		return nil
	}
	for _, init := range v.Init {
		if err := c.expr(init, fn); err != nil {
			return err
		}
	}
	if v.Typ.Is(ast.TypeImport) {
		// Constructor arguments go through unchecked: the imported
		// type's signature is trusted.
		return nil
	}
	if v.Typ.Is(ast.TypeWave) {
		return diag.New(diag.Semantic, "wave variable cannot have initializer").NearToken(v.Name.Lexeme, v.Name.Pos)
	}
	if len(v.Init) > 1 {
		return diag.New(diag.Semantic, "this variable must not have multiple initializer expressions").NearToken(v.Name.Lexeme, v.Name.Pos)
	}
	if !ast.CanConvert(v.Init[0].Type(), v.Typ) {
		return diag.New(diag.Semantic, "cannot convert initializer expression to variable type").
			NearToken(v.Init[0].FirstToken().Lexeme, v.Init[0].FirstToken().Pos)
	}
	return nil
}

func (c *checker) stmt(s ast.Stmt, fn *ast.Function) error {
	switch x := s.(type) {
	case *ast.Compound:
		for _, inner := range x.Stmts {
			if err := c.stmt(inner, fn); err != nil {
				return err
			}
		}
		return nil

	case *ast.CallStmt:
		return c.expr(x.Call, fn)

	case *ast.If:
		if err := c.expr(x.Cond, fn); err != nil {
			return err
		}
		if !x.Cond.Type().Is(ast.TypeBoolean) {
			return c.errAt(x.Cond, "argument to 'if' must be boolean type")
		}
		if err := c.stmt(x.Then, fn); err != nil {
			return err
		}
		if x.Else != nil {
			return c.stmt(x.Else, fn)
		}
		return nil

	case *ast.While:
		if err := c.expr(x.Cond, fn); err != nil {
			return err
		}
		if err := c.stmt(x.Body, fn); err != nil {
			return err
		}
		if !x.Cond.Type().Is(ast.TypeBoolean) {
			return c.errAt(x.Cond, "argument to 'while' must be boolean type")
		}
		return nil

	case *ast.For:
		if err := c.stmt(x.Init, fn); err != nil {
			return err
		}
		if err := c.expr(x.Cond, fn); err != nil {
			return err
		}
		if !x.Cond.Type().Is(ast.TypeBoolean) {
			return c.errAt(x.Cond, "condition of 'for' must be boolean type")
		}
		if err := c.stmt(x.Update, fn); err != nil {
			return err
		}
		if x.Update.Lvalue.Kind == ast.LvalueWave {
			return diag.New(diag.Semantic, "wave assignment not allowed in 'for' update").
				NearToken(x.Update.Lvalue.VarName.Lexeme, x.Update.Lvalue.VarName.Pos)
		}
		return c.stmt(x.Body, fn)

	case *ast.Repeat:
		if err := c.expr(x.Count, fn); err != nil {
			return err
		}
		if err := c.stmt(x.Body, fn); err != nil {
			return err
		}
		if !ast.CanConvert(x.Count.Type(), ast.Simple(ast.TypeInteger)) {
			return c.errAt(x.Count, "cannot convert 'repeat' argument to integer type")
		}
		return nil

	case *ast.Return:
		if fn == nil {
			return diag.New(diag.Internal, "return statement outside function").NearToken(x.Tok.Lexeme, x.Tok.Pos)
		}
		if x.Value == nil {
			if !fn.ReturnType.Is(ast.TypeVoid) {
				return diag.New(diag.Semantic, "this function must return a value").NearToken(x.Tok.Lexeme, x.Tok.Pos)
			}
			return nil
		}
		if err := c.expr(x.Value, fn); err != nil {
			return err
		}
		if !ast.CanConvert(x.Value.Type(), fn.ReturnType) {
			return c.errAt(x.Value, "cannot convert return value to return type")
		}
		return nil

	case *ast.Assign:
		return c.assign(x, fn)
	}
	return diag.New(diag.Internal, "unknown statement kind")
}

func (c *checker) assign(a *ast.Assign, fn *ast.Function) error {
	ltype, err := c.lvalue(a.Lvalue, fn)
	if err != nil {
		return err
	}
	if err := c.expr(a.Rvalue, fn); err != nil {
		return err
	}
	if !ast.CanConvert(a.Rvalue.Type(), ltype) {
		return c.errAt(a.Rvalue, "cannot convert expression to type on left side of '='")
	}
	if ltype.Is(ast.TypeBoolean) && !a.Op.Is("=") {
		return diag.New(diag.Semantic, "assignment operator not allowed for boolean on left").NearToken(a.Op.Lexeme, a.Op.Pos)
	}
	if a.Op.Is("<<") {
		if a.Lvalue.Kind != ast.LvalueWave {
			return diag.New(diag.Semantic, "append operator '<<' is allowed only in wave assignments").NearToken(a.Op.Lexeme, a.Op.Pos)
		}
		if referencesOldData(a.Rvalue) {
			return diag.New(diag.Semantic, "Cannot use append operator when '$' appears on right side").NearToken(a.Op.Lexeme, a.Op.Pos)
		}
	}
	return nil
}

func referencesOldData(e ast.Expr) bool {
	found := false
	ast.Walk(e, func(n ast.Expr) {
		if _, ok := n.(*ast.OldData); ok {
			found = true
		}
	})
	return found
}

// lvalue validates an assignment target and returns the type an
// r-value must convert to. Wave targets accept vectors (and therefore
// any numeric, channel-replicated).
func (c *checker) lvalue(lv *ast.Lvalue, fn *ast.Function) (ast.Type, error) {
	decl, err := c.prog.FindSymbol(lv.VarName, fn, true)
	if err != nil {
		return ast.Type{}, err
	}
	lv.Decl = decl

	switch lv.Kind {
	case ast.LvalueWave:
		if !decl.Typ.Is(ast.TypeWave) {
			return ast.Type{}, diag.New(diag.Semantic,
				"subscript '[]' allowed only on variable of wave type").NearToken(lv.VarName.Lexeme, lv.VarName.Pos)
		}
		if lv.SampleLimit != nil {
			if err := c.expr(lv.SampleLimit, fn); err != nil {
				return ast.Type{}, err
			}
			if !lv.SampleLimit.Type().IsNumeric() {
				return ast.Type{}, c.errAt(lv.SampleLimit, "sample limit expression must have numeric type")
			}
		}
		return ast.Simple(ast.TypeVector), nil

	case ast.LvalueArray:
		if !decl.Typ.Is(ast.TypeArray) {
			return ast.Type{}, diag.New(diag.Semantic,
				"cannot subscript variable of this type").NearToken(lv.VarName.Lexeme, lv.VarName.Pos)
		}
		if len(lv.Indexes) != len(decl.Typ.Dims) {
			return ast.Type{}, diag.New(diag.Semantic,
				"wrong number of array subscripts").NearToken(lv.VarName.Lexeme, lv.VarName.Pos)
		}
		for _, ix := range lv.Indexes {
			if err := c.expr(ix, fn); err != nil {
				return ast.Type{}, err
			}
			if !ast.CanConvert(ix.Type(), ast.Simple(ast.TypeInteger)) {
				return ast.Type{}, c.errAt(ix, "array subscript must have numeric type")
			}
		}
		return ast.Simple(decl.Typ.Elem), nil
	}

	return decl.Typ, nil
}

func (c *checker) errAt(e ast.Expr, msg string) error {
	tok := e.FirstToken()
	return diag.New(diag.Semantic, msg).NearToken(tok.Lexeme, tok.Pos)
}

func (c *checker) requireReal(e ast.Expr, fn *ast.Function, msg string) error {
	if err := c.expr(e, fn); err != nil {
		return err
	}
	if !ast.CanConvert(e.Type(), ast.Simple(ast.TypeReal)) {
		return c.errAt(e, msg)
	}
	return nil
}
