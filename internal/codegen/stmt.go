package codegen

import (
	"sonic/internal/ast"
	"sonic/internal/diag"
	"sonic/internal/scan"
)

// stmtList emits a statement sequence, separating the control-flow
// and assignment statements with blank lines the way the translator's
// output always has been formatted.
func (g *generator) stmtList(stmts []ast.Stmt) error {
	for i, s := range stmts {
		if err := g.stmt(s); err != nil {
			return err
		}
		if i+1 < len(stmts) && blankAfter(s) {
			g.printf("\n")
		}
	}
	return nil
}

func blankAfter(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.CallStmt, *ast.If, *ast.While, *ast.For, *ast.Repeat, *ast.Assign:
		return true
	}
	return false
}

func (g *generator) stmt(s ast.Stmt) error {
	switch x := s.(type) {
	case *ast.Compound:
		if len(x.Stmts) == 0 {
			g.indent(";\n")
			return nil
		}
		if len(x.Stmts) == 1 {
			return g.stmt(x.Stmts[0])
		}
		g.indent("{\n")
		g.pushIndent()
		if err := g.stmtList(x.Stmts); err != nil {
			return err
		}
		g.popIndent()
		g.indent("}\n")
		return nil

	case *ast.CallStmt:
		g.indent("")
		if err := g.expr(x.Call); err != nil {
			return err
		}
		g.printf(";\n")
		return nil

	case *ast.If:
		g.indent("if ( ")
		if err := g.expr(x.Cond); err != nil {
			return err
		}
		g.printf(" )\n")
		if err := g.indentedBody(x.Then); err != nil {
			return err
		}
		if x.Else != nil {
			g.indent("else\n")
			if err := g.indentedBody(x.Else); err != nil {
				return err
			}
		}
		return nil

	case *ast.While:
		g.indent("while ( ")
		if err := g.expr(x.Cond); err != nil {
			return err
		}
		g.printf(" )\n")
		return g.indentedBody(x.Body)

	case *ast.For:
		// The init clause may be any statement, so it runs before a
		// header-less C++ for; the update rides in the header.
		g.indent("{\n")
		g.pushIndent()
		if err := g.stmt(x.Init); err != nil {
			return err
		}
		g.indent("for ( ; ")
		if err := g.expr(x.Cond); err != nil {
			return err
		}
		g.printf("; ")
		if err := g.inlineAssign(x.Update); err != nil {
			return err
		}
		g.printf(" )\n")
		if err := g.indentedBody(x.Body); err != nil {
			return err
		}
		g.popIndent()
		g.indent("}\n")
		return nil

	case *ast.Repeat:
		t := temp(g.newTag())
		g.indent("for ( long ")
		g.printf("%s = long(", t)
		if err := g.expr(x.Count); err != nil {
			return err
		}
		g.printf("); %s > 0; --%s )\n", t, t)
		return g.indentedBody(x.Body)

	case *ast.Return:
		g.indent("return")
		if x.Value != nil {
			g.printf(" ")
			if err := g.expr(x.Value); err != nil {
				return err
			}
		}
		g.printf(";\n")
		return nil

	case *ast.Assign:
		if x.Lvalue.Kind == ast.LvalueWave {
			return g.waveAssign(x)
		}
		if x.Op.Is("<<") {
			return diag.New(diag.Semantic, "append operator '<<' is allowed only in wave assignments").NearToken(x.Op.Lexeme, x.Op.Pos)
		}
		g.indent("")
		if err := g.inlineAssign(x); err != nil {
			return err
		}
		g.printf(";\n")
		return nil
	}
	return diag.New(diag.Internal, "unknown statement kind")
}

// indentedBody emits a loop or branch body, indenting it one step when
// it does not already render as a braced block of its own.
func (g *generator) indentedBody(s ast.Stmt) error {
	braced := ast.NeedsBraces(s)
	if !braced {
		g.pushIndent()
	}
	err := g.stmt(s)
	if !braced {
		g.popIndent()
	}
	return err
}

// inlineAssign renders a scalar or array-element assignment without
// indentation or trailing punctuation, so it can also serve as the
// update clause of a for header.
func (g *generator) inlineAssign(a *ast.Assign) error {
	g.printf("%s%s", localPrefix, a.Lvalue.VarName.Lexeme)
	if a.Lvalue.Kind == ast.LvalueArray {
		for _, ix := range a.Lvalue.Indexes {
			if err := g.arrayIndex(ix); err != nil {
				return err
			}
		}
	}
	g.printf(" %s ", a.Op.Lexeme)
	return g.expr(a.Rvalue)
}

// arrayIndex emits one [subscript], casting real-typed indexes down to
// an integral type.
func (g *generator) arrayIndex(ix ast.Expr) error {
	g.printf("[")
	if ix.Type().Is(ast.TypeReal) {
		g.printf("long(")
		if err := g.expr(ix); err != nil {
			return err
		}
		g.printf(")")
	} else if err := g.expr(ix); err != nil {
		return err
	}
	g.printf("]")
	return nil
}

// waveAssign expands W[c,i[:limit]] op rvalue into the block that
// opens every referenced wave, runs the sample loop, and closes them
// again. This is the heart of the translator.
func (g *generator) waveAssign(a *ast.Assign) error {
	lv := a.Lvalue
	lname := lv.VarName.Lexeme

	g.indent("{\n")
	g.pushIndent()

	// A comment-form rendition of the original statement explains the
	// generated block.
	g.generatingComment = true
	g.indent("//  ")
	g.printf("%s[c,i", lname)
	if lv.SampleLimit != nil {
		g.printf(":")
		if err := g.expr(lv.SampleLimit); err != nil {
			return err
		}
	}
	g.printf("] %s ", a.Op.Lexeme)
	if err := g.expr(a.Rvalue); err != nil {
		return err
	}
	g.printf(";\n\n")
	g.generatingComment = false

	// Collect the distinct wave names on the right-hand side. The
	// l-value seeds the list so its own appearances are not re-opened.
	names := []scan.Token{lv.VarName}
	occurrences := 0
	ast.WaveRefs(a.Rvalue, &names, &occurrences)

	modify := false
	for _, t := range names[1:] {
		if t.Lexeme == "$" {
			modify = true
		}
	}

	g.indent(localPrefix)
	g.printf("%s", lname)
	switch {
	case a.Op.Is("=") && !modify:
		g.printf(".openForWrite();\n")
	case a.Op.Is("<<"):
		if modify {
			return diag.New(diag.Semantic,
				"Cannot use append operator when '$' appears on right side").NearToken(a.Op.Lexeme, a.Op.Pos)
		}
		g.printf(".openForAppend();\n")
	default:
		g.printf(".openForModify();\n")
		modify = true
	}

	for _, t := range names[1:] {
		if t.Lexeme != "$" {
			g.indent(localPrefix)
			g.printf("%s.openForRead();\n", t.Lexeme)
		}
	}

	implicitSelfNumSamples := false

	g.indent("double sample [NumChannels];\n")
	g.indent("double t = double(0);\n")
	if lv.SampleLimit != nil {
		g.indent("const long numSamples = long(")
		save := g.bracketer
		g.bracketer = &lv.VarName
		err := g.expr(lv.SampleLimit)
		g.bracketer = save
		if err != nil {
			return err
		}
		g.printf(");\n")
	} else if occurrences == 0 && modify {
		g.indent("const long numSamples = ")
		g.printf("%s%s.queryNumSamples();\n", localPrefix, lname)
		implicitSelfNumSamples = true
	}

	_, rvalueIsVector := a.Rvalue.(*ast.Vector)
	g.insideVector = rvalueIsVector
	if err := g.preSampleLoop(a.Rvalue); err != nil {
		return err
	}
	g.insideVector = false

	if lv.SampleLimit != nil || implicitSelfNumSamples {
		g.indent("for ( long i=0; i < numSamples; ++i, t += SampleTime )\n")
	} else {
		if occurrences == 0 {
			tok := a.Rvalue.FirstToken()
			return diag.New(diag.Semantic,
				"cannot determine number of samples to generate").NearToken(tok.Lexeme, tok.Pos)
		}
		g.indent("for ( long i=0; ; ++i, t += SampleTime )\n")
	}

	g.indent("{\n")
	g.pushIndent()

	if occurrences > 0 {
		if lv.SampleLimit == nil {
			g.indent("int countdown = NumChannels")
			if occurrences > 1 {
				g.printf(" * %d", occurrences)
			}
			g.printf(";\n")
		} else {
			g.indent("int countdown;\n")
		}
	}

	if modify {
		g.indent(localPrefix)
		g.printf("%s.read ( sample );\n", lname)
	}

	assignOp := a.Op.Lexeme
	if a.Op.Is("<<") {
		assignOp = "="
	}

	g.insideVector = rvalueIsVector
	if err := g.preChannelLoop(a.Rvalue); err != nil {
		return err
	}
	g.insideVector = false

	if rvalueIsVector {
		vec := a.Rvalue.(*ast.Vector)
		g.iAllowed, g.cAllowed = true, true
		g.insideVector = true
		for k, comp := range vec.Elems {
			g.channelValue = k
			g.indent("sample[")
			g.printf("%d] %s ", k, assignOp)
			if err := g.expr(comp); err != nil {
				return err
			}
			g.printf(";\n")
		}
		g.iAllowed, g.cAllowed = false, false
		g.insideVector = false
		g.channelValue = -1
	} else {
		g.iAllowed, g.cAllowed = true, true
		for c := 0; c < g.prog.NumChannels; c++ {
			g.channelValue = c
			g.indent("sample[")
			g.printf("%d] %s ", c, assignOp)
			if err := g.expr(a.Rvalue); err != nil {
				return err
			}
			g.printf(";\n")
		}
		g.iAllowed, g.cAllowed = false, false
		g.channelValue = -1
	}

	if lv.SampleLimit == nil && !implicitSelfNumSamples && occurrences > 0 {
		g.indent("if ( countdown <= 0 ) break;\n")
	}

	g.indent(localPrefix)
	g.printf("%s.write ( sample );\n", lname)
	g.popIndent()
	g.indent("}\n")

	for _, t := range names {
		if t.Lexeme != "$" {
			g.indent(localPrefix)
			g.printf("%s.close();\n", t.Lexeme)
		}
	}

	g.popIndent()
	g.indent("}\n")

	if g.fn == nil {
		return diag.New(diag.Internal, "context lacks enclosing function").NearToken(a.Op.Lexeme, a.Op.Pos)
	}
	g.fn.ClearResetFlags()
	g.prog.ClearResetFlags()
	return nil
}
