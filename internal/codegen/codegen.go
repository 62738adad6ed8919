// Package codegen walks a validated Program IR and renders the
// equivalent C++ translation unit against the Sonic runtime library.
package codegen

import (
	"fmt"
	"strings"
	"time"

	"sonic/internal/ast"
	"sonic/internal/diag"
	"sonic/internal/scan"
)

const (
	Version     = "0.903 (beta)"
	ReleaseDate = "26 September 1998"
)

const (
	spacesPerIndent = 4
	localPrefix     = "v_"
	funcPrefix      = "f_"
	tempPrefix      = "t_"
	importPrefix    = "i_"
)

// generator carries the mutable emission context: the output buffer,
// the indent level, the per-assignment legality flags, and the
// temporary-name counter.
type generator struct {
	b strings.Builder

	indentLevel int
	iAllowed    bool
	cAllowed    bool
	nextTempTag int

	insideFunctionParms bool
	generatingComment   bool
	bracketer           *scan.Token
	channelValue        int
	insideVector        bool

	prog *ast.Program
	fn   *ast.Function
	now  func() time.Time
}

// Filename returns the output filename for a validated program.
func Filename(prog *ast.Program) string {
	return prog.Body.Name.Lexeme + ".cpp"
}

// Generate renders the full translation unit. The caller owns writing
// the result to disk (and removing it again on failure).
func Generate(prog *ast.Program) ([]byte, error) {
	if prog.Body == nil {
		return nil, diag.New(diag.Internal, "no program body defined")
	}
	g := &generator{prog: prog, channelValue: -1, now: time.Now}
	if err := g.file(); err != nil {
		return nil, err
	}
	return []byte(g.b.String()), nil
}

func (g *generator) printf(format string, args ...interface{}) {
	fmt.Fprintf(&g.b, format, args...)
}

func (g *generator) indent(s string) {
	for i := 0; i < g.indentLevel; i++ {
		g.b.WriteByte(' ')
	}
	g.b.WriteString(s)
}

func (g *generator) pushIndent() { g.indentLevel += spacesPerIndent }
func (g *generator) popIndent()  { g.indentLevel -= spacesPerIndent }

func (g *generator) newTag() int {
	tag := g.nextTempTag
	g.nextTempTag++
	return tag
}

func temp(tag int) string { return fmt.Sprintf("%s%d", tempPrefix, tag) }

func (g *generator) file() error {
	cppName := Filename(g.prog)

	g.printf("// %s  -  generated by Sonic/C++ translator v %s.\n", cppName, Version)
	g.printf("// Translator released on %s.\n", ReleaseDate)
	g.printf("// For more info about Sonic, see the following web site:\n")
	g.printf("// https://github.com/cosinekitty/sonic\n\n")
	g.printf("// This file created: %s\n\n", g.now().Format(time.ANSIC))
	g.printf("// Standard includes...\n")
	g.printf("#include <stdio.h>\n")
	g.printf("#include <iostream.h>\n")
	g.printf("#include <stdlib.h>\n")
	g.printf("#include <string.h>\n")
	g.printf("#include <math.h>\n")
	g.printf("\n// Sonic-specific includes...\n")
	g.printf("#include \"sonic.h\"\n")
	g.importIncludes()
	g.printf("\n\n")
	g.printf("const long    SamplingRate     =  %d;\n", g.prog.SamplingRate)
	g.printf("const double  SampleTime       =  1.0 / double(SamplingRate);\n")
	g.printf("const int     NumChannels      =  %d;\n", g.prog.NumChannels)
	interpolate := 0
	if g.prog.Interpolate {
		interpolate = 1
	}
	g.printf("const int     InterpolateFlag  =  %d;\n", interpolate)
	g.printf("\n")
	g.printf("const double pi = 4.0 * atan(1.0);\n")
	g.printf("const double e  = exp(1.0);\n\n")

	if err := g.prototypes(); err != nil {
		return err
	}
	if err := g.globalVariables(); err != nil {
		return err
	}
	if err := g.mainFunction(); err != nil {
		return err
	}
	if err := g.function(g.prog.Body); err != nil {
		return err
	}
	for _, fn := range g.prog.Funcs {
		if err := g.function(fn); err != nil {
			return err
		}
	}

	g.printf("\n\n/*---  end of file %s  ---*/\n", cppName)
	return nil
}

// importIncludes emits every distinct import header exactly once.
func (g *generator) importIncludes() {
	seen := map[string]bool{}
	for _, imp := range g.prog.Imports {
		header := imp.ImportHeader.Lexeme
		if seen[header] {
			continue
		}
		seen[header] = true
		g.printf("#include \"%s\"\n", header)
	}
}

func (g *generator) prototypes() error {
	if err := g.prototype(g.prog.Body); err != nil {
		return err
	}
	g.printf(";\n\n")
	for _, fn := range g.prog.Funcs {
		if err := g.prototype(fn); err != nil {
			return err
		}
		g.printf(";\n\n")
	}
	return nil
}

func (g *generator) globalVariables() error {
	if len(g.prog.Globals) == 0 {
		return nil
	}
	g.printf("// global variables...\n\n")
	for _, v := range g.prog.Globals {
		if err := g.varDecl(v); err != nil {
			return err
		}
		g.printf(";\n")
	}
	g.printf("\n")
	return nil
}

func (g *generator) prototype(fn *ast.Function) error {
	switch fn.ReturnType.Class {
	case ast.TypeVoid:
		g.printf("void ")
	case ast.TypeInteger:
		g.printf("long ")
	case ast.TypeReal:
		g.printf("double ")
	case ast.TypeBoolean:
		g.printf("int ")
	case ast.TypeWave:
		return diag.New(diag.Semantic, "function not allowed to return wave type").NearToken(fn.Name.Lexeme, fn.Name.Pos)
	default:
		return diag.Newf(diag.Internal, "function return type was '%s'", fn.ReturnType.Class).NearToken(fn.Name.Lexeme, fn.Name.Pos)
	}

	g.printf("%s%s (", funcPrefix, fn.Name.Lexeme)
	if len(fn.Params) > 0 {
		g.printf("\n")
		g.pushIndent()
		g.insideFunctionParms = true
		for i, p := range fn.Params {
			g.indent("")
			if err := g.varDecl(p); err != nil {
				return err
			}
			if i+1 < len(fn.Params) {
				g.printf(",\n")
			}
		}
		g.insideFunctionParms = false
		g.popIndent()
	}
	g.printf(" )")
	return nil
}

func (g *generator) function(fn *ast.Function) error {
	fsave := g.fn
	g.fn = fn
	defer func() { g.fn = fsave }()

	g.printf("\n")
	if err := g.prototype(fn); err != nil {
		return err
	}
	g.printf("\n{\n")
	g.pushIndent()

	if len(fn.Locals) > 0 {
		for _, v := range fn.Locals {
			g.indent("")
			if err := g.varDecl(v); err != nil {
				return err
			}
			g.printf(";\n")
		}
		g.printf("\n")
	}

	if err := g.stmtList(fn.Body); err != nil {
		return err
	}

	g.popIndent()
	g.printf("}\n\n")
	return nil
}

// varDecl renders the C++ declarator for one variable: its type, its
// prefixed name, its array dimensions, and its initializer or default.
func (g *generator) varDecl(v *ast.VarDecl) error {
	elem := v.Typ.Class
	if v.Typ.Is(ast.TypeArray) {
		elem = v.Typ.Elem
	}

	switch elem {
	case ast.TypeInteger:
		g.printf("long ")
	case ast.TypeReal:
		g.printf("double ")
	case ast.TypeBoolean:
		g.printf("int ")
	case ast.TypeWave:
		g.printf("SonicWave ")
		if g.insideFunctionParms {
			g.printf("&")
		}
	case ast.TypeImport:
		if v.Typ.ImportName == nil {
			return diag.New(diag.Internal, "cannot resolve import type").NearToken(v.Name.Lexeme, v.Name.Pos)
		}
		g.printf("%s%s ", importPrefix, v.Typ.ImportName.Lexeme)
		if g.insideFunctionParms {
			g.printf("&")
		}
	default:
		return diag.Newf(diag.Internal, "symbol with type '%s'", elem).NearToken(v.Name.Lexeme, v.Name.Pos)
	}

	if v.Typ.Reference {
		if !g.insideFunctionParms {
			return diag.New(diag.Internal, "found reference type outside of function parms").NearToken(v.Name.Lexeme, v.Name.Pos)
		}
		g.printf("&")
	}

	g.printf("%s%s", localPrefix, v.Name.Lexeme)

	if v.Typ.Is(ast.TypeArray) {
		for _, dim := range v.Typ.Dims {
			if dim == 0 {
				g.printf("[]")
			} else {
				g.printf("[%d]", dim)
			}
		}
	}

	if len(v.Init) > 0 {
		if g.insideFunctionParms {
			return diag.New(diag.Internal, "function parameter has initializer").NearToken(v.Name.Lexeme, v.Name.Pos)
		}
		switch {
		case v.Typ.Is(ast.TypeWave):
			return diag.New(diag.Semantic, "wave variable cannot have initializer").NearToken(v.Name.Lexeme, v.Name.Pos)
		case v.Typ.Is(ast.TypeImport):
			g.printf(" ( ")
			for i, init := range v.Init {
				if err := g.expr(init); err != nil {
					return err
				}
				if i+1 < len(v.Init) {
					g.printf(", ")
				}
			}
			g.printf(" )")
		default:
			if len(v.Init) > 1 {
				return diag.New(diag.Semantic, "this variable must not have multiple initializer expressions").NearToken(v.Name.Lexeme, v.Name.Pos)
			}
			g.printf(" = ")
			cast := v.Typ.Is(ast.TypeInteger) && v.Init[0].Type().Is(ast.TypeReal)
			if cast {
				g.printf("long(")
			}
			if err := g.expr(v.Init[0]); err != nil {
				return err
			}
			if cast {
				g.printf(")")
			}
		}
	} else if !g.insideFunctionParms {
		switch v.Typ.Class {
		case ast.TypeInteger, ast.TypeReal, ast.TypeBoolean:
			g.printf(" = 0")
		case ast.TypeWave:
			g.printf(" ( \"\", \"%s\", SamplingRate, NumChannels )", v.Name.Lexeme)
		}
	}
	return nil
}

// mainFunction emits the generated program's entry point: argument
// scanning, the call to the program body, wave conversion, and
// temporary-file cleanup.
func (g *generator) mainFunction() error {
	body := g.prog.Body
	g.printf("\nint main ( int argc, char *argv[] )\n{\n")
	g.pushIndent()

	g.printf("    if ( argc != %d )\n", 1+len(body.Params))
	g.printf("    {\n")
	g.printf("        cerr << \"Use:  %s", body.Name.Lexeme)
	for _, p := range body.Params {
		g.printf(" %s", p.Name.Lexeme)
	}
	g.printf("\" << endl << endl;\n")
	g.printf("        return 1;\n")
	g.printf("    }\n\n")

	for argc, p := range body.Params {
		argc := argc + 1
		g.indent("")
		switch p.Typ.Class {
		case ast.TypeInteger:
			g.printf("long ")
		case ast.TypeReal:
			g.printf("double ")
		case ast.TypeBoolean:
			g.printf("int ")
		case ast.TypeWave:
			g.printf("SonicWave ")
		case ast.TypeImport:
			return diag.New(diag.Semantic, "cannot pass import type to program").NearToken(p.Name.Lexeme, p.Name.Pos)
		default:
			return diag.New(diag.Internal, "invalid program argument type").NearToken(p.Name.Lexeme, p.Name.Pos)
		}

		g.printf("%s%s", localPrefix, p.Name.Lexeme)
		switch p.Typ.Class {
		case ast.TypeInteger:
			g.printf(" = ScanInteger ( \"%s\", argv[%d] );\n", p.Name.Lexeme, argc)
		case ast.TypeReal:
			g.printf(" = ScanReal ( \"%s\", argv[%d] );\n", p.Name.Lexeme, argc)
		case ast.TypeBoolean:
			g.printf(" = ScanBoolean ( \"%s\", argv[%d] );\n", p.Name.Lexeme, argc)
		case ast.TypeWave:
			g.printf(" ( argv[%d], \"%s\", SamplingRate, NumChannels );\n", argc, p.Name.Lexeme)
		}
	}

	g.indent("")
	g.printf("%s%s ( ", funcPrefix, body.Name.Lexeme)
	for i, p := range body.Params {
		g.printf("%s%s", localPrefix, p.Name.Lexeme)
		if i+1 < len(body.Params) {
			g.printf(", ")
		}
	}
	g.printf(" );\n\n")

	for argc, p := range body.Params {
		if p.Typ.Is(ast.TypeWave) {
			g.printf("    %s%s.convertToWav ( argv[%d] );\n", localPrefix, p.Name.Lexeme, argc+1)
		}
	}

	g.printf("    SonicWave::EraseAllTempFiles();\n")
	g.printf("    return 0;\n")
	g.popIndent()
	g.printf("}\n\n")
	return nil
}
