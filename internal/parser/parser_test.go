package parser

import (
	"strings"
	"testing"

	"sonic/internal/ast"
	"sonic/internal/scan"
)

func parseSource(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	sc, err := scan.New("test.son", src)
	if err != nil {
		t.Fatal(err)
	}
	prog := ast.NewProgram()
	return prog, ParseFile(sc, prog)
}

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parseSource(t, src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return prog
}

func wantError(t *testing.T, src, fragment string) {
	t.Helper()
	_, err := parseSource(t, src)
	if err == nil {
		t.Fatalf("expected error containing %q", fragment)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Fatalf("error %q does not contain %q", err.Error(), fragment)
	}
}

func TestDefaults(t *testing.T) {
	prog := mustParse(t, `program p() { }`)
	if prog.SamplingRate != 44100 || prog.NumChannels != 2 || !prog.Interpolate {
		t.Fatalf("bad defaults: %d %d %v", prog.SamplingRate, prog.NumChannels, prog.Interpolate)
	}
	if prog.Body == nil || !prog.Body.IsProgramBody || prog.Body.Name.Lexeme != "p" {
		t.Fatal("program body not recorded")
	}
}

func TestTopLevelSettings(t *testing.T) {
	prog := mustParse(t, `
r = 48000;
m = 1;
interpolate = false;
program p() { }`)
	if prog.SamplingRate != 48000 || prog.NumChannels != 1 || prog.Interpolate {
		t.Fatalf("settings not applied: %d %d %v", prog.SamplingRate, prog.NumChannels, prog.Interpolate)
	}
}

func TestDuplicateSettings(t *testing.T) {
	wantError(t, "r = 44100; r = 22050; program p() { }", "'r' has already been defined")
	wantError(t, "m = 2; m = 2; program p() { }", "'m' has already been defined")
	wantError(t, "interpolate = true; interpolate = true; program p() { }", "'interpolate' has already been defined")
}

func TestChannelLimit(t *testing.T) {
	wantError(t, "m = 65; program p() { }", "Maximum allowed number of channels is 64")
}

func TestBadRateValue(t *testing.T) {
	wantError(t, "r = 44100.5; program p() { }", "expected positive integer constant")
	wantError(t, "r = 0; program p() { }", "expected positive integer constant")
}

func TestDuplicateProgramBody(t *testing.T) {
	wantError(t, "program a() { } program b() { }", "program body already defined")
}

func TestImportList(t *testing.T) {
	prog := mustParse(t, `
import Voice, Chorus from "voice.h";
import Reverb from "fx.h";
program p() { }`)
	if len(prog.Imports) != 3 {
		t.Fatalf("got %d imports", len(prog.Imports))
	}
	if prog.Imports[0].ImportHeader.Lexeme != "voice.h" || prog.Imports[1].ImportHeader.Lexeme != "voice.h" {
		t.Fatal("shared header not recorded")
	}
	if prog.Imports[2].ImportHeader.Lexeme != "fx.h" {
		t.Fatal("second import header wrong")
	}
}

func TestGlobalsAndLocals(t *testing.T) {
	prog := mustParse(t, `
var gain = 0.5 : real;
program p() {
    var a, b : integer;
    var w : wave;
    a = 1;
}`)
	if len(prog.Globals) != 1 || prog.Globals[0].Name.Lexeme != "gain" {
		t.Fatal("global not recorded")
	}
	if len(prog.Body.Locals) != 3 {
		t.Fatalf("got %d locals", len(prog.Body.Locals))
	}
	if !prog.Body.Locals[0].Typ.Is(ast.TypeInteger) || !prog.Body.Locals[2].Typ.Is(ast.TypeWave) {
		t.Fatal("group types not applied")
	}
}

func TestFunctionHeader(t *testing.T) {
	prog := mustParse(t, `
program p() { }
function f(x: real, y: real&) : real { return x + y; }`)
	fn := prog.Funcs[0]
	if fn.Name.Lexeme != "f" || len(fn.Params) != 2 {
		t.Fatal("header misparsed")
	}
	if fn.Params[0].Typ.Reference || !fn.Params[1].Typ.Reference {
		t.Fatal("reference flags wrong")
	}
	if !fn.ReturnType.Is(ast.TypeReal) {
		t.Fatal("return type wrong")
	}
}

func TestVoidReturnTypeDefault(t *testing.T) {
	prog := mustParse(t, `program p() { } function f() { return; }`)
	if !prog.Funcs[0].ReturnType.Is(ast.TypeVoid) {
		t.Fatal("return type should default to void")
	}
}

func TestArrayTypes(t *testing.T) {
	prog := mustParse(t, `
program p() {
    var a : real[3];
    var b : integer[2,4];
    a[0] = 1.0;
}`)
	a := prog.Body.Locals[0]
	if !a.Typ.Is(ast.TypeArray) || a.Typ.Elem != ast.TypeReal || len(a.Typ.Dims) != 1 || a.Typ.Dims[0] != 3 {
		t.Fatalf("array type misparsed: %+v", a.Typ)
	}
	b := prog.Body.Locals[1]
	if len(b.Typ.Dims) != 2 || b.Typ.Dims[0] != 2 || b.Typ.Dims[1] != 4 {
		t.Fatalf("array dims misparsed: %+v", b.Typ)
	}
}

func TestQuestionDimension(t *testing.T) {
	prog := mustParse(t, `
program p() { }
function f(a: real[?,4]) { a[0,0] = 1.0; }`)
	parm := prog.Funcs[0].Params[0]
	if parm.Typ.Dims[0] != 0 || parm.Typ.Dims[1] != 4 {
		t.Fatalf("wildcard dims misparsed: %+v", parm.Typ)
	}

	wantError(t, "program p() { var a : real[?]; }",
		"may use '?' as array dimension only in function parameters")
	wantError(t, "program p() { } function f(a: real[4,?]) { }",
		"may use '?' only as first dimension of array")
}

func TestWaveArrayRejected(t *testing.T) {
	wantError(t, "program p() { var w : wave[3]; }", "may not be an array element type")
}

func TestPrecedenceShape(t *testing.T) {
	prog := mustParse(t, `program p() { var x : real; x = 1 + 2 * 3; }`)
	assign := prog.Body.Body[0].(*ast.Assign)
	top, ok := assign.Rvalue.(*ast.Binary)
	if !ok || !top.Op.Is("+") {
		t.Fatalf("top operator should be '+': %+v", assign.Rvalue)
	}
	right, ok := top.R.(*ast.Binary)
	if !ok || !right.Op.Is("*") {
		t.Fatal("'*' should bind tighter than '+'")
	}
}

func TestPowerRightAssociative(t *testing.T) {
	prog := mustParse(t, `program p() { var x : real; x = 2 ^ 3 ^ 4; }`)
	assign := prog.Body.Body[0].(*ast.Assign)
	top := assign.Rvalue.(*ast.Binary)
	if !top.Op.Is("^") {
		t.Fatal("top should be '^'")
	}
	if _, ok := top.R.(*ast.Binary); !ok {
		t.Fatal("'^' should group right-to-left")
	}
	if _, ok := top.L.(*ast.Binary); ok {
		t.Fatal("'^' grouped to the left")
	}
}

func TestIntrinsicLookup(t *testing.T) {
	prog := mustParse(t, `program p() { var x : real; x = abs(-3.0); }`)
	assign := prog.Body.Body[0].(*ast.Assign)
	call := assign.Rvalue.(*ast.Call)
	if call.FKind != ast.FuncIntrinsic {
		t.Fatal("abs should be intrinsic")
	}
	if call.Name.Lexeme != "fabs" {
		t.Fatalf("intrinsic target name: got %q", call.Name.Lexeme)
	}
}

func TestIntrinsicArity(t *testing.T) {
	wantError(t, "program p() { var x : real; x = sin(1, 2); }",
		"wrong number of parameters to intrinsic function")
}

func TestIntrinsicNameConflict(t *testing.T) {
	wantError(t, "program p() { var sin : real; }", "conflicts with intrinsic function")
	wantError(t, "program sawtooth() { }", "conflicts with pseudo-function")
}

func TestPseudoFunctions(t *testing.T) {
	prog := mustParse(t, `
program p() {
    var s : wave;
    s[c,i:r] = sinewave(0.5, 440, 0);
    s[c,i] += sawtooth(110) + iir({0.5,0.5},{},$);
}`)
	first := prog.Body.Body[0].(*ast.Assign)
	if _, ok := first.Rvalue.(*ast.Sinewave); !ok {
		t.Fatal("sinewave node expected")
	}
	if first.Lvalue.Kind != ast.LvalueWave || first.Lvalue.SampleLimit == nil {
		t.Fatal("wave l-value with sample limit expected")
	}
	second := prog.Body.Body[1].(*ast.Assign)
	sum := second.Rvalue.(*ast.Binary)
	iir, ok := sum.R.(*ast.IIR)
	if !ok {
		t.Fatal("iir node expected")
	}
	if len(iir.XCoeffs) != 2 || len(iir.YCoeffs) != 0 {
		t.Fatalf("iir coefficients: %d x, %d y", len(iir.XCoeffs), len(iir.YCoeffs))
	}
}

func TestFFTSyntax(t *testing.T) {
	prog := mustParse(t, `
program p() {
    var w, out : wave;
    out[c,i] = fft(w[c,i], 1024, spectrum, 0.0);
}`)
	assign := prog.Body.Body[0].(*ast.Assign)
	fft := assign.Rvalue.(*ast.FFT)
	if fft.FuncName.Lexeme != "spectrum" {
		t.Fatal("transfer function name lost")
	}
}

func TestVectorLiteral(t *testing.T) {
	prog := mustParse(t, `program p() { var s : wave; s[c,i:r] = {0.25, -0.25}; }`)
	assign := prog.Body.Body[0].(*ast.Assign)
	vec := assign.Rvalue.(*ast.Vector)
	if len(vec.Elems) != 2 {
		t.Fatalf("vector arity %d", len(vec.Elems))
	}
}

func TestStatements(t *testing.T) {
	prog := mustParse(t, `
program p() {
    var i2, total : integer;
    for (i2 = 0; i2 < 10; i2 += 1)
        total += i2;
    while (total > 5)
        total -= 1;
    repeat (4) {
        total += 1;
    }
    if (total == 9)
        total = 0;
    else
        total = 1;
}`)
	body := prog.Body.Body
	if _, ok := body[0].(*ast.For); !ok {
		t.Fatal("for statement expected")
	}
	if _, ok := body[1].(*ast.While); !ok {
		t.Fatal("while statement expected")
	}
	if _, ok := body[2].(*ast.Repeat); !ok {
		t.Fatal("repeat statement expected")
	}
	ifStmt, ok := body[3].(*ast.If)
	if !ok || ifStmt.Else == nil {
		t.Fatal("if/else statement expected")
	}
}

func TestCallStatement(t *testing.T) {
	prog := mustParse(t, `program p() { helper(); } function helper() { return; }`)
	if _, ok := prog.Body.Body[0].(*ast.CallStmt); !ok {
		t.Fatal("call statement expected")
	}
}

func TestMultiFileAccumulation(t *testing.T) {
	prog := ast.NewProgram()
	sc1, err := scan.New("one.son", `function f() { return; }`)
	if err != nil {
		t.Fatal(err)
	}
	if err := ParseFile(sc1, prog); err != nil {
		t.Fatal(err)
	}
	sc2, err := scan.New("two.son", `program p() { f(); }`)
	if err != nil {
		t.Fatal(err)
	}
	if err := ParseFile(sc2, prog); err != nil {
		t.Fatal(err)
	}
	if len(prog.Funcs) != 1 || prog.Body == nil {
		t.Fatal("declarations did not accumulate across files")
	}
}

func TestTopLevelGarbage(t *testing.T) {
	wantError(t, "banana;", "expected 'program', 'function', 'var', 'import', or constant definition")
}
