package codegen

import (
	"strings"
	"testing"

	"sonic/internal/ast"
	"sonic/internal/parser"
	"sonic/internal/scan"
	"sonic/internal/validate"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	sc, err := scan.New("test.son", src)
	if err != nil {
		t.Fatal(err)
	}
	prog := ast.NewProgram()
	if err := parser.ParseFile(sc, prog); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := validate.Program(prog); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	out, err := Generate(prog)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	return string(out)
}

func mustContain(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("generated code missing %q\n----\n%s", want, out)
		}
	}
}

func TestBannerAndConstants(t *testing.T) {
	out := generate(t, `program beep() { }`)
	mustContain(t, out,
		"// beep.cpp  -  generated by Sonic/C++ translator v "+Version+".",
		"#include \"sonic.h\"",
		"const long    SamplingRate     =  44100;",
		"const double  SampleTime       =  1.0 / double(SamplingRate);",
		"const int     NumChannels      =  2;",
		"const int     InterpolateFlag  =  1;",
		"const double pi = 4.0 * atan(1.0);",
		"const double e  = exp(1.0);",
		"/*---  end of file beep.cpp  ---*/",
	)
	if !strings.HasPrefix(out, "// beep.cpp") {
		t.Error("banner must be the first line")
	}
}

// S1: write-mode generation from a sinewave with an explicit sample
// limit.
func TestSinewaveWrite(t *testing.T) {
	out := generate(t, `program beep() { var s: wave; s[c,i:r] = sinewave(0.5, 440, 0); }`)
	mustContain(t, out,
		"int main ( int argc, char *argv[] )",
		"if ( argc != 1 )",
		"SonicWave v_s ( \"\", \"s\", SamplingRate, NumChannels );",
		"//  s[c,i:r] = sinewave(0.5,440,0);",
		"v_s.openForWrite();",
		"const long numSamples = long(SamplingRate);",
		"// sinewave init",
		"// sinewave update",
		"for ( long i=0; i < numSamples; ++i, t += SampleTime )",
		"v_s.write ( sample );",
		"v_s.close();",
	)
	if got := strings.Count(out, "// sinewave init"); got != 1 {
		t.Errorf("channel-independent sinewave should have one state block, got %d", got)
	}
	if got := strings.Count(out, "sample[0] = "); got != 1 {
		t.Errorf("sample[0] lines = %d", got)
	}
	if got := strings.Count(out, "sample[1] = "); got != 1 {
		t.Errorf("sample[1] lines = %d", got)
	}
}

// S2: top-level settings flow into the emitted constants and loop
// bound.
func TestSettingsFlowIntoOutput(t *testing.T) {
	out := generate(t, `
r = 48000;
m = 1;
program foo(out: wave) { out[c,i:r*2] = noise(1.0); }`)
	mustContain(t, out,
		"const long    SamplingRate     =  48000;",
		"const int     NumChannels      =  1;",
		"const long numSamples = long(SamplingRate*2);",
		"Sonic_Noise(double(1.0))",
	)
	if strings.Count(out, "sample[0] = ") != 1 || strings.Contains(out, "sample[1]") {
		t.Error("one channel means exactly one sample line")
	}
}

// S3: read-driven termination via the countdown mechanism.
func TestMixCountdown(t *testing.T) {
	out := generate(t, `program mix(a: wave, b: wave, out: wave) { out[c,i] = 0.5*a[c,i] + 0.5*b[c,i]; }`)
	mustContain(t, out,
		"v_out.openForWrite();",
		"v_a.openForRead();",
		"v_b.openForRead();",
		"int countdown = NumChannels * 2;",
		"for ( long i=0; ; ++i, t += SampleTime )",
		"if ( countdown <= 0 ) break;",
		"v_out.close();",
		"v_a.close();",
		"v_b.close();",
	)
	opens := strings.Count(out, ".openForWrite()") + strings.Count(out, ".openForRead()") +
		strings.Count(out, ".openForAppend()") + strings.Count(out, ".openForModify()")
	closes := strings.Count(out, ".close()")
	if opens != closes {
		t.Errorf("open calls (%d) must match close calls (%d)", opens, closes)
	}
	if opens != 3 {
		t.Errorf("expected 3 opened waves, got %d", opens)
	}
}

// S4: '$' forces modify mode and a read before the channel block.
func TestOldDataModify(t *testing.T) {
	out := generate(t, `program dup(w: wave) { w[c,i] += $; }`)
	mustContain(t, out,
		"v_w.openForModify();",
		"const long numSamples = v_w.queryNumSamples();",
		"v_w.read ( sample );",
		"sample[0] += sample[0];",
		"sample[1] += sample[1];",
	)
}

// S5: import types include their header, reset exactly once per
// assignment, and are called per channel.
func TestImportVoice(t *testing.T) {
	out := generate(t, `
import Voice from "voice.h";
program p() {
    var v: Voice(440, 0.5, 0.5);
    var out: wave;
    out[c,i:r] = v(c,i) + v(c,i);
}`)
	mustContain(t, out,
		"#include \"voice.h\"",
		"i_Voice v_v ( 440, 0.5, 0.5 );",
		"v_v(0, i)",
		"v_v(1, i)",
	)
	if got := strings.Count(out, "v_v.reset ( NumChannels, SamplingRate );"); got != 1 {
		t.Errorf("reset must be emitted exactly once per assignment, got %d", got)
	}
}

// S6: fft builds one filter object before the loop and calls
// .filter per channel.
func TestFFTFilter(t *testing.T) {
	out := generate(t, `
program p(w: wave, out: wave) {
    out[c,i] = fft(w[c,i], 1024, spectrum, 0.0);
}
function spectrum(f: real, zr: real&, zi: real&) { zr = 1.0; zi = 0.0; }`)
	mustContain(t, out,
		"Sonic_FFT_Filter t_0 ( NumChannels, SamplingRate, int(1024), f_spectrum, double(0.0) );",
		"t_0.filter(0, v_w.fetch(int(0), long(i), countdown))",
		"t_0.filter(1, v_w.fetch(int(1), long(i), countdown))",
		"void f_spectrum (",
	)
	if got := strings.Count(out, "Sonic_FFT_Filter"); got != 1 {
		t.Errorf("fft filter constructed %d times", got)
	}
}

// Property 8: a vector-literal r-value emits exactly its arity of
// sample lines.
func TestVectorArityLines(t *testing.T) {
	out := generate(t, `program p(out: wave) { out[c,i:r] = {0.25, -0.25}; }`)
	mustContain(t, out, "sample[0] = 0.25;", "sample[1] = -0.25;")
	if got := strings.Count(out, "sample["); got != 2 {
		t.Fatalf("expected two sample lines, got %d", got)
	}
}

func TestAppendMode(t *testing.T) {
	out := generate(t, `program p(w: wave) { w[c,i:r] << 0.1; }`)
	mustContain(t, out, "v_w.openForAppend();", "sample[0] = 0.1;")
	if strings.Contains(out, "sample[0] << ") {
		t.Error("append must emit '=' inside the loop")
	}
}

func TestInterpolationSelection(t *testing.T) {
	// Non-integer index with interpolation on selects interp.
	out := generate(t, `program p(w: wave, out: wave) { out[c,i] = w[c, i/2.0]; }`)
	mustContain(t, out, "v_w.interp(int(")

	// Turning interpolation off always fetches.
	out = generate(t, `
interpolate = false;
program p(w: wave, out: wave) { out[c,i] = w[c, i/2.0]; }`)
	if strings.Contains(out, ".interp(") {
		t.Error("interpolate=false must not emit interp calls")
	}
	mustContain(t, out, "v_w.fetch(int(")
}

func TestChannelDependentOscillators(t *testing.T) {
	out := generate(t, `program p(out: wave) { out[c,i:r] = sinewave(1, 440 + 10*c, 0); }`)
	mustContain(t, out, "// sinewave init [c=0]", "// sinewave init [c=1]")
}

func TestScalarStatements(t *testing.T) {
	out := generate(t, `
program p() {
    var k, total : integer;
    var x : real;
    k = 3;
    x = k % 2;
    x = x ^ 2;
    repeat (4)
        total += 1;
    for (k = 0; k < 8; k += 1)
        total += k;
    while (total > 5)
        total -= 1;
    if (total == 3)
        total = 0;
    else
        total = 1;
}`)
	mustContain(t, out,
		"long v_k = 0;",
		"long v_total = 0;",
		"double v_x = 0;",
		"v_k = 3;",
		"v_x = v_k%2;",
		"pow(double(v_x),double(2))",
		"for ( long t_0 = long(4); t_0 > 0; --t_0 )",
		"for ( ; v_k < 8; v_k += 1 )",
		"while ( v_total > 5 )",
		"if ( v_total == 3 )",
		"else",
	)
}

func TestFmodForRealOperands(t *testing.T) {
	out := generate(t, `program p() { var x : real; x = x % 0.5; }`)
	mustContain(t, out, "fmod(double(v_x),double(0.5))")
}

func TestBoolOperatorTranslation(t *testing.T) {
	out := generate(t, `
program p() {
    var a, b : boolean;
    var x : real;
    a = true;
    b = false;
    if (a & b | !a)
        x = 1;
    if (x <> 2)
        x = 2;
}`)
	mustContain(t, out, "v_a && v_b || !v_a", "v_x != 2", "v_a = 1;", "v_b = 0;")
}

func TestArrayDeclarationAndAccess(t *testing.T) {
	out := generate(t, `
program p() {
    var tab : real[3,2];
    var x : real;
    tab[0, 1] = 0.5;
    x = tab[2, 0];
}`)
	mustContain(t, out,
		"double v_tab[3][2];",
		"v_tab[0][1] = 0.5;",
		"v_x = v_tab[2][0];",
	)
}

func TestArrayParameterWildcard(t *testing.T) {
	out := generate(t, `
program p() {
    var tab : real[16];
    fill(tab);
}
function fill(a: real[?]) { a[0] = 1.0; }`)
	mustContain(t, out, "double v_a[]", "f_fill(v_tab);", "v_a[0] = 1.0;")
}

func TestUserFunctionAndPrototypes(t *testing.T) {
	out := generate(t, `
program p() {
    var x : real;
    x = gain(x);
}
function gain(v: real) : real { return 2 * v; }`)
	mustContain(t, out,
		"double f_gain (",
		"double v_v )",
		"f_p (",
		"v_x = f_gain(v_x);",
		"return 2*v_v;",
	)
	if !strings.Contains(out, "double f_gain (\n    double v_v );") {
		t.Error("prototype for gain missing")
	}
}

func TestMainArgumentScanning(t *testing.T) {
	out := generate(t, `program p(n2: integer, gain: real, flag: boolean, w: wave) { }`)
	mustContain(t, out,
		"if ( argc != 5 )",
		"cerr << \"Use:  p n2 gain flag w\" << endl << endl;",
		"long v_n2 = ScanInteger ( \"n2\", argv[1] );",
		"double v_gain = ScanReal ( \"gain\", argv[2] );",
		"int v_flag = ScanBoolean ( \"flag\", argv[3] );",
		"SonicWave v_w ( argv[4], \"w\", SamplingRate, NumChannels );",
		"f_p ( v_n2, v_gain, v_flag, v_w );",
		"v_w.convertToWav ( argv[4] );",
		"SonicWave::EraseAllTempFiles();",
	)
}

func TestGlobalVariables(t *testing.T) {
	out := generate(t, `
var gain = 0.5 : real;
var total : integer;
program p() { total = 1; }`)
	mustContain(t, out,
		"// global variables...",
		"double v_gain = 0.5;",
		"long v_total = 0;",
	)
}

func TestIIRGeneration(t *testing.T) {
	out := generate(t, `program p(w: wave, out: wave) { out[c,i] = iir({0.2, 0.3},{0.5}, w[c,i]); }`)
	mustContain(t, out,
		"// iir x-coefficients",
		"// iir y-coefficients",
		"// iir x-buffer [c=0]",
		"// iir y-buffer [c=1]",
		"// iir x-index",
		"// iir y-index",
		"// iir accumulator",
		"// iir x dot product",
		"// iir y dot product",
	)
}

func TestBareNInsideWaveSubscript(t *testing.T) {
	// Reversal: bare 'n' refers to the subscripted wave's own sample
	// count, and a wave-field 'n' works in a sample limit.
	out := generate(t, `program p(w: wave, out: wave) { out[c,i:w.n] = w[c, n - 1 - i]; }`)
	mustContain(t, out,
		"const long numSamples = long(v_w.queryNumSamples());",
		"v_w.queryNumSamples() - 1 - i",
	)
}

func TestBareNOutsideSubscriptFails(t *testing.T) {
	sc, err := scan.New("test.son", `program p(w: wave) { w[c,i:r] = n; }`)
	if err != nil {
		t.Fatal(err)
	}
	prog := ast.NewProgram()
	if err := parser.ParseFile(sc, prog); err != nil {
		t.Fatal(err)
	}
	if err := validate.Program(prog); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(prog); err == nil ||
		!strings.Contains(err.Error(), "expected '<wavename>.' before 'n'") {
		t.Fatalf("expected bare-n context error, got %v", err)
	}
}

func TestCannotDetermineLength(t *testing.T) {
	sc, err := scan.New("test.son", `program p(out: wave) { out[c,i] = sinewave(1, 440, 0); }`)
	if err != nil {
		t.Fatal(err)
	}
	prog := ast.NewProgram()
	if err := parser.ParseFile(sc, prog); err != nil {
		t.Fatal(err)
	}
	if err := validate.Program(prog); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(prog); err == nil ||
		!strings.Contains(err.Error(), "cannot determine number of samples to generate") {
		t.Fatalf("expected length error, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	prog := ast.NewProgram()
	sc, err := scan.New("test.son", `program mixdown() { }`)
	if err != nil {
		t.Fatal(err)
	}
	if err := parser.ParseFile(sc, prog); err != nil {
		t.Fatal(err)
	}
	if got := Filename(prog); got != "mixdown.cpp" {
		t.Fatalf("Filename = %q", got)
	}
}
