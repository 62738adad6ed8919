package codegen

import (
	"sonic/internal/ast"
	"sonic/internal/diag"
)

// expr renders one expression. With generatingComment set, the output
// is the Sonic-surface form (no runtime prefixes, no legality checks);
// otherwise it is the C++ form valid in the current loop context.
func (g *generator) expr(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.Constant:
		if x.Typ.Is(ast.TypeString) {
			g.printf("\"%s\"", x.Tok.Lexeme)
		} else {
			g.printf("%s", x.Tok.Lexeme)
		}
		return nil

	case *ast.Variable:
		if !g.generatingComment {
			g.printf(localPrefix)
		}
		g.printf("%s", x.Name.Lexeme)
		return nil

	case *ast.BuiltinRef:
		return g.builtin(x)

	case *ast.Vector:
		g.printf("{ ")
		for i, elem := range x.Elems {
			if err := g.expr(elem); err != nil {
				return err
			}
			if i+1 < len(x.Elems) {
				g.printf(", ")
			}
		}
		g.printf(" }")
		return nil

	case *ast.WaveSample:
		return g.waveSample(x)

	case *ast.WaveField:
		return g.waveField(x)

	case *ast.OldData:
		if g.generatingComment {
			g.printf("$")
			return nil
		}
		if !g.iAllowed {
			return diag.New(diag.Semantic, "Old-data symbol cannot appear here").NearToken(x.Dollar.Lexeme, x.Dollar.Pos)
		}
		g.printf("sample[%d]", g.channelValue)
		return nil

	case *ast.Call:
		if !g.generatingComment {
			switch x.FKind {
			case ast.FuncUser:
				g.printf(funcPrefix)
			case ast.FuncImport:
				g.printf(localPrefix)
			}
		}
		needDoubleCast := x.FKind == ast.FuncIntrinsic && !g.generatingComment
		g.printf("%s(", x.Name.Lexeme)
		for i, arg := range x.Args {
			if needDoubleCast {
				g.printf("double(")
			}
			if err := g.expr(arg); err != nil {
				return err
			}
			if needDoubleCast {
				g.printf(")")
			}
			if i+1 < len(x.Args) {
				g.printf(", ")
			}
		}
		g.printf(")")
		return nil

	case *ast.Binary:
		return g.binary(x)

	case *ast.Unary:
		g.printf("%s", x.Op.Lexeme)
		if x.Child.Precedence() <= x.Precedence() {
			g.printf("(")
			if err := g.expr(x.Child); err != nil {
				return err
			}
			g.printf(")")
			return nil
		}
		return g.expr(x.Child)

	case *ast.Sinewave:
		if g.generatingComment {
			g.printf("sinewave(")
			if err := g.expr(x.Amplitude); err != nil {
				return err
			}
			g.printf(",")
			if err := g.expr(x.Frequency); err != nil {
				return err
			}
			g.printf(",")
			if err := g.expr(x.Phase); err != nil {
				return err
			}
			g.printf(")")
			return nil
		}
		if !g.iAllowed {
			return diag.New(diag.Semantic, "sinewave construct not allowed here").NearToken(x.Tok.Lexeme, x.Tok.Pos)
		}
		g.printf("%s[2]", temp(x.TempTag[g.channelValue]))
		return nil

	case *ast.Sawtooth:
		if g.generatingComment {
			g.printf("sawtooth(")
			if err := g.expr(x.Frequency); err != nil {
				return err
			}
			g.printf(")")
			return nil
		}
		if !g.cAllowed {
			return diag.New(diag.Semantic, "sawtooth construct not allowed here").NearToken(x.Tok.Lexeme, x.Tok.Pos)
		}
		g.printf("%s[0]", temp(x.TempTag[g.channelValue]))
		return nil

	case *ast.FFT:
		if g.generatingComment {
			g.printf("fft(")
			if err := g.expr(x.Input); err != nil {
				return err
			}
			g.printf(",")
			if err := g.expr(x.Size); err != nil {
				return err
			}
			g.printf(",%s,", x.FuncName.Lexeme)
			if err := g.expr(x.FreqShift); err != nil {
				return err
			}
			g.printf(")")
			return nil
		}
		if !g.iAllowed || !g.cAllowed {
			return diag.New(diag.Semantic, "pseudo-function 'fft' not allowed here").NearToken(x.Tok.Lexeme, x.Tok.Pos)
		}
		g.printf("%s.filter(%d, ", temp(x.TempTag), g.channelValue)
		if err := g.expr(x.Input); err != nil {
			return err
		}
		g.printf(")")
		return nil

	case *ast.IIR:
		if g.generatingComment {
			g.printf("iir({")
			for i, coeff := range x.XCoeffs {
				if err := g.expr(coeff); err != nil {
					return err
				}
				if i+1 < len(x.XCoeffs) {
					g.printf(",")
				}
			}
			g.printf("},{")
			for i, coeff := range x.YCoeffs {
				if err := g.expr(coeff); err != nil {
					return err
				}
				if i+1 < len(x.YCoeffs) {
					g.printf(",")
				}
			}
			g.printf("},")
			if err := g.expr(x.Input); err != nil {
				return err
			}
			g.printf(")")
			return nil
		}
		if !g.iAllowed {
			return diag.New(diag.Semantic, "iir construct not allowed here").NearToken(x.Tok.Lexeme, x.Tok.Pos)
		}
		g.printf("%s[%d]", temp(x.TagAccum), g.channelValue)
		return nil

	case *ast.ArraySubscript:
		if g.generatingComment {
			g.printf("%s[", x.Name.Lexeme)
			for i, ix := range x.Indexes {
				if err := g.expr(ix); err != nil {
					return err
				}
				if i+1 < len(x.Indexes) {
					g.printf(",")
				}
			}
			g.printf("]")
			return nil
		}
		g.printf("%s%s", localPrefix, x.Name.Lexeme)
		for _, ix := range x.Indexes {
			if err := g.arrayIndex(ix); err != nil {
				return err
			}
		}
		return nil
	}

	return diag.New(diag.Internal, "unknown expression kind")
}

func (g *generator) builtin(x *ast.BuiltinRef) error {
	if g.generatingComment {
		g.printf("%s", x.Name.Lexeme)
		return nil
	}
	switch x.Name.Lexeme {
	case "r":
		g.printf("SamplingRate")
	case "m":
		g.printf("NumChannels")
	case "true":
		g.printf("1")
	case "false":
		g.printf("0")
	case "interpolate":
		g.printf("InterpolateFlag")
	case "n":
		// Bare 'n' is the sample count of the wave whose subscript we
		// are inside; anywhere else it has no referent.
		if g.bracketer == nil {
			return diag.New(diag.Semantic, "expected '<wavename>.' before 'n'").NearToken(x.Name.Lexeme, x.Name.Pos)
		}
		g.printf("%s%s.queryNumSamples()", localPrefix, g.bracketer.Lexeme)
	default:
		if !g.iAllowed && (x.Name.Is("i") || x.Name.Is("t")) {
			return diag.New(diag.Semantic, "time-based placeholder not allowed here").NearToken(x.Name.Lexeme, x.Name.Pos)
		}
		if !g.cAllowed && x.Name.Is("c") {
			return diag.New(diag.Semantic, "channel placeholder not allowed here").NearToken(x.Name.Lexeme, x.Name.Pos)
		}
		if x.Name.Is("c") && g.channelValue >= 0 {
			g.printf("%d", g.channelValue)
		} else {
			g.printf("%s", x.Name.Lexeme)
		}
	}
	return nil
}

func (g *generator) waveSample(x *ast.WaveSample) error {
	if g.generatingComment {
		g.printf("%s[", x.WaveName.Lexeme)
		if err := g.expr(x.CTerm); err != nil {
			return err
		}
		g.printf(",")
		if err := g.expr(x.ITerm); err != nil {
			return err
		}
		g.printf("]")
		return nil
	}

	if !g.iAllowed {
		return diag.New(diag.Semantic, "wave expression not allowed here").NearToken(x.WaveName.Lexeme, x.WaveName.Pos)
	}

	save := g.bracketer
	g.bracketer = &x.WaveName
	defer func() { g.bracketer = save }()

	if g.prog.Interpolate && !x.ITerm.Type().Is(ast.TypeInteger) {
		g.printf("%s%s.interp(int(", localPrefix, x.WaveName.Lexeme)
		if err := g.expr(x.CTerm); err != nil {
			return err
		}
		g.printf("), double(")
		if err := g.expr(x.ITerm); err != nil {
			return err
		}
		g.printf("), countdown)")
		return nil
	}
	g.printf("%s%s.fetch(int(", localPrefix, x.WaveName.Lexeme)
	if err := g.expr(x.CTerm); err != nil {
		return err
	}
	g.printf("), long(")
	if err := g.expr(x.ITerm); err != nil {
		return err
	}
	g.printf("), countdown)")
	return nil
}

func (g *generator) waveField(x *ast.WaveField) error {
	if g.generatingComment {
		g.printf("%s.%s", x.VarName.Lexeme, x.Field.Lexeme)
		return nil
	}
	switch x.Field.Lexeme {
	case "r":
		g.printf("SamplingRate")
	case "m":
		g.printf("NumChannels")
	case "interpolate":
		g.printf("InterpolateFlag")
	case "n":
		g.printf("%s%s.queryNumSamples()", localPrefix, x.VarName.Lexeme)
	case "max":
		g.printf("%s%s.queryMaxValue()", localPrefix, x.VarName.Lexeme)
	default:
		return diag.New(diag.Semantic, "unknown wave field").NearToken(x.Field.Lexeme, x.Field.Pos)
	}
	return nil
}

func (g *generator) binary(x *ast.Binary) error {
	if x.BoolResult {
		return g.binaryBool(x)
	}
	switch x.Op.Lexeme {
	case "^":
		g.printf("pow(double(")
		if err := g.expr(x.L); err != nil {
			return err
		}
		g.printf("),double(")
		if err := g.expr(x.R); err != nil {
			return err
		}
		g.printf("))")
		return nil
	case "%":
		if !x.L.Type().Is(ast.TypeInteger) || !x.R.Type().Is(ast.TypeInteger) {
			g.printf("fmod(double(")
			if err := g.expr(x.L); err != nil {
				return err
			}
			g.printf("),double(")
			if err := g.expr(x.R); err != nil {
				return err
			}
			g.printf("))")
			return nil
		}
	}

	paren := x.L.Precedence() < x.Precedence()
	if paren {
		g.printf("(")
	}
	if err := g.expr(x.L); err != nil {
		return err
	}
	if paren {
		g.printf(")")
	}

	space := x.Op.Is("+") || x.Op.Is("-")
	if space {
		g.printf(" ")
	}
	g.printf("%s", x.Op.Lexeme)
	if space {
		g.printf(" ")
	}

	if x.R.Precedence() == x.Precedence() {
		paren = x.GroupsRight()
	} else {
		paren = x.R.Precedence() < x.Precedence()
	}
	if paren {
		g.printf("(")
	}
	if err := g.expr(x.R); err != nil {
		return err
	}
	if paren {
		g.printf(")")
	}
	return nil
}

func (g *generator) binaryBool(x *ast.Binary) error {
	paren := x.L.Precedence() < x.Precedence()
	if paren {
		g.printf("(")
	}
	if err := g.expr(x.L); err != nil {
		return err
	}
	if paren {
		g.printf(")")
	}

	op := x.Op.Lexeme
	if !g.generatingComment {
		switch op {
		case "|":
			op = "||"
		case "&":
			op = "&&"
		case "<>":
			op = "!="
		}
	}
	g.printf(" %s ", op)

	if x.R.Precedence() == x.Precedence() {
		paren = x.GroupsRight()
	} else {
		paren = x.R.Precedence() < x.Precedence()
	}
	if paren {
		g.printf("(")
	}
	if err := g.expr(x.R); err != nil {
		return err
	}
	if paren {
		g.printf(")")
	}
	return nil
}
