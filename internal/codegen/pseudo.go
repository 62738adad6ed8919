package codegen

import (
	"sonic/internal/ast"
	"sonic/internal/diag"
)

// preSampleLoop emits the once-per-assignment setup for every node of
// the r-value: fft filter construction, iir coefficient and delay-line
// arrays, oscillator recurrence state, and the once-per-assignment
// reset of import function objects.
func (g *generator) preSampleLoop(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.Constant, *ast.BuiltinRef, *ast.Variable, *ast.OldData, *ast.WaveField:
		return nil

	case *ast.Vector:
		g.channelValue = 0
		for _, elem := range x.Elems {
			if err := g.preSampleLoop(elem); err != nil {
				return err
			}
			g.channelValue++
		}
		return nil

	case *ast.WaveSample:
		isave, csave := g.iAllowed, g.cAllowed
		g.iAllowed, g.cAllowed = true, true
		err := g.preSampleLoop(x.CTerm)
		if err == nil {
			err = g.preSampleLoop(x.ITerm)
		}
		g.iAllowed, g.cAllowed = isave, csave
		return err

	case *ast.Call:
		if x.FKind == ast.FuncImport {
			if g.fn == nil {
				return diag.New(diag.Internal, "context lacks enclosing function").NearToken(x.Name.Lexeme, x.Name.Pos)
			}
			// Reset an import function object exactly once per
			// assignment statement, however often it is referenced.
			decl, err := g.prog.FindSymbol(x.Name, g.fn, true)
			if err != nil {
				return err
			}
			if !decl.ResetEmitted {
				decl.ResetEmitted = true
				g.indent(localPrefix)
				g.printf("%s.reset ( NumChannels, SamplingRate );\n", x.Name.Lexeme)
			}
		}
		for _, arg := range x.Args {
			if err := g.preSampleLoop(arg); err != nil {
				return err
			}
		}
		return nil

	case *ast.Binary:
		if err := g.preSampleLoop(x.L); err != nil {
			return err
		}
		return g.preSampleLoop(x.R)

	case *ast.Unary:
		return g.preSampleLoop(x.Child)

	case *ast.Sinewave:
		return g.sinewavePreSample(x)

	case *ast.Sawtooth:
		return g.sawtoothPreSample(x)

	case *ast.FFT:
		if err := g.preSampleLoop(x.Input); err != nil {
			return err
		}
		x.TempTag = g.newTag()
		g.indent("Sonic_FFT_Filter ")
		g.printf("%s ( NumChannels, SamplingRate, int(", temp(x.TempTag))
		if err := g.expr(x.Size); err != nil {
			return err
		}
		g.printf("), %s%s, double(", funcPrefix, x.FuncName.Lexeme)
		if err := g.expr(x.FreqShift); err != nil {
			return err
		}
		g.printf(") );\n")
		return nil

	case *ast.IIR:
		return g.iirPreSample(x)

	case *ast.ArraySubscript:
		for _, ix := range x.Indexes {
			if err := g.preSampleLoop(ix); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// preChannelLoop emits the once-per-sample state advancement: the
// oscillator recurrences and the iir index rotation and dot products.
func (g *generator) preChannelLoop(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.Vector:
		g.channelValue = 0
		for _, elem := range x.Elems {
			if err := g.preChannelLoop(elem); err != nil {
				return err
			}
			g.channelValue++
		}
		return nil

	case *ast.WaveSample:
		isave, csave := g.iAllowed, g.cAllowed
		g.iAllowed, g.cAllowed = true, true
		err := g.preChannelLoop(x.CTerm)
		if err == nil {
			err = g.preChannelLoop(x.ITerm)
		}
		g.iAllowed, g.cAllowed = isave, csave
		return err

	case *ast.Call:
		for _, arg := range x.Args {
			if err := g.preChannelLoop(arg); err != nil {
				return err
			}
		}
		return nil

	case *ast.Binary:
		if err := g.preChannelLoop(x.L); err != nil {
			return err
		}
		return g.preChannelLoop(x.R)

	case *ast.Unary:
		return g.preChannelLoop(x.Child)

	case *ast.Sinewave:
		return g.sinewavePreChannel(x)

	case *ast.Sawtooth:
		return g.sawtoothPreChannel(x)

	case *ast.FFT:
		return g.preChannelLoop(x.Input)

	case *ast.IIR:
		return g.iirPreChannel(x)

	case *ast.ArraySubscript:
		for _, ix := range x.Indexes {
			if err := g.preChannelLoop(ix); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// channelRange decides which channels a generator needs state for: the
// single current channel inside a vector component, every channel when
// the generator is channel-dependent, one shared slot otherwise.
func (g *generator) channelRange(channelDependent bool) (start, limit int) {
	if g.insideVector {
		return g.channelValue, g.channelValue + 1
	}
	if channelDependent {
		return 0, g.prog.NumChannels
	}
	return 0, 1
}

func (g *generator) sinewavePreSample(x *ast.Sinewave) error {
	x.ChannelDependent = ast.IsChannelDependent(x)
	csave := g.cAllowed
	g.cAllowed = true
	channelSave := g.channelValue
	cStart, cLimit := g.channelRange(x.ChannelDependent)

	for c := cStart; c < cLimit; c++ {
		g.channelValue = c
		x.TempTag[c] = g.newTag()
		t := temp(x.TempTag[c])

		g.indent("double ")
		g.printf("%s[4];     // sinewave init", t)
		if x.ChannelDependent || g.insideVector {
			g.printf(" [c=%d]", c)
		}
		g.printf("\n")

		g.indent(t)
		g.printf("[2] = -2 * pi * (")
		if err := g.expr(x.Frequency); err != nil {
			return err
		}
		g.printf(") * SampleTime;\n")

		g.indent(t)
		g.printf("[1] = (")
		if err := g.expr(x.Phase); err != nil {
			return err
		}
		g.printf(") * pi / 180.0;\n")

		g.indent(t)
		g.printf("[3] = ")
		if err := g.expr(x.Amplitude); err != nil {
			return err
		}
		g.printf(";\n")

		g.indent(t)
		g.printf("[0] = %s[3] * sin ( 2*%s[2] + %s[1] );\n", t, t, t)
		g.indent(t)
		g.printf("[1] = %s[3] * sin ( %s[2] + %s[1] );\n", t, t, t)
		g.indent(t)
		g.printf("[3] = 2 * cos ( %s[2] );\n", t)
	}

	g.channelValue = channelSave
	g.cAllowed = csave

	if !x.ChannelDependent && !g.insideVector {
		for c := 1; c < g.prog.NumChannels; c++ {
			x.TempTag[c] = x.TempTag[0]
		}
	}
	return nil
}

func (g *generator) sinewavePreChannel(x *ast.Sinewave) error {
	csave := g.cAllowed
	g.cAllowed = true
	channelSave := g.channelValue
	cStart, cLimit := g.channelRange(x.ChannelDependent)

	for c := cStart; c < cLimit; c++ {
		g.channelValue = c
		t := temp(x.TempTag[c])

		g.indent(t)
		g.printf("[2] = %s[3]*%s[1] - %s[0];   // sinewave update", t, t, t)
		if x.ChannelDependent || g.insideVector {
			g.printf(" [c=%d]", c)
		}
		g.printf("\n")

		g.indent(t)
		g.printf("[0] = %s[1];\n", t)
		g.indent(t)
		g.printf("[1] = %s[2];\n", t)
	}

	g.channelValue = channelSave
	g.cAllowed = csave
	return nil
}

func (g *generator) sawtoothPreSample(x *ast.Sawtooth) error {
	x.ChannelDependent = ast.IsChannelDependent(x)
	csave := g.cAllowed
	g.cAllowed = true
	channelSave := g.channelValue
	cStart, cLimit := g.channelRange(x.ChannelDependent)

	for c := cStart; c < cLimit; c++ {
		g.channelValue = c
		x.TempTag[c] = g.newTag()
		t := temp(x.TempTag[c])

		g.indent("double ")
		g.printf("%s[] = { 0, 4*SampleTime*(", t)
		if err := g.expr(x.Frequency); err != nil {
			return err
		}
		g.printf(") };   // sawtooth init")
		if x.ChannelDependent || g.insideVector {
			g.printf(" [c=%d]", c)
		}
		g.printf("\n")

		g.indent(t)
		g.printf("[0] -= %s[1];\n", t)
	}

	g.channelValue = channelSave
	g.cAllowed = csave

	if !x.ChannelDependent && !g.insideVector {
		for c := 1; c < g.prog.NumChannels; c++ {
			x.TempTag[c] = x.TempTag[0]
		}
	}
	return nil
}

func (g *generator) sawtoothPreChannel(x *ast.Sawtooth) error {
	csave := g.cAllowed
	g.cAllowed = true
	channelSave := g.channelValue
	cStart, cLimit := g.channelRange(x.ChannelDependent)

	for c := cStart; c < cLimit; c++ {
		g.channelValue = c
		t := temp(x.TempTag[c])

		g.indent(t)
		g.printf("[0] += %s[1];   // sawtooth update", t)
		if x.ChannelDependent || g.insideVector {
			g.printf(" [c=%d]", c)
		}
		g.printf("\n")

		g.indent("if ( ")
		g.printf("%s[0] > 1.0 )\n", t)
		g.indent("{\n")
		g.pushIndent()
		g.indent(t)
		g.printf("[1] = -%s[1];\n", t)
		g.indent(t)
		g.printf("[0] = 2.0 - %s[0];\n", t)
		g.popIndent()
		g.indent("}\n")
		g.indent("else if ( ")
		g.printf("%s[0] < -1.0 )\n", t)
		g.indent("{\n")
		g.pushIndent()
		g.indent(t)
		g.printf("[1] = -%s[1];\n", t)
		g.indent(t)
		g.printf("[0] = -2.0 - %s[0];\n", t)
		g.popIndent()
		g.indent("}\n")
	}

	g.channelValue = channelSave
	g.cAllowed = csave
	return nil
}

func (g *generator) iirPreSample(x *ast.IIR) error {
	if err := g.preSampleLoop(x.Input); err != nil {
		return err
	}

	x.TagXCoeff = g.newTag()
	g.indent("const double ")
	g.printf("%s[] = {    // iir x-coefficients\n", temp(x.TagXCoeff))
	g.pushIndent()
	for i, coeff := range x.XCoeffs {
		g.indent("")
		if err := g.expr(coeff); err != nil {
			return err
		}
		if i+1 < len(x.XCoeffs) {
			g.printf(",\n")
		}
	}
	g.printf(" };\n")
	g.popIndent()

	if len(x.YCoeffs) > 0 {
		x.TagYCoeff = g.newTag()
		g.indent("const double ")
		g.printf("%s[] = {    // iir y-coefficients\n", temp(x.TagYCoeff))
		g.pushIndent()
		for i, coeff := range x.YCoeffs {
			g.indent("")
			if err := g.expr(coeff); err != nil {
				return err
			}
			if i+1 < len(x.YCoeffs) {
				g.printf(",\n")
			}
		}
		g.printf(" };\n")
		g.popIndent()
	}

	for c := 0; c < g.prog.NumChannels; c++ {
		x.TagXBuf[c] = g.newTag()
		g.indent("double ")
		g.printf("%s[] = { ", temp(x.TagXBuf[c]))
		for k := range x.XCoeffs {
			if k > 0 {
				g.printf(", ")
			}
			g.printf("0")
		}
		g.printf(" };     // iir x-buffer [c=%d]\n", c)

		if len(x.YCoeffs) > 0 {
			x.TagYBuf[c] = g.newTag()
			g.indent("double ")
			g.printf("%s[] = { ", temp(x.TagYBuf[c]))
			for k := range x.YCoeffs {
				if k > 0 {
					g.printf(", ")
				}
				g.printf("0")
			}
			g.printf(" };     // iir y-buffer [c=%d]\n", c)
		}
	}

	x.TagXIndex = g.newTag()
	g.indent("int ")
	g.printf("%s = 0;   // iir x-index\n", temp(x.TagXIndex))

	if len(x.YCoeffs) > 0 {
		x.TagYIndex = g.newTag()
		g.indent("int ")
		g.printf("%s = 0;   // iir y-index\n", temp(x.TagYIndex))
	} else {
		x.TagYIndex = 0
	}
	return nil
}

func (g *generator) iirPreChannel(x *ast.IIR) error {
	if err := g.preChannelLoop(x.Input); err != nil {
		return err
	}

	xCount := len(x.XCoeffs)
	yCount := len(x.YCoeffs)
	xIndex := temp(x.TagXIndex)
	yIndex := temp(x.TagYIndex)
	numChannels := g.prog.NumChannels

	if xCount > 1 {
		if xCount == 2 {
			g.indent(xIndex)
			g.printf(" ^= 1;\n")
		} else {
			g.indent("if ( --")
			g.printf("%s < 0 )  %s = %d;\n", xIndex, xIndex, xCount-1)
		}
	}
	if yCount > 1 {
		if yCount == 2 {
			g.indent(yIndex)
			g.printf(" ^= 1;\n")
		} else {
			g.indent("if ( --")
			g.printf("%s < 0 )  %s = %d;\n", yIndex, yIndex, yCount-1)
		}
	}

	isave, csave := g.iAllowed, g.cAllowed
	g.iAllowed, g.cAllowed = true, true
	channelSave := g.channelValue
	for c := 0; c < numChannels; c++ {
		g.channelValue = c
		g.indent(tempPrefix)
		g.printf("%d[%s] = ", x.TagXBuf[c], xIndex)
		if err := g.expr(x.Input); err != nil {
			return err
		}
		g.printf(";\n")
	}
	g.channelValue = channelSave
	g.iAllowed, g.cAllowed = isave, csave

	x.TagAccum = g.newTag()
	accum := temp(x.TagAccum)
	g.indent("double ")
	g.printf("%s[] = { ", accum)
	for c := 0; c < numChannels; c++ {
		if c > 0 {
			g.printf(", ")
		}
		g.printf("0")
	}
	g.printf(" };   // iir accumulator\n")

	wrap := temp(g.newTag())
	if yCount > 1 || xCount > 1 {
		g.indent("int ")
		g.printf("%s = %s;    // iir wraparound index\n", wrap, xIndex)
	}

	counter := temp(g.newTag())
	if yCount > 1 || xCount > 1 {
		g.indent("int ")
		g.printf("%s;\n", counter)
	}

	if xCount == 1 {
		for c := 0; c < numChannels; c++ {
			g.indent(accum)
			g.printf("[%d] += %s[0] * %s[0];", c, temp(x.TagXBuf[c]), temp(x.TagXCoeff))
			if c == 0 {
				g.printf("    // iir x dot product")
			}
			g.printf("\n")
		}
	} else {
		g.indent("for ( ")
		g.printf("%s=0; %s<%d; ++%s )    // iir x dot product\n", counter, counter, xCount, counter)
		g.indent("{\n")
		g.pushIndent()
		for c := 0; c < numChannels; c++ {
			g.indent(accum)
			g.printf("[%d] += %s[%s] * %s[%s];\n", c, temp(x.TagXBuf[c]), wrap, temp(x.TagXCoeff), counter)
		}
		if xCount == 2 {
			g.indent(wrap)
			g.printf(" ^= 1;\n")
		} else {
			g.indent("if ( ++")
			g.printf("%s == %d )  %s = 0;\n", wrap, xCount, wrap)
		}
		g.popIndent()
		g.indent("}\n")
	}

	if yCount > 0 {
		if yCount == 1 {
			for c := 0; c < numChannels; c++ {
				g.indent(accum)
				g.printf("[%d] += %s[0] * %s[0];", c, temp(x.TagYBuf[c]), temp(x.TagYCoeff))
				if c == 0 {
					g.printf("    // iir y dot product")
				}
				g.printf("\n")
			}
		} else {
			g.indent("for ( ")
			g.printf("%s=%s, %s=0; %s < %d; ++%s )    // iir y dot product\n", wrap, yIndex, counter, counter, yCount, counter)
			g.indent("{\n")
			g.pushIndent()
			if yCount == 2 {
				g.indent(wrap)
				g.printf(" ^= 1;\n")
			} else {
				g.indent("if ( ++")
				g.printf("%s == %d )  %s = 0;\n", wrap, yCount, wrap)
			}
			for c := 0; c < numChannels; c++ {
				g.indent(accum)
				g.printf("[%d] += %s[%s] * %s[%s];\n", c, temp(x.TagYBuf[c]), wrap, temp(x.TagYCoeff), counter)
			}
			g.popIndent()
			g.indent("}\n")
		}

		for c := 0; c < numChannels; c++ {
			g.indent(tempPrefix)
			g.printf("%d[%s] = %s[%d];\n", x.TagYBuf[c], yIndex, accum, c)
		}
	}
	return nil
}
