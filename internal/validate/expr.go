package validate

import (
	"sonic/internal/ast"
	"sonic/internal/diag"
)

// expr validates one expression tree, resolving references and filling
// in inferred types bottom-up.
func (c *checker) expr(e ast.Expr, fn *ast.Function) error {
	switch x := e.(type) {
	case *ast.Constant, *ast.BuiltinRef, *ast.OldData:
		return nil

	case *ast.Variable:
		decl, err := c.prog.FindSymbol(x.Name, fn, true)
		if err != nil {
			return err
		}
		x.Decl = decl
		x.Typ = decl.Typ
		return nil

	case *ast.Vector:
		numChannels := c.prog.NumChannels
		for i, elem := range x.Elems {
			if i >= numChannels {
				return c.errAt(elem, "too many vector components")
			}
			if err := c.expr(elem, fn); err != nil {
				return err
			}
			if !elem.Type().IsNumeric() {
				return c.errAt(elem, "vector component expression must have numeric type")
			}
		}
		if len(x.Elems) < numChannels {
			return diag.New(diag.Semantic, "too few vector components").NearToken(x.LBrace.Lexeme, x.LBrace.Pos)
		}
		return nil

	case *ast.WaveSample:
		decl, err := c.prog.FindSymbol(x.WaveName, fn, true)
		if err != nil {
			return err
		}
		if !decl.Typ.Is(ast.TypeWave) {
			return diag.New(diag.Semantic, "subscript '[c,i]' allowed only on variable of wave type").
				NearToken(x.WaveName.Lexeme, x.WaveName.Pos)
		}
		x.Decl = decl
		if err := c.expr(x.CTerm, fn); err != nil {
			return err
		}
		if !ast.CanConvert(x.CTerm.Type(), ast.Simple(ast.TypeInteger)) {
			return c.errAt(x.CTerm, "channel term must be of numeric type")
		}
		if err := c.expr(x.ITerm, fn); err != nil {
			return err
		}
		if !ast.CanConvert(x.ITerm.Type(), ast.Simple(ast.TypeReal)) {
			return c.errAt(x.ITerm, "index term must be of numeric type")
		}
		return nil

	case *ast.WaveField:
		decl, err := c.prog.FindSymbol(x.VarName, fn, true)
		if err != nil {
			return err
		}
		if !decl.Typ.Is(ast.TypeWave) {
			return diag.New(diag.Semantic, "field access allowed only on variable of wave type").
				NearToken(x.VarName.Lexeme, x.VarName.Pos)
		}
		return nil

	case *ast.Call:
		return c.call(x, fn)

	case *ast.Binary:
		return c.binary(x, fn)

	case *ast.Unary:
		if err := c.expr(x.Child, fn); err != nil {
			return err
		}
		if x.Op.Is("!") {
			if !x.Child.Type().Is(ast.TypeBoolean) {
				return diag.New(diag.Semantic, "operand of '!' must have boolean type").NearToken(x.Op.Lexeme, x.Op.Pos)
			}
			return nil
		}
		if !x.Child.Type().IsNumeric() {
			return diag.New(diag.Semantic, "operand of unary '-' must have numeric type").NearToken(x.Op.Lexeme, x.Op.Pos)
		}
		return nil

	case *ast.Sinewave:
		if err := c.requireReal(x.Amplitude, fn, "cannot convert amplitude expression to type 'real'"); err != nil {
			return err
		}
		if err := c.requireReal(x.Frequency, fn, "cannot convert frequency expression to type 'real'"); err != nil {
			return err
		}
		return c.requireReal(x.Phase, fn, "cannot convert phase expression to type 'real'")

	case *ast.Sawtooth:
		return c.requireReal(x.Frequency, fn, "cannot convert frequency expression to type 'real'")

	case *ast.FFT:
		return c.fft(x, fn)

	case *ast.IIR:
		for _, coeff := range x.XCoeffs {
			if err := c.requireReal(coeff, fn, "cannot convert filter x-coefficient to type 'real'"); err != nil {
				return err
			}
		}
		for _, coeff := range x.YCoeffs {
			if err := c.requireReal(coeff, fn, "cannot convert filter y-coefficient to type 'real'"); err != nil {
				return err
			}
		}
		return c.requireReal(x.Input, fn, "cannot convert filter input expression to type 'real'")

	case *ast.ArraySubscript:
		decl, err := c.prog.FindSymbol(x.Name, fn, true)
		if err != nil {
			return err
		}
		if !decl.Typ.Is(ast.TypeArray) {
			return diag.New(diag.Semantic, "cannot subscript variable of this type").NearToken(x.Name.Lexeme, x.Name.Pos)
		}
		if len(x.Indexes) != len(decl.Typ.Dims) {
			return diag.New(diag.Semantic, "wrong number of array subscripts").NearToken(x.Name.Lexeme, x.Name.Pos)
		}
		for _, ix := range x.Indexes {
			if err := c.expr(ix, fn); err != nil {
				return err
			}
			if !ast.CanConvert(ix.Type(), ast.Simple(ast.TypeInteger)) {
				return c.errAt(ix, "array subscript must have numeric type")
			}
		}
		x.Decl = decl
		x.Typ = ast.Simple(decl.Typ.Elem)
		return nil
	}

	return diag.New(diag.Internal, "unknown expression kind")
}

func (c *checker) binary(x *ast.Binary, fn *ast.Function) error {
	if err := c.expr(x.L, fn); err != nil {
		return err
	}
	if err := c.expr(x.R, fn); err != nil {
		return err
	}
	ltype := x.L.Type()
	rtype := x.R.Type()

	if !x.BoolResult {
		if !ltype.IsNumeric() {
			return diag.New(diag.Semantic, "left operand must have numeric type").NearToken(x.Op.Lexeme, x.Op.Pos)
		}
		if !rtype.IsNumeric() {
			return diag.New(diag.Semantic, "right operand must have numeric type").NearToken(x.Op.Lexeme, x.Op.Pos)
		}
		return nil
	}

	if x.NeedBoolOperands {
		if !ltype.Is(ast.TypeBoolean) {
			return diag.New(diag.Semantic, "left operand must have boolean type").NearToken(x.Op.Lexeme, x.Op.Pos)
		}
		if !rtype.Is(ast.TypeBoolean) {
			return diag.New(diag.Semantic, "right operand must have boolean type").NearToken(x.Op.Lexeme, x.Op.Pos)
		}
		return nil
	}

	if ltype.Is(ast.TypeWave) {
		return diag.New(diag.Semantic, "left operand may not be of type 'wave'").NearToken(x.Op.Lexeme, x.Op.Pos)
	}
	if rtype.Is(ast.TypeWave) {
		return diag.New(diag.Semantic, "right operand may not be of type 'wave'").NearToken(x.Op.Lexeme, x.Op.Pos)
	}
	if !ast.CanConvert(rtype, ltype) {
		return diag.New(diag.Semantic, "operands of comparison have incompatible types").NearToken(x.Op.Lexeme, x.Op.Pos)
	}
	return nil
}

func (c *checker) call(x *ast.Call, fn *ast.Function) error {
	if x.FKind == ast.FuncIntrinsic {
		// All intrinsics take real arguments and return real.
		for _, arg := range x.Args {
			if err := c.requireReal(arg, fn, "cannot convert intrinsic function parameter to type 'real'"); err != nil {
				return err
			}
		}
		x.Typ = ast.Simple(ast.TypeReal)
		return nil
	}

	imp, err := c.prog.FindImportVar(x.Name, fn)
	if err != nil {
		return err
	}
	if imp != nil {
		// Import functions accept any arguments and return real; the
		// generated code's compiler checks the rest.
		for _, arg := range x.Args {
			if err := c.expr(arg, fn); err != nil {
				return err
			}
		}
		x.FKind = ast.FuncImport
		x.Typ = ast.Simple(ast.TypeReal)
		return nil
	}

	callee, err := c.prog.FindFunction(x.Name)
	if err != nil {
		return err
	}
	x.Callee = callee
	x.FKind = ast.FuncUser
	x.Typ = callee.ReturnType

	if len(x.Args) > len(callee.Params) {
		return diag.New(diag.Semantic, "too many parameters to function").NearToken(x.Name.Lexeme, x.Name.Pos)
	}
	if len(x.Args) < len(callee.Params) {
		return diag.New(diag.Semantic, "not enough parameters to function").NearToken(x.Name.Lexeme, x.Name.Pos)
	}
	for i, arg := range x.Args {
		if err := c.expr(arg, fn); err != nil {
			return err
		}
		parm := callee.Params[i]
		if parm.Typ.Reference {
			// Reference arguments must be plain variables of the
			// identical type, not merely a convertible one.
			if _, ok := arg.(*ast.Variable); !ok {
				return c.errAt(arg, "Must pass a variable as reference argument to function")
			}
			argType := arg.Type()
			argType.Reference = false
			parmType := parm.Typ
			parmType.Reference = false
			if !argType.Equal(parmType) {
				return c.errAt(arg, "Variable type does not match function argument type")
			}
		} else if !ast.CanConvert(arg.Type(), parm.Typ) {
			return c.errAt(arg, "cannot convert expression to function parameter type")
		}
	}
	return nil
}

// fft checks the pseudo-function's arguments and that the transfer
// function has the required prototype:
//
//	function f ( real, real&, real& ) : void
func (c *checker) fft(x *ast.FFT, fn *ast.Function) error {
	if err := c.requireReal(x.Input, fn, "cannot convert fft input expression to type 'real'"); err != nil {
		return err
	}
	if err := c.expr(x.Size, fn); err != nil {
		return err
	}
	if !ast.CanConvert(x.Size.Type(), ast.Simple(ast.TypeInteger)) {
		return c.errAt(x.Size, "cannot convert fft size expression to type 'integer'")
	}

	xfer, err := c.prog.FindFunction(x.FuncName)
	if err != nil {
		return diag.New(diag.Semantic, "symbol not defined or is not a function").NearToken(x.FuncName.Lexeme, x.FuncName.Pos)
	}
	if len(xfer.Params) != 3 {
		return diag.New(diag.Semantic, "fft transfer function must accept 3 parameters").NearToken(x.FuncName.Lexeme, x.FuncName.Pos)
	}
	if !xfer.ReturnType.Is(ast.TypeVoid) {
		return diag.New(diag.Semantic, "fft transfer function must not return a value").NearToken(x.FuncName.Lexeme, x.FuncName.Pos)
	}
	p0, p1, p2 := xfer.Params[0], xfer.Params[1], xfer.Params[2]
	if !p0.Typ.Is(ast.TypeReal) || p0.Typ.Reference {
		return diag.New(diag.Semantic, "first parm of transfer function must be of type 'real'").NearToken(x.FuncName.Lexeme, x.FuncName.Pos)
	}
	if !p1.Typ.Is(ast.TypeReal) || !p1.Typ.Reference {
		return diag.New(diag.Semantic, "second parm of transfer function must be of type 'real &'").NearToken(x.FuncName.Lexeme, x.FuncName.Pos)
	}
	if !p2.Typ.Is(ast.TypeReal) || !p2.Typ.Reference {
		return diag.New(diag.Semantic, "third parm of transfer function must be of type 'real &'").NearToken(x.FuncName.Lexeme, x.FuncName.Pos)
	}
	x.Xfer = xfer

	return c.requireReal(x.FreqShift, fn, "cannot convert fft frequency shift expression to type 'real'")
}
