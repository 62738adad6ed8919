package ast

import "sonic/internal/scan"

// Expr is one node of an expression tree. Every node carries its first
// token for error reporting. Variable, Call, and ArraySubscript nodes
// get their types from the validator and report an undefined type until
// then; every other kind derives its type from its token or children,
// so it reports a type already after parsing.
type Expr interface {
	exprNode()
	FirstToken() scan.Token
	Type() Type
	// Precedence drives parenthesization when the code generator
	// re-renders the tree. Atoms are 100, unary operators 50, binary
	// operators their parse level.
	Precedence() int
}

// Constant is a numeric or string literal. Its type is known at parse
// time.
type Constant struct {
	Tok scan.Token
	Typ Type
}

func (*Constant) exprNode()                 {}
func (e *Constant) FirstToken() scan.Token  { return e.Tok }
func (e *Constant) Type() Type              { return e.Typ }
func (e *Constant) Precedence() int         { return 100 }

// Variable is a simple name reference; Decl is resolved by the
// validator.
type Variable struct {
	Name scan.Token
	Typ  Type
	Decl *VarDecl
}

func (*Variable) exprNode()                {}
func (e *Variable) FirstToken() scan.Token { return e.Name }
func (e *Variable) Type() Type             { return e.Typ }
func (e *Variable) Precedence() int        { return 100 }

// BuiltinRef references one of the builtin symbols (i, c, pi, e, r, t,
// true, false, m, n, interpolate).
type BuiltinRef struct {
	Name scan.Token
}

func (*BuiltinRef) exprNode()                {}
func (e *BuiltinRef) FirstToken() scan.Token { return e.Name }
func (e *BuiltinRef) Precedence() int        { return 100 }

func (e *BuiltinRef) Type() Type {
	switch e.Name.Lexeme {
	case "true", "false", "interpolate":
		return Simple(TypeBoolean)
	case "pi", "e", "t":
		return Simple(TypeReal)
	case "i", "c", "r", "n", "m":
		return Simple(TypeInteger)
	}
	return Simple(TypeUndefined)
}

// Vector is a brace-enclosed channel tuple { e1, ..., ek }.
type Vector struct {
	LBrace scan.Token
	Elems  []Expr
}

func (*Vector) exprNode()                {}
func (e *Vector) FirstToken() scan.Token { return e.LBrace }
func (e *Vector) Type() Type             { return Simple(TypeVector) }
func (e *Vector) Precedence() int        { return 100 }

// WaveSample is name[cterm, iterm]: one sample of one channel of a
// wave.
type WaveSample struct {
	WaveName scan.Token
	CTerm    Expr
	ITerm    Expr
	Decl     *VarDecl
}

func (*WaveSample) exprNode()                {}
func (e *WaveSample) FirstToken() scan.Token { return e.WaveName }
func (e *WaveSample) Type() Type             { return Simple(TypeReal) }
func (e *WaveSample) Precedence() int        { return 100 }

// WaveField is name.field for field in {r, m, n, max, interpolate}.
type WaveField struct {
	VarName scan.Token
	Field   scan.Token
}

func (*WaveField) exprNode()                {}
func (e *WaveField) FirstToken() scan.Token { return e.VarName }
func (e *WaveField) Precedence() int        { return 100 }

func (e *WaveField) Type() Type {
	if e.Field.Is("max") {
		return Simple(TypeReal)
	}
	return Simple(TypeInteger)
}

// OldData is the '$' placeholder: the prior value of the sample being
// assigned.
type OldData struct {
	Dollar scan.Token
}

func (*OldData) exprNode()                {}
func (e *OldData) FirstToken() scan.Token { return e.Dollar }
func (e *OldData) Type() Type             { return Simple(TypeReal) }
func (e *OldData) Precedence() int        { return 100 }

type FuncKind int

const (
	FuncUser FuncKind = iota
	FuncIntrinsic
	FuncImport
)

// Call is a function call. For intrinsics the name token already holds
// the target-language name and Typ is real; for user calls the
// validator resolves Callee and adopts its return type; import-object
// calls are retagged FuncImport during validation.
type Call struct {
	Name   scan.Token
	Args   []Expr
	FKind  FuncKind
	Typ    Type
	Callee *Function
}

func (*Call) exprNode()                {}
func (e *Call) FirstToken() scan.Token { return e.Name }
func (e *Call) Type() Type             { return e.Typ }
func (e *Call) Precedence() int        { return 100 }

// Binary covers both the math operators (+ - * / % ^) and the
// boolean/relational operators (| & == != <> < <= > >=). BoolResult
// distinguishes the two families; NeedBoolOperands is set for | and &.
type Binary struct {
	Op               scan.Token
	L, R             Expr
	BoolResult       bool
	NeedBoolOperands bool
}

func (*Binary) exprNode()                {}
func (e *Binary) FirstToken() scan.Token { return e.L.FirstToken() }

func (e *Binary) Type() Type {
	if e.BoolResult {
		return Simple(TypeBoolean)
	}
	if e.L.Type().Is(TypeReal) || e.R.Type().Is(TypeReal) {
		return Simple(TypeReal)
	}
	return Simple(TypeInteger)
}

func (e *Binary) Precedence() int { return OperatorPrecedence(e.Op.Lexeme) }

// GroupsRight reports whether equal-precedence neighbors on the right
// need parentheses when re-rendered (the non-commutative operators).
func (e *Binary) GroupsRight() bool {
	switch e.Op.Lexeme {
	case "-", "/", "%":
		return true
	}
	return false
}

// OperatorPrecedence: higher binds tighter.
func OperatorPrecedence(op string) int {
	switch op {
	case "|":
		return 1
	case "&":
		return 2
	case "==", "!=", "<>", "<", "<=", ">", ">=":
		return 3
	case "+", "-":
		return 10
	case "*", "/", "%":
		return 11
	case "^":
		return 12
	}
	return 0
}

// Unary is '-' (negate) or '!' (not).
type Unary struct {
	Op    scan.Token
	Child Expr
}

func (*Unary) exprNode()                {}
func (e *Unary) FirstToken() scan.Token { return e.Op }
func (e *Unary) Precedence() int        { return 50 }

func (e *Unary) Type() Type {
	if e.Op.Is("!") {
		return Simple(TypeBoolean)
	}
	return e.Child.Type()
}

// Sinewave is the sinewave(amplitude, frequencyHz, phaseDeg)
// pseudo-function. TempTag records, per channel, the temporary that
// holds the oscillator recurrence state during code generation.
type Sinewave struct {
	Tok       scan.Token
	Amplitude Expr
	Frequency Expr
	Phase     Expr

	ChannelDependent bool
	TempTag          [MaxChannels]int
}

func (*Sinewave) exprNode()                {}
func (e *Sinewave) FirstToken() scan.Token { return e.Tok }
func (e *Sinewave) Type() Type             { return Simple(TypeReal) }
func (e *Sinewave) Precedence() int        { return 100 }

// Sawtooth is the sawtooth(frequencyHz) pseudo-function.
type Sawtooth struct {
	Tok       scan.Token
	Frequency Expr

	ChannelDependent bool
	TempTag          [MaxChannels]int
}

func (*Sawtooth) exprNode()                {}
func (e *Sawtooth) FirstToken() scan.Token { return e.Tok }
func (e *Sawtooth) Type() Type             { return Simple(TypeReal) }
func (e *Sawtooth) Precedence() int        { return 100 }

// FFT is the fft(input, size, xferFuncName, freqShift)
// pseudo-function: an overlap-add filter defined by a user transfer
// function.
type FFT struct {
	Tok       scan.Token
	Input     Expr
	Size      Expr
	FreqShift Expr
	FuncName  scan.Token

	Xfer    *Function
	TempTag int
}

func (*FFT) exprNode()                {}
func (e *FFT) FirstToken() scan.Token { return e.Tok }
func (e *FFT) Type() Type             { return Simple(TypeReal) }
func (e *FFT) Precedence() int        { return 100 }

// IIR is the iir({x...},{y...}, input) pseudo-function: a direct-form
// recursive filter whose delay lines the code generator materializes.
type IIR struct {
	Tok     scan.Token
	XCoeffs []Expr
	YCoeffs []Expr
	Input   Expr

	TagXCoeff int
	TagYCoeff int
	TagXIndex int
	TagYIndex int
	TagXBuf   [MaxChannels]int
	TagYBuf   [MaxChannels]int
	TagAccum  int
}

func (*IIR) exprNode()                {}
func (e *IIR) FirstToken() scan.Token { return e.Tok }
func (e *IIR) Type() Type             { return Simple(TypeReal) }
func (e *IIR) Precedence() int        { return 100 }

// ArraySubscript is name[e1,...,en] on an array variable.
type ArraySubscript struct {
	Name    scan.Token
	Indexes []Expr
	Typ     Type
	Decl    *VarDecl
}

func (*ArraySubscript) exprNode()                {}
func (e *ArraySubscript) FirstToken() scan.Token { return e.Name }
func (e *ArraySubscript) Type() Type             { return e.Typ }
func (e *ArraySubscript) Precedence() int        { return 100 }

// Walk calls fn for e and every expression beneath it, parents first.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case *Vector:
		for _, c := range x.Elems {
			Walk(c, fn)
		}
	case *WaveSample:
		Walk(x.CTerm, fn)
		Walk(x.ITerm, fn)
	case *Call:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	case *Binary:
		Walk(x.L, fn)
		Walk(x.R, fn)
	case *Unary:
		Walk(x.Child, fn)
	case *Sinewave:
		Walk(x.Amplitude, fn)
		Walk(x.Frequency, fn)
		Walk(x.Phase, fn)
	case *Sawtooth:
		Walk(x.Frequency, fn)
	case *FFT:
		Walk(x.Input, fn)
		Walk(x.Size, fn)
	case *IIR:
		for _, c := range x.XCoeffs {
			Walk(c, fn)
		}
		for _, c := range x.YCoeffs {
			Walk(c, fn)
		}
		Walk(x.Input, fn)
	case *ArraySubscript:
		for _, ix := range x.Indexes {
			Walk(ix, fn)
		}
	}
}

// IsChannelDependent reports whether evaluating e at a fixed time
// index can produce different values on different channels: true when
// any subexpression mentions the channel builtin 'c', the old-data
// placeholder, or an iir construct.
func IsChannelDependent(e Expr) bool {
	dependent := false
	Walk(e, func(n Expr) {
		switch x := n.(type) {
		case *BuiltinRef:
			if x.Name.Is("c") {
				dependent = true
			}
		case *OldData, *IIR:
			dependent = true
		}
	})
	return dependent
}

// WaveRefs accumulates the distinct wave names referenced by e,
// counting wave-sample occurrences. '$' registers under its own
// lexeme, as the original translator did, so callers can detect
// modify-mode; it does not count as an occurrence. The fft size
// expression participates (it may read a wave's field), the
// coefficient lists of iir do not.
func WaveRefs(e Expr, names *[]scan.Token, occurrences *int) {
	add := func(t scan.Token) {
		for _, have := range *names {
			if have.Lexeme == t.Lexeme {
				return
			}
		}
		*names = append(*names, t)
	}
	switch x := e.(type) {
	case *WaveSample:
		add(x.WaveName)
		*occurrences++
	case *WaveField:
		add(x.VarName)
	case *OldData:
		add(x.Dollar)
	case *Vector:
		for _, c := range x.Elems {
			WaveRefs(c, names, occurrences)
		}
	case *Call:
		for _, a := range x.Args {
			WaveRefs(a, names, occurrences)
		}
	case *Binary:
		WaveRefs(x.L, names, occurrences)
		WaveRefs(x.R, names, occurrences)
	case *Unary:
		WaveRefs(x.Child, names, occurrences)
	case *FFT:
		WaveRefs(x.Input, names, occurrences)
		WaveRefs(x.Size, names, occurrences)
	case *IIR:
		WaveRefs(x.Input, names, occurrences)
	case *ArraySubscript:
		for _, ix := range x.Indexes {
			WaveRefs(ix, names, occurrences)
		}
	}
}
