package parser

// Intrinsic maps a Sonic mathematical function onto the name the
// generated program calls and the number of arguments it requires.
type Intrinsic struct {
	SonicName  string
	TargetName string
	NumParams  int
}

// The fixed intrinsic table. Lookup happens at parse time; a match
// produces a function-call node tagged intrinsic with its argument
// count verified immediately.
var intrinsicTable = []Intrinsic{
	// trig-related...
	{"sin", "sin", 1},
	{"sinh", "sinh", 1},
	{"cos", "cos", 1},
	{"cosh", "cosh", 1},
	{"tan", "tan", 1},
	{"tanh", "tanh", 1},
	{"acos", "acos", 1},
	{"asin", "asin", 1},
	{"atan", "atan", 1},
	{"atan2", "atan2", 2},

	// misc...
	{"abs", "fabs", 1},
	{"ceil", "ceil", 1},
	{"floor", "floor", 1},
	{"sqrt", "sqrt", 1},
	{"hypot", "_hypot", 2},
	{"square", "Sonic_Square", 1},
	{"cube", "Sonic_Cube", 1},
	{"quart", "Sonic_Quart", 1},
	{"recip", "Sonic_Recip", 1},
	{"noise", "Sonic_Noise", 1},

	// logarithmic/exponential...
	{"ln", "log", 1},
	{"log", "log10", 1},
	{"exp", "exp", 1},
	{"dB", "Sonic_dB", 1},
}

// FindIntrinsic returns the table entry for a Sonic name, or nil.
func FindIntrinsic(name string) *Intrinsic {
	for i := range intrinsicTable {
		if intrinsicTable[i].SonicName == name {
			return &intrinsicTable[i]
		}
	}
	return nil
}

// IsPseudoFunction reports whether a name belongs to one of the
// constructs that look like calls but compile to stateful loop code.
func IsPseudoFunction(name string) bool {
	switch name {
	case "sinewave", "sawtooth", "fft", "iir":
		return true
	}
	return false
}
