// Command sonic translates Sonic source programs into C++ against the
// Sonic runtime library.
package main

import (
	"fmt"
	"os"

	"github.com/eaburns/pretty"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"sonic/internal/ast"
	"sonic/internal/codegen"
	"sonic/internal/diag"
	"sonic/internal/parser"
	"sonic/internal/scan"
	"sonic/internal/validate"
)

var options struct {
	DumpAST bool `long:"dump-ast" description:"print the validated program representation instead of generating code"`
	Version bool `long:"version" description:"print translator version and exit"`

	Args struct {
		Sources []string `positional-arg-name:"source-file"`
	} `positional-args:"yes"`
}

func main() {
	rest, err := flags.Parse(&options)
	if err != nil {
		os.Exit(1)
	}
	if len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", rest[0])
		os.Exit(1)
	}

	fmt.Printf("Sonic/C++ translator\n")
	fmt.Printf("Version %s, released on %s.\n\n", codegen.Version, codegen.ReleaseDate)
	if options.Version {
		return
	}

	if len(options.Args.Sources) == 0 {
		fmt.Fprintf(os.Stderr, "Use:  sonic sourcefile [sourcefile...]\n\n")
		os.Exit(1)
	}

	os.Exit(run(options.Args.Sources, options.DumpAST))
}

func run(sources []string, dumpAST bool) int {
	prog, err := buildProgram(sources)
	if err == nil {
		if dumpAST {
			pretty.Indent = "    "
			pretty.Print(prog)
			fmt.Println("")
			return 0
		}
		err = translate(prog)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cleanupOutput(prog)
		return 1
	}
	fmt.Println("Translation completed successfully.")
	return 0
}

// buildProgram reads every source file, in order, into one program and
// validates the result as a whole.
func buildProgram(sources []string) (*ast.Program, error) {
	prog := ast.NewProgram()
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			wrapped := errors.Wrapf(err, "Cannot open source file '%s'", src)
			return prog, diag.New(diag.IO, wrapped.Error())
		}
		sc, err := scan.New(src, string(data))
		if err != nil {
			return prog, err
		}
		if err := parser.ParseFile(sc, prog); err != nil {
			return prog, err
		}
	}
	if err := validate.Program(prog); err != nil {
		return prog, err
	}
	return prog, nil
}

// translate generates the C++ translation unit and writes it into the
// current directory under the program's name. The output file is
// created up front and removed again if generation fails, so the user
// never sees a half-written translation.
func translate(prog *ast.Program) error {
	outName := codegen.Filename(prog)
	out, err := os.Create(outName)
	if err != nil {
		wrapped := errors.Wrapf(err, "Cannot open file '%s' for write", outName)
		return diag.New(diag.IO, wrapped.Error())
	}

	text, genErr := codegen.Generate(prog)
	if genErr == nil {
		_, genErr = out.Write(text)
	}
	closeErr := out.Close()
	if genErr != nil {
		os.Remove(outName)
		return genErr
	}
	if closeErr != nil {
		os.Remove(outName)
		return diag.New(diag.IO, closeErr.Error())
	}
	return nil
}

// cleanupOutput removes the output file, if any, after a failed
// translation.
func cleanupOutput(prog *ast.Program) {
	if prog == nil || prog.Body == nil {
		return
	}
	os.Remove(codegen.Filename(prog))
}
