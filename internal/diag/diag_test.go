package diag

import (
	"strings"
	"testing"

	"sonic/internal/source"
)

func TestErrorFormat(t *testing.T) {
	id, err := source.Intern("song.son")
	if err != nil {
		t.Fatal(err)
	}
	e := New(Syntax, "expected ';'").NearToken("}", source.Pos{File: id, Line: 12, Col: 3})
	got := e.Error()
	want := "Error: expected ';'\nSource file: 'song.son' line 12 column 3\nnear token '}'"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestErrorWithoutPosition(t *testing.T) {
	e := New(Semantic, "code contains no program body")
	if got := e.Error(); got != "Error: code contains no program body" {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(e.Error(), "near token") {
		t.Fatal("no near-token section expected")
	}
}

func TestKindStrings(t *testing.T) {
	for k, want := range map[Kind]string{IO: "io", Syntax: "syntax", Semantic: "semantic", Internal: "internal"} {
		if k.String() != want {
			t.Errorf("%v.String() = %q", k, k.String())
		}
	}
}
