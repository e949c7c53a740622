package metrics

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/testutil"
)

func loadUnit(t *testing.T, src string) *source.Unit {
	t.Helper()
	u, err := source.FromBytes(context.Background(), "pkg/mod.py", "/abs/pkg/mod.py", []byte(testutil.Dedent(src)))
	if err != nil {
		t.Fatalf("FromBytes() failed: %v", err)
	}
	if u.ParseErr != nil {
		t.Fatalf("fixture does not parse: %v", u.ParseErr)
	}
	t.Cleanup(u.Close)
	return u
}

func function(t *testing.T, u *source.Unit, name string) shared.FunctionNode {
	t.Helper()
	for _, fn := range shared.Functions(u.Root()) {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %q not found", name)
	return shared.FunctionNode{}
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected int
	}{
		{"straight line", `
			def f():
			    return 1
		`, 1},
		{"if elif else", `
			def f(x):
			    if x:
			        return 1
			    elif x > 1:
			        return 2
			    else:
			        return 3
		`, 3},
		{"loops with and handlers", `
			def f(xs):
			    for x in xs:
			        while x:
			            with open(x) as fh:
			                try:
			                    fh.read()
			                except ValueError:
			                    pass
			                except (KeyError, OSError):
			                    pass
		`, 6},
		{"boolean chain", `
			def f(a, b, c):
			    return a and b or c
		`, 3},
		{"comprehension filters", `
			def f(xs):
			    ys = [x for x in xs if x if x > 1]
			    zs = {x: x for x in xs if x}
			    return any(x for x in xs if x)
		`, 5},
		{"async constructs", `
			async def f(xs):
			    async for x in xs:
			        async with x:
			            pass
		`, 3},
		{"nested def counts toward outer", `
			def outer():
			    def inner(x):
			        if x:
			            return 1
			    return inner
		`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := loadUnit(t, tt.src)
			fn := shared.Functions(u.Root())[0]
			if got := Complexity(fn); got != tt.expected {
				t.Errorf("Complexity(%s) = %d, want %d", fn.Name, got, tt.expected)
			}
		})
	}
}

func TestNesting(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected int
	}{
		{"flat", `
			def f():
			    return 1
		`, 0},
		{"while for if", `
			def f(xs):
			    while xs:
			        for x in xs:
			            if x:
			                pass
		`, 3},
		{"one more conditional", `
			def f(xs):
			    while xs:
			        for x in xs:
			            if x:
			                if x > 1:
			                    pass
		`, 4},
		{"try branches share depth", `
			def f():
			    try:
			        pass
			    except ValueError:
			        if True:
			            pass
			    finally:
			        pass
		`, 2},
		{"elif chain deepens", `
			def f(x):
			    if x == 1:
			        pass
			    elif x == 2:
			        pass
			    elif x == 3:
			        pass
			    else:
			        pass
		`, 3},
		{"else of plain if", `
			def f(x):
			    if x:
			        pass
			    else:
			        for y in x:
			            pass
		`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := loadUnit(t, tt.src)
			fn := shared.Functions(u.Root())[0]
			if got := Nesting(fn); got != tt.expected {
				t.Errorf("Nesting(%s) = %d, want %d", fn.Name, got, tt.expected)
			}
		})
	}
}

func bodyOf(statements int) string {
	var b strings.Builder
	b.WriteString("@decorator\ndef long():\n    \"\"\"Docstring that\n    spans lines.\n    \"\"\"\n")
	for i := 0; i < statements; i++ {
		fmt.Fprintf(&b, "    x%d = %d\n", i, i)
		if i%5 == 0 {
			b.WriteString("\n    # comment\n")
		}
	}
	return b.String()
}

func TestLogicalLines(t *testing.T) {
	tests := []struct {
		statements int
		expected   int
	}{
		{30, 30},
		{31, 31},
		{1, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d statements", tt.statements), func(t *testing.T) {
			u := loadUnit(t, bodyOf(tt.statements))
			fn := function(t, u, "long")
			if got := LogicalLines(fn, u.Lines); got != tt.expected {
				t.Errorf("LogicalLines(long) = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMeasure(t *testing.T) {
	u := loadUnit(t, `
		async def fetch(client):
		    # leading comment
		    if client and client.ready:
		        return await client.get()
		    return None
	`)
	m := Measure(function(t, u, "fetch"), u.Lines)

	if m.Name != "fetch" || !m.Async || m.Line != 1 || m.EndLine != 5 {
		t.Errorf("Measure() identity = %+v", m)
	}
	if m.Complexity != 3 || m.Nesting != 1 || m.LogicalLines != 3 {
		t.Errorf("Measure() = complexity %d nesting %d lines %d, want 3 1 3", m.Complexity, m.Nesting, m.LogicalLines)
	}
}

func TestFileLogicalLines(t *testing.T) {
	u := loadUnit(t, `
		"""Module docstring
		over two lines."""

		import os


		class Service:
		    '''Class doc.'''

		    def run(self):
		        """Run it."""
		        # nothing yet
		        return os.getcwd()
	`)

	if got := FileLogicalLines(u.Root(), u.Lines); got != 4 {
		t.Errorf("FileLogicalLines() = %d, want 4", got)
	}
}
