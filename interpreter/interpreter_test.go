package interpreter

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"lox/lexer"
	"lox/parser"
	"lox/resolver"
)

// run scans, parses, resolves and interprets source, capturing whatever it
// prints to stdout. It fails the test immediately on any pipeline error,
// since these tests are about interpreter behavior, not error recovery.
func run(t *testing.T, source string) string {
	t.Helper()

	tokens, lexErrs := lexer.New(source).Scan()
	if len(lexErrs) != 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}

	statements, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}

	if resolveErrs := resolver.New().Resolve(statements); len(resolveErrs) != 0 {
		t.Fatalf("resolve errors: %v", resolveErrs)
	}

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	Make().Interpret(statements)

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func lines(output string) []string {
	trimmed := strings.TrimRight(output, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestInterpret_ArithmeticAndPrint(t *testing.T) {
	out := run(t, `print 1 + 2 * 3;`)
	if got := lines(out); len(got) != 1 || got[0] != "7" {
		t.Fatalf("got %q, want [7]", out)
	}
}

func TestInterpret_StringConcatenation(t *testing.T) {
	out := run(t, `print "foo" + "bar";`)
	if got := lines(out); len(got) != 1 || got[0] != "foobar" {
		t.Fatalf("got %q, want [foobar]", out)
	}
}

func TestInterpret_BlockScopingShadowsOuterVariable(t *testing.T) {
	src := `
	var x = "outer";
	{
		var x = "inner";
		print x;
	}
	print x;
	`
	out := run(t, src)
	want := []string{"inner", "outer"}
	got := lines(out)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInterpret_WhileLoop(t *testing.T) {
	src := `
	var i = 0;
	while (i < 3) {
		print i;
		i = i + 1;
	}
	`
	out := run(t, src)
	want := []string{"0", "1", "2"}
	got := lines(out)
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInterpret_ForLoopDesugaring(t *testing.T) {
	src := `
	for (var i = 0; i < 3; i = i + 1) {
		print i;
	}
	`
	out := run(t, src)
	want := []string{"0", "1", "2"}
	got := lines(out)
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestInterpret_NestedFunctionRetainsClosureState mirrors a counter closure:
// a makeCounter function returns a function whose own local state persists
// across separate calls because both share the environment makeCounter
// opened when it ran.
func TestInterpret_NestedFunctionRetainsClosureState(t *testing.T) {
	src := `
	fun makeCounter() {
		var count = 0;
		fun increment() {
			count = count + 1;
			return count;
		}
		return increment;
	}

	var counter = makeCounter();
	print counter();
	print counter();
	print counter();
	`
	out := run(t, src)
	want := []string{"1", "2", "3"}
	got := lines(out)
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInterpret_RecursiveFunction(t *testing.T) {
	src := `
	fun fib(n) {
		if (n < 2) return n;
		return fib(n - 1) + fib(n - 2);
	}
	print fib(8);
	`
	out := run(t, src)
	if got := lines(out); len(got) != 1 || got[0] != "21" {
		t.Fatalf("got %q, want [21]", out)
	}
}

func TestInterpret_ClassInstanceFieldsAndMethods(t *testing.T) {
	src := `
	class Box {
		init(value) {
			this.value = value;
		}
		peek() {
			return this.value;
		}
	}

	var b = Box(41);
	print b.peek();
	b.value = 99;
	print b.peek();
	`
	out := run(t, src)
	want := []string{"41", "99"}
	got := lines(out)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInterpret_BoundMethodKeepsItsOwnInstance(t *testing.T) {
	src := `
	class Box {
		init(value) {
			this.value = value;
		}
		peek() {
			return this.value;
		}
	}

	var a = Box(1);
	var b = Box(2);
	var peekA = a.peek;
	var peekB = b.peek;
	print peekA();
	print peekB();
	`
	out := run(t, src)
	want := []string{"1", "2"}
	got := lines(out)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInterpret_LogicalOperatorsShortCircuit(t *testing.T) {
	src := `
	fun loud(x) {
		print x;
		return x;
	}
	print false and loud("never");
	print true or loud("never");
	`
	out := run(t, src)
	want := []string{"false", "true"}
	got := lines(out)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInterpret_NativeClockIsCallableWithNoArguments(t *testing.T) {
	out := run(t, `print clock() >= 0;`)
	if got := lines(out); len(got) != 1 || got[0] != "true" {
		t.Fatalf("got %q, want [true]", out)
	}
}

func TestInterpret_NativeModComputesRemainder(t *testing.T) {
	out := run(t, `print mod(10, 3);`)
	if got := lines(out); len(got) != 1 || got[0] != "1" {
		t.Fatalf("got %q, want [1]", out)
	}
}
