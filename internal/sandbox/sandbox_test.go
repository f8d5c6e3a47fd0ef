package sandbox

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/traefik/yaegi/interp"
)

func bootReady(t *testing.T, exports interp.Exports) *Runtime {
	t.Helper()
	r := Boot(Options{ReadyDelay: 10 * time.Millisecond}, exports)
	if err := r.WaitReady(context.Background()); err != nil {
		t.Fatalf("WaitReady() failed: %v", err)
	}
	return r
}

func TestEvalAndCall(t *testing.T) {
	r := bootReady(t, nil)

	src := `package main

var Score = 7

func Init() { Score = 9 }
`
	if err := r.Eval("prog.gos", src); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}

	found, err := r.Call("Init")
	if err != nil || !found {
		t.Fatalf("Call(Init) = %v, %v", found, err)
	}

	n, ok := r.IntVar("Score")
	if !ok || n != 9 {
		t.Errorf("IntVar(Score) = %d, %v; expected 9, true", n, ok)
	}
}

func TestMissingEntryPoint(t *testing.T) {
	r := bootReady(t, nil)
	if err := r.Eval("prog.gos", "package main\n\nfunc Update() {}\n"); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}

	found, err := r.Call("Cleanup")
	if err != nil {
		t.Errorf("missing entry point should not error: %v", err)
	}
	if found {
		t.Error("Cleanup reported as found")
	}

	if _, ok := r.IntVar("Score"); ok {
		t.Error("absent Score reported as present")
	}
}

func TestNonNumericVar(t *testing.T) {
	r := bootReady(t, nil)
	if err := r.Eval("prog.gos", "package main\n\nvar Score = \"lots\"\n"); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if _, ok := r.IntVar("Score"); ok {
		t.Error("string Score should not be numeric")
	}
}

func TestBadEntryPointSignature(t *testing.T) {
	r := bootReady(t, nil)
	if err := r.Eval("prog.gos", "package main\n\nfunc Init(n int) {}\n"); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if _, err := r.Call("Init"); !errors.Is(err, ErrBadEntryPoint) {
		t.Errorf("Call() error = %v, expected ErrBadEntryPoint", err)
	}
}

func TestPanicBecomesError(t *testing.T) {
	r := bootReady(t, nil)
	if err := r.Eval("prog.gos", "package main\n\nfunc Update() { panic(\"boom\") }\n"); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}

	found, err := r.Call("Update")
	if !found {
		t.Fatal("Update should be found")
	}
	if err == nil {
		t.Fatal("expected error from panicking entry point")
	}
	if !strings.Contains(err.Error(), "Update") {
		t.Errorf("error %q should name the entry point", err)
	}
}

func TestEvalSyntaxError(t *testing.T) {
	r := bootReady(t, nil)
	err := r.Eval("broken.gos", "package main\n\nfunc {")
	if err == nil {
		t.Fatal("expected error for invalid source")
	}
	if !strings.Contains(err.Error(), "broken.gos") {
		t.Errorf("error %q should name the source", err)
	}
}

func TestForbiddenImport(t *testing.T) {
	r := bootReady(t, nil)
	src := "package main\n\nimport \"os\"\n\nfunc Init() { os.Exit(1) }\n"

	err := r.Eval("evil.gos", src)
	if !errors.Is(err, ErrForbiddenImport) {
		t.Fatalf("Eval() error = %v, expected ErrForbiddenImport", err)
	}
	if !strings.Contains(err.Error(), "os") {
		t.Errorf("error %q should name the package", err)
	}
}

func TestHostExports(t *testing.T) {
	var got int
	exports := interp.Exports{
		"testhost/testhost": {
			"Report": reflect.ValueOf(func(n int) { got = n }),
		},
	}
	r := bootReady(t, exports)

	src := `package main

import (
	"strings"

	"testhost"
)

func Init() { testhost.Report(len(strings.Repeat("ab", 3))) }
`
	if err := r.Eval("prog.gos", src); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if _, err := r.Call("Init"); err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if got != 6 {
		t.Errorf("host received %d, expected 6", got)
	}
}

func TestSequentialSources(t *testing.T) {
	r := bootReady(t, nil)

	support := "package main\n\nfunc double(n int) int { return n * 2 }\n"
	prog := "package main\n\nvar Score int\n\nfunc Init() { Score = double(21) }\n"

	if err := r.Eval("support.gos", support); err != nil {
		t.Fatalf("Eval(support) failed: %v", err)
	}
	if err := r.Eval("prog.gos", prog); err != nil {
		t.Fatalf("Eval(prog) failed: %v", err)
	}
	if _, err := r.Call("Init"); err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if n, _ := r.IntVar("Score"); n != 42 {
		t.Errorf("Score = %d, expected 42", n)
	}
}

func TestNotReady(t *testing.T) {
	r := &Runtime{opts: Options{ReadyAttempts: 3, ReadyDelay: time.Millisecond}.withDefaults()}

	if err := r.Eval("prog.gos", "package main\n"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Eval() error = %v, expected ErrNotReady", err)
	}

	start := time.Now()
	if err := r.WaitReady(context.Background()); !errors.Is(err, ErrInitTimeout) {
		t.Errorf("WaitReady() error = %v, expected ErrInitTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Error("WaitReady() exceeded its bound")
	}
}

func TestWaitReadyContext(t *testing.T) {
	r := &Runtime{opts: Options{ReadyAttempts: 100, ReadyDelay: time.Second}.withDefaults()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.WaitReady(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitReady() error = %v, expected context.Canceled", err)
	}
}

func TestIntVarReadsLiveValue(t *testing.T) {
	r := bootReady(t, nil)
	src := "package main\n\nvar Score = 1\n\nfunc Update() { Score += 5 }\n"
	if err := r.Eval("prog.gos", src); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}

	if n, ok := r.IntVar("Score"); !ok || n != 1 {
		t.Fatalf("IntVar(Score) = %d, %v; expected 1, true", n, ok)
	}
	for i := 0; i < 3; i++ {
		if _, err := r.Call("Update"); err != nil {
			t.Fatalf("Call(Update) failed: %v", err)
		}
	}
	if n, ok := r.IntVar("Score"); !ok || n != 16 {
		t.Errorf("IntVar(Score) = %d, %v; expected 16, true", n, ok)
	}
}

func TestIntVarFloat(t *testing.T) {
	r := bootReady(t, nil)
	src := "package main\n\nvar Score = 2.5\n\nfunc Init() { Score *= 3 }\n"
	if err := r.Eval("prog.gos", src); err != nil {
		t.Fatalf("Eval() failed: %v", err)
	}
	if _, err := r.Call("Init"); err != nil {
		t.Fatalf("Call(Init) failed: %v", err)
	}
	if n, ok := r.IntVar("Score"); !ok || n != 7 {
		t.Errorf("IntVar(Score) = %d, %v; expected 7, true", n, ok)
	}
}

func TestEvalFilesSharedImports(t *testing.T) {
	var got []int
	exports := interp.Exports{
		"testhost/testhost": {
			"Report": reflect.ValueOf(func(n int) { got = append(got, n) }),
		},
	}
	r := bootReady(t, exports)

	support := `package main

import (
	"strconv"

	"testhost"
)

func report(s string) {
	n, _ := strconv.Atoi(s)
	testhost.Report(n)
}
`
	prog := `package main

import (
	"strconv"

	"testhost"
)

func Init() {
	report("4")
	testhost.Report(len(strconv.Itoa(100)))
}
`
	err := r.EvalFiles(File{Name: "support.gos", Src: support}, File{Name: "prog.gos", Src: prog})
	if err != nil {
		t.Fatalf("EvalFiles() failed: %v", err)
	}
	if _, err := r.Call("Init"); err != nil {
		t.Fatalf("Call(Init) failed: %v", err)
	}
	if len(got) != 2 || got[0] != 4 || got[1] != 3 {
		t.Errorf("host received %v, expected [4 3]", got)
	}
}

func TestEvalFilesForbiddenImport(t *testing.T) {
	r := bootReady(t, nil)
	err := r.EvalFiles(
		File{Name: "support.gos", Src: "package main\n"},
		File{Name: "evil.gos", Src: "package main\n\nimport \"os\"\n\nfunc Init() { os.Exit(1) }\n"},
	)
	if !errors.Is(err, ErrForbiddenImport) {
		t.Fatalf("EvalFiles() error = %v, expected ErrForbiddenImport", err)
	}
	if !strings.Contains(err.Error(), "evil.gos") {
		t.Errorf("error %q should name the file", err)
	}
}

func TestJoin(t *testing.T) {
	a := "package main\n\nimport \"strings\"\n\nfunc up(s string) string { return strings.ToUpper(s) }\n"
	b := "package main\n\nimport (\n\t\"strings\"\n\tr \"math/rand\"\n)\n\nfunc pick() int { return r.Intn(len(strings.Repeat(\"x\", 2))) }"

	src, err := Join(File{Name: "a.gos", Src: a}, File{Name: "b.gos", Src: b})
	if err != nil {
		t.Fatalf("Join() failed: %v", err)
	}
	if n := strings.Count(src, "\"strings\""); n != 1 {
		t.Errorf("strings imported %d times:\n%s", n, src)
	}
	for _, want := range []string{"r \"math/rand\"", "//line a.gos:3", "//line b.gos:6", "func pick()"} {
		if !strings.Contains(src, want) {
			t.Errorf("joined source lacks %q:\n%s", want, src)
		}
	}

	if _, err := Join(File{Name: "lib.gos", Src: "package lib\n"}); err == nil {
		t.Error("expected error for a non-main package")
	}
}
