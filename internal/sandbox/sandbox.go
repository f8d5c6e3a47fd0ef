// Package sandbox wraps the yaegi Go interpreter as an opaque execution
// environment for game programs.
//
// Programs only see the stdlib packages on the allowlist plus the host
// package injected by the caller. Filesystem, network and process access
// are not importable.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"path"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Readiness polling defaults.
const (
	DefaultReadyAttempts = 50
	DefaultReadyDelay    = 100 * time.Millisecond
)

var (
	// ErrInitTimeout is returned when the interpreter does not report ready
	// within the bounded number of polls.
	ErrInitTimeout = errors.New("sandbox: interpreter init timed out")
	// ErrNotReady is returned by Eval and Lookup before the runtime is ready.
	ErrNotReady = errors.New("sandbox: runtime not ready")
	// ErrForbiddenImport is returned when a program imports a package outside the allowlist.
	ErrForbiddenImport = errors.New("sandbox: forbidden import")
	// ErrBadEntryPoint is returned when an entry point exists with the wrong signature.
	ErrBadEntryPoint = errors.New("sandbox: entry point has wrong signature")
)

// DefaultAllowed lists the stdlib packages programs may import.
var DefaultAllowed = []string{
	"fmt",
	"math",
	"math/rand",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode",
	"unicode/utf8",
}

// Options configures a runtime.
type Options struct {
	// ReadyAttempts and ReadyDelay bound WaitReady.
	ReadyAttempts int
	ReadyDelay    time.Duration
	// Allowed overrides DefaultAllowed when non-empty.
	Allowed []string
	// Stdout receives program prints. Discarded when nil.
	Stdout io.Writer
}

func (o Options) withDefaults() Options {
	if o.ReadyAttempts <= 0 {
		o.ReadyAttempts = DefaultReadyAttempts
	}
	if o.ReadyDelay <= 0 {
		o.ReadyDelay = DefaultReadyDelay
	}
	if len(o.Allowed) == 0 {
		o.Allowed = DefaultAllowed
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	return o
}

// Runtime is one interpreter instance. Boot creates it asynchronously;
// callers wait for readiness before evaluating code. A Runtime is not safe
// for concurrent evaluation: callers serialize Eval and entry point calls.
type Runtime struct {
	opts    Options
	allowed map[string]bool
	host    map[string]bool

	mu      sync.Mutex
	ready   bool
	bootErr error
	interp  *interp.Interpreter
	getters map[string]func() float64
}

// Boot starts creating an interpreter in the background. exports carries
// the host packages made importable alongside the allowed stdlib.
func Boot(opts Options, exports interp.Exports) *Runtime {
	opts = opts.withDefaults()
	r := &Runtime{
		opts:    opts,
		allowed: make(map[string]bool, len(opts.Allowed)),
		host:    make(map[string]bool, len(exports)),
	}
	for _, p := range opts.Allowed {
		r.allowed[p] = true
	}
	for key := range exports {
		r.host[importPath(key)] = true
	}

	go r.boot(exports)
	return r
}

func (r *Runtime) boot(exports interp.Exports) {
	i := interp.New(interp.Options{Stdout: r.opts.Stdout, Stderr: r.opts.Stdout})

	err := i.Use(r.filteredStdlib())
	if err == nil && len(exports) > 0 {
		err = i.Use(exports)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.bootErr = fmt.Errorf("sandbox: load symbols: %w", err)
		return
	}
	r.interp = i
	r.ready = true
}

// filteredStdlib keeps only the allowlisted packages of stdlib.Symbols.
func (r *Runtime) filteredStdlib() interp.Exports {
	out := make(interp.Exports)
	for key, syms := range stdlib.Symbols {
		if r.allowed[importPath(key)] {
			out[key] = syms
		}
	}
	return out
}

// importPath strips the trailing package name from an Exports key
// ("math/rand/rand" becomes "math/rand").
func importPath(key string) string {
	return path.Dir(key)
}

// Ready reports whether the interpreter is usable.
func (r *Runtime) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// WaitReady polls readiness with the configured bound.
func (r *Runtime) WaitReady(ctx context.Context) error {
	for attempt := 0; attempt < r.opts.ReadyAttempts; attempt++ {
		r.mu.Lock()
		ready, bootErr := r.ready, r.bootErr
		r.mu.Unlock()

		if bootErr != nil {
			return bootErr
		}
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.ReadyDelay):
		}
	}
	if r.Ready() {
		return nil
	}
	return ErrInitTimeout
}

func (r *Runtime) interpreter() (*interp.Interpreter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return nil, ErrNotReady
	}
	return r.interp, nil
}

// Validate checks src parses and only imports allowed packages.
func (r *Runtime) Validate(name, src string) error {
	f, err := parser.ParseFile(token.NewFileSet(), name, src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("sandbox: parse %s: %w", name, err)
	}

	var forbidden []string
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return fmt.Errorf("sandbox: parse %s: bad import %s", name, imp.Path.Value)
		}
		if !r.allowed[p] && !r.host[p] {
			forbidden = append(forbidden, p)
		}
	}
	if len(forbidden) > 0 {
		sort.Strings(forbidden)
		return fmt.Errorf("%w: %s imports %s", ErrForbiddenImport, name, strings.Join(forbidden, ", "))
	}
	return nil
}

// Eval validates and evaluates src in the interpreter. Panics raised while
// evaluating are returned as errors.
func (r *Runtime) Eval(name, src string) error {
	if _, err := r.interpreter(); err != nil {
		return err
	}
	if err := r.Validate(name, src); err != nil {
		return err
	}
	return r.eval(name, src)
}

// EvalFiles validates every file, joins them and evaluates the result in a
// single pass.
func (r *Runtime) EvalFiles(files ...File) error {
	if _, err := r.interpreter(); err != nil {
		return err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if err := r.Validate(f.Name, f.Src); err != nil {
			return err
		}
		names = append(names, f.Name)
	}
	src, err := Join(files...)
	if err != nil {
		return err
	}
	return r.eval(strings.Join(names, "+"), src)
}

func (r *Runtime) eval(name, src string) (err error) {
	i, err := r.interpreter()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", name, p)
		}
	}()

	if _, err := i.Eval(src); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Lookup returns the program's niladic entry point name from package main.
// found is false when the program does not define it.
func (r *Runtime) Lookup(name string) (fn func(), found bool, err error) {
	v, ok, err := r.symbol(name)
	if err != nil || !ok {
		return nil, false, err
	}
	if v.Kind() != reflect.Func {
		return nil, false, fmt.Errorf("%w: %s is %s", ErrBadEntryPoint, name, v.Kind())
	}
	fn, ok = v.Interface().(func())
	if !ok {
		return nil, false, fmt.Errorf("%w: %s is %s, expected func()", ErrBadEntryPoint, name, v.Type())
	}
	return fn, true, nil
}

// Call runs the entry point name if defined. Panics are returned as errors.
func (r *Runtime) Call(name string) (found bool, err error) {
	fn, found, err := r.Lookup(name)
	if err != nil || !found {
		return found, err
	}
	return true, Invoke(name, fn)
}

// Invoke runs fn, converting a panic into an error naming the entry point.
func Invoke(name string, fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", name, p)
		}
	}()
	fn()
	return nil
}

// IntVar reads the current value of a numeric package-level variable in
// package main. ok is false when the variable is absent or not numeric.
func (r *Runtime) IntVar(name string) (n int, ok bool) {
	get := r.numericGetter(name)
	if get == nil {
		return 0, false
	}
	var f float64
	if err := Invoke(name, func() { f = get() }); err != nil {
		return 0, false
	}
	return int(f), true
}

// numericGetter returns an interpreted accessor for the variable name.
// Evaluating main.<name> directly yields the declaration's initializer
// rather than the live value, so the read goes through a generated
// function. Accessors are created once per variable.
func (r *Runtime) numericGetter(name string) func() float64 {
	r.mu.Lock()
	get, cached := r.getters[name]
	r.mu.Unlock()
	if cached {
		return get
	}
	if !token.IsIdentifier(name) {
		return nil
	}

	v, found, err := r.symbol(name)
	if err != nil || !found {
		return nil
	}
	if v.Kind() == reflect.Func {
		get = nil
	} else {
		get = r.makeGetter(name)
	}

	r.mu.Lock()
	if r.getters == nil {
		r.getters = make(map[string]func() float64)
	}
	r.getters[name] = get
	r.mu.Unlock()
	return get
}

func (r *Runtime) makeGetter(name string) func() float64 {
	fn := "sandboxGet" + name
	src := fmt.Sprintf("package main\n\nfunc %s() float64 { return float64(%s) }\n", fn, name)
	if err := r.eval(fn, src); err != nil {
		return nil
	}
	v, found, err := r.symbol(fn)
	if err != nil || !found || v.Kind() != reflect.Func {
		return nil
	}
	get, ok := v.Interface().(func() float64)
	if !ok {
		return nil
	}
	return get
}

func (r *Runtime) symbol(name string) (v reflect.Value, found bool, err error) {
	i, err := r.interpreter()
	if err != nil {
		return reflect.Value{}, false, err
	}

	defer func() {
		if p := recover(); p != nil {
			v, found, err = reflect.Value{}, false, nil
		}
	}()

	// Unknown identifiers fail to compile; that is the "absent" case.
	v, evalErr := i.Eval("main." + name)
	if evalErr != nil || !v.IsValid() {
		return reflect.Value{}, false, nil
	}
	return v, true, nil
}
