// Package gatelang implements the small, pure expression language gate
// conditions are written in. It is backed by goja (a pure-Go JavaScript
// runtime), the same engine the teacher repo uses for sandboxed script
// execution inside its TEE simulation mode. Unlike that engine, gatelang
// never injects secrets, console I/O, or network access — each
// evaluation gets a fresh VM with only the row's fields bound, so a
// condition can observe data and nothing else.
package gatelang

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// Condition is one compiled gate condition. Compiling once and
// evaluating many times avoids re-parsing the expression per row.
type Condition struct {
	source string
	prog   *goja.Program
}

// Compile parses source as a single JavaScript expression. It does not
// execute anything; compilation failures are reported at graph-build
// time, not at row-processing time.
func Compile(source string) (*Condition, error) {
	prog, err := goja.Compile("condition", "("+source+")", true)
	if err != nil {
		return nil, fmt.Errorf("compile gate condition: %w", err)
	}
	return &Condition{source: source, prog: prog}, nil
}

// Source returns the original expression text.
func (c *Condition) Source() string { return c.source }

// evalTimeout bounds how long a single condition evaluation may run,
// defending against pathological expressions (e.g. unbounded loops via
// side-channel array methods) even though the language itself exposes no
// I/O or external calls.
const evalTimeout = 50 * time.Millisecond

// Evaluate runs the compiled condition against row, returning its
// truthiness. Each call gets its own VM instance: conditions are pure
// functions of the row and must not retain state across rows.
func (c *Condition) Evaluate(row map[string]any) (bool, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	rowObj := vm.NewObject()
	for k, v := range row {
		if err := rowObj.Set(k, v); err != nil {
			return false, fmt.Errorf("bind row field %q: %w", k, err)
		}
	}
	if err := vm.Set("row", rowObj); err != nil {
		return false, fmt.Errorf("bind row: %w", err)
	}

	done := make(chan struct{})
	timer := time.AfterFunc(evalTimeout, func() {
		vm.Interrupt("gate condition exceeded time budget")
	})
	defer timer.Stop()

	var result goja.Value
	var evalErr error
	go func() {
		defer close(done)
		result, evalErr = vm.RunProgram(c.prog)
	}()
	<-done

	if evalErr != nil {
		return false, fmt.Errorf("evaluate gate condition %q: %w", c.source, evalErr)
	}
	return result.ToBoolean(), nil
}
