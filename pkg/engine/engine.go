// Package engine evaluates layout scripts. It wraps zygomys in a sandboxed
// environment and produces a layout.Layout from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/pinball/pkg/config"
	"github.com/chazu/pinball/pkg/layout"
)

// EvalError represents a non-fatal error encountered during evaluation:
// a parse error, a runtime error in user code or a blocking layout
// validation finding.
type EvalError struct {
	Line    int
	Col     int
	Message string
	Err     error // validation sentinel, if any
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e EvalError) Unwrap() error {
	return e.Err
}

// Engine wraps the zygomys interpreter for layout evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	defaults config.Config

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an engine whose scripts default to the standard
// table constants.
func NewEngine() *Engine {
	return NewEngineWithDefaults(config.Default())
}

// NewEngineWithDefaults creates an engine whose scripts fall back to c for
// every shape parameter they leave out.
func NewEngineWithDefaults(c config.Config) *Engine {
	return &Engine{defaults: c}
}

// Defaults returns the table constants scripts fall back to.
func (e *Engine) Defaults() config.Config {
	return e.defaults
}

// Evaluate runs layout source and returns the layout it builds.
//
// Return semantics:
//   - On success: returns layout + nil errors + nil error
//   - On parse/eval/validation failure: returns nil layout + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*layout.Layout, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		l, evalErrs, err := e.evaluate(source)
		ch <- evalResult{layout: l, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*layout.Layout, []EvalError, error) {
	l := layout.New(e.defaults)
	if strings.TrimSpace(source) == "" {
		return l, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, l)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if res := layout.ValidateAll(l); !res.OK() {
		evalErrs := make([]EvalError, 0, len(res.Errors))
		for _, v := range res.Errors {
			evalErrs = append(evalErrs, EvalError{Message: v.Error(), Err: v})
		}
		return nil, evalErrs, nil
	}
	return l, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
