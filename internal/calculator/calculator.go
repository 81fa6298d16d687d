// Package calculator implements the utility page: a four-function
// calculator display evaluated with CEL.
package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// ErrorDisplay is shown after a failed evaluation.
const ErrorDisplay = "Error"

// Keys lists the accepted keys in keypad order.
var Keys = []string{
	"7", "8", "9", "/",
	"4", "5", "6", "*",
	"1", "2", "3", "-",
	"0", ".", "C", "+",
	"=",
}

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func celEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv()
	})
	return env, envErr
}

// Calculator holds a display string edited one key at a time.
type Calculator struct {
	display string
}

func New() *Calculator {
	return &Calculator{}
}

func (c *Calculator) Display() string {
	return c.display
}

// Press applies one key and returns the new display. Unknown keys are ignored.
func (c *Calculator) Press(key string) string {
	switch {
	case key == "C":
		c.display = ""
	case key == "=":
		if c.display == "" || c.display == ErrorDisplay {
			break
		}
		result, err := Evaluate(c.display)
		if err != nil {
			c.display = ErrorDisplay
		} else {
			c.display = result
		}
	case isInputKey(key):
		if c.display == ErrorDisplay {
			c.display = ""
		}
		c.display += key
	}
	return c.display
}

func isInputKey(key string) bool {
	if len(key) != 1 {
		return false
	}
	return strings.ContainsAny(key, "0123456789.+-*/")
}

// Evaluate computes an arithmetic expression over + - * / and decimal
// literals. Every literal is treated as floating point.
func Evaluate(expr string) (string, error) {
	src, err := normalize(expr)
	if err != nil {
		return "", err
	}

	e, err := celEnv()
	if err != nil {
		return "", fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := e.Compile(src)
	if issues != nil && issues.Err() != nil {
		return "", fmt.Errorf("invalid expression: %w", issues.Err())
	}

	prg, err := e.Program(ast)
	if err != nil {
		return "", fmt.Errorf("failed to build program: %w", err)
	}

	out, _, err := prg.Eval(map[string]interface{}{})
	if err != nil {
		return "", fmt.Errorf("evaluation failed: %w", err)
	}

	v, ok := out.Value().(float64)
	if !ok {
		return "", fmt.Errorf("unexpected result type %T", out.Value())
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", errors.New("division by zero")
	}
	if v == 0 {
		v = 0 // drop negative zero
	}

	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// normalize rewrites every numeric literal as a CEL double literal so that
// mixed expressions like "1+2.5" type-check.
func normalize(expr string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case ch == ' ':
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			lit, err := doubleLiteral(expr[i:j])
			if err != nil {
				return "", err
			}
			b.WriteString(lit)
			i = j
		case strings.IndexByte("+-*/()", ch) >= 0:
			b.WriteByte(ch)
			i++
		default:
			return "", fmt.Errorf("unexpected character %q", ch)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty expression")
	}
	return b.String(), nil
}

func doubleLiteral(lit string) (string, error) {
	switch strings.Count(lit, ".") {
	case 0:
		return lit + ".0", nil
	case 1:
		if lit == "." {
			return "", errors.New("malformed number")
		}
		if strings.HasPrefix(lit, ".") {
			lit = "0" + lit
		}
		if strings.HasSuffix(lit, ".") {
			lit += "0"
		}
		return lit, nil
	default:
		return "", fmt.Errorf("malformed number %q", lit)
	}
}
