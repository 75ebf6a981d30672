// Package calculator provides basic mathematical calculation capabilities
// for agents that need to perform arithmetic.
package calculator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/openai/openai-go"

	"github.com/researchagent/researchagent"
)

// Calculator evaluates arithmetic expressions: + - * / % ** and
// parentheses, over integers and floats. No functions, no variables.
type Calculator struct{}

func New() *Calculator {
	return &Calculator{}
}

func (c *Calculator) Name() string {
	return "calculator"
}

func (c *Calculator) Description() string {
	return "Performs basic mathematical operations"
}

func (c *Calculator) StatusMessage() string {
	return "Calculating"
}

func (c *Calculator) OpenAI() []openai.ChatCompletionToolParam {
	return []openai.ChatCompletionToolParam{
		{
			Type: openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(openai.FunctionDefinitionParam{
				Name:        openai.F(c.Name()),
				Description: openai.F(c.Description()),
				Parameters: openai.F(openai.FunctionParameters{
					"type": "object",
					"properties": map[string]interface{}{
						"expression": map[string]interface{}{
							"type":        "string",
							"description": "Mathematical expression to evaluate (e.g., '15 + 27 * 3', '2.5 * (10 - 3)', '2 ** 8')",
						},
					},
					"required": []string{"expression"},
				}),
			}),
		},
	}
}

// Execute evaluates the "expression" argument and returns the numeric
// result as text. Malformed expressions come back as retryable errors so
// the model can correct them.
func (c *Calculator) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	expression, ok := args["expression"].(string)
	if !ok || strings.TrimSpace(expression) == "" {
		return "", researchagent.NewRetryableError("expression field is required and must be a string")
	}

	result, err := Evaluate(expression)
	if err != nil {
		return "", researchagent.NewRetryableError("calculation failed: %s", err)
	}

	return strconv.FormatFloat(result, 'g', -1, 64), nil
}

// Evaluate parses and computes an arithmetic expression.
func Evaluate(expression string) (float64, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return 0, err
	}

	p := &parser{tokens: tokens}
	result, err := p.parseExpression()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("unexpected token %q", p.tokens[p.pos])
	}
	return result, nil
}

// tokenize splits the expression into numbers, operators, and parentheses.
func tokenize(expression string) ([]string, error) {
	var tokens []string
	runes := []rune(expression)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			number := string(runes[start:i])
			if _, err := strconv.ParseFloat(number, 64); err != nil {
				return nil, fmt.Errorf("invalid number %q", number)
			}
			tokens = append(tokens, number)
		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				tokens = append(tokens, "**")
				i += 2
			} else {
				tokens = append(tokens, "*")
				i++
			}
		case r == '+' || r == '-' || r == '/' || r == '%' || r == '(' || r == ')':
			tokens = append(tokens, string(r))
			i++
		default:
			return nil, fmt.Errorf("invalid character %q: only numbers, + - * / %% ** and parentheses are allowed", string(r))
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return tokens, nil
}

// parser is a recursive-descent evaluator over the token stream.
// Precedence, loosest first: additive, multiplicative, power, unary.
// Power is right-associative.
type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) next() string {
	token := p.peek()
	if token != "" {
		p.pos++
	}
	return token
}

func (p *parser) parseExpression() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "+":
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case "-":
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "*":
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case "/":
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case "%":
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = flooredMod(left, right)
		default:
			return left, nil
		}
	}
}

// flooredMod computes the floored modulo, where the result takes the sign
// of the divisor: -7 % 3 is 2, 7 % -3 is -2.
func flooredMod(a, b float64) float64 {
	result := math.Mod(a, b)
	if result != 0 && (result < 0) != (b < 0) {
		result += b
	}
	return result
}

func (p *parser) parseUnary() (float64, error) {
	switch p.peek() {
	case "-":
		p.next()
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	case "+":
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek() == "**" {
		p.next()
		// Right-associative: 2 ** 3 ** 2 is 2 ** 9.
		exponent, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exponent), nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (float64, error) {
	token := p.next()
	if token == "" {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	if token == "(" {
		value, err := p.parseExpression()
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, fmt.Errorf("unmatched parentheses")
		}
		return value, nil
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected token %q", token)
	}
	return value, nil
}
