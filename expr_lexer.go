package reel

import (
	"fmt"
	"strconv"
	"unicode"
)

// tokenKind identifies an expression token.
type tokenKind uint8

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenCaret
	tokenLParen
	tokenRParen
	tokenComma
	tokenEOF
)

func (k tokenKind) String() string {
	switch k {
	case tokenNumber:
		return "number"
	case tokenIdent:
		return "identifier"
	case tokenPlus:
		return "'+'"
	case tokenMinus:
		return "'-'"
	case tokenStar:
		return "'*'"
	case tokenSlash:
		return "'/'"
	case tokenPercent:
		return "'%'"
	case tokenCaret:
		return "'^'"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenComma:
		return "','"
	case tokenEOF:
		return "end of expression"
	}
	return "unknown"
}

// exprToken is a single lexed token. Pos is the byte offset in the source,
// used for error messages.
type exprToken struct {
	kind  tokenKind
	text  string
	value float64 // set for tokenNumber
	pos   int
}

// lexExpression splits expression source into tokens. An unrecognized rune
// or malformed number is a syntax error.
func lexExpression(src string) ([]exprToken, error) {
	var tokens []exprToken
	runes := []rune(src)
	i := 0

	for i < len(runes) {
		r := runes[i]

		if unicode.IsSpace(r) {
			i++
			continue
		}

		switch r {
		case '+':
			tokens = append(tokens, exprToken{kind: tokenPlus, text: "+", pos: i})
			i++
			continue
		case '-':
			tokens = append(tokens, exprToken{kind: tokenMinus, text: "-", pos: i})
			i++
			continue
		case '*':
			tokens = append(tokens, exprToken{kind: tokenStar, text: "*", pos: i})
			i++
			continue
		case '/':
			tokens = append(tokens, exprToken{kind: tokenSlash, text: "/", pos: i})
			i++
			continue
		case '%':
			tokens = append(tokens, exprToken{kind: tokenPercent, text: "%", pos: i})
			i++
			continue
		case '^':
			tokens = append(tokens, exprToken{kind: tokenCaret, text: "^", pos: i})
			i++
			continue
		case '(':
			tokens = append(tokens, exprToken{kind: tokenLParen, text: "(", pos: i})
			i++
			continue
		case ')':
			tokens = append(tokens, exprToken{kind: tokenRParen, text: ")", pos: i})
			i++
			continue
		case ',':
			tokens = append(tokens, exprToken{kind: tokenComma, text: ",", pos: i})
			i++
			continue
		}

		if unicode.IsDigit(r) || r == '.' {
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			// Scientific notation: 1e-3, 2.5E+6.
			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && unicode.IsDigit(runes[j]) {
					i = j
					for i < len(runes) && unicode.IsDigit(runes[i]) {
						i++
					}
				}
			}
			text := string(runes[start:i])
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q at offset %d: %w", text, start, ErrSyntax)
			}
			tokens = append(tokens, exprToken{kind: tokenNumber, text: text, value: value, pos: start})
			continue
		}

		if unicode.IsLetter(r) || r == '_' {
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, exprToken{kind: tokenIdent, text: string(runes[start:i]), pos: start})
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at offset %d: %w", string(r), i, ErrSyntax)
	}

	tokens = append(tokens, exprToken{kind: tokenEOF, text: "", pos: len(runes)})
	return tokens, nil
}
