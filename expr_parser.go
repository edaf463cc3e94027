package reel

import "fmt"

// exprNode is a parsed expression tree node.
type exprNode interface {
	eval(env *exprEnv) (float64, error)
}

type numberNode struct {
	value float64
}

type identNode struct {
	name string
}

type unaryNode struct {
	op      tokenKind // tokenPlus or tokenMinus
	operand exprNode
}

type binaryNode struct {
	op          tokenKind
	left, right exprNode
}

type callNode struct {
	name string
	args []exprNode
}

// exprParser consumes a token stream and produces an exprNode tree.
//
// Grammar, low to high precedence:
//
//	additive       = multiplicative { ("+" | "-") multiplicative }
//	multiplicative = power { ("*" | "/" | "%") power }
//	power          = unary [ "^" power ]            (right-associative)
//	unary          = ("+" | "-") unary | primary
//	primary        = number | ident | ident "(" [args] ")" | "(" additive ")"
type exprParser struct {
	tokens []exprToken
	pos    int
}

func (p *exprParser) peek() exprToken {
	return p.tokens[p.pos]
}

func (p *exprParser) next() exprToken {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *exprParser) expect(kind tokenKind) (exprToken, error) {
	tok := p.peek()
	if tok.kind != kind {
		return tok, fmt.Errorf("expected %s, found %s at offset %d: %w",
			kind, tok.kind, tok.pos, ErrSyntax)
	}
	return p.next(), nil
}

// parseExpression parses expression source to a tree.
func parseExpression(src string) (exprNode, error) {
	tokens, err := lexExpression(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{tokens: tokens}
	root, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %s at offset %d: %w", tok.kind, tok.pos, ErrSyntax)
	}
	return root, nil
}

func (p *exprParser) parseAdditive() (exprNode, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokenPlus && op != tokenMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseMultiplicative() (exprNode, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokenStar && op != tokenSlash && op != tokenPercent {
			return left, nil
		}
		p.next()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parsePower() (exprNode, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenCaret {
		return base, nil
	}
	p.next()
	// Right-associative: 2^3^2 == 2^(3^2).
	exponent, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: tokenCaret, left: base, right: exponent}, nil
}

func (p *exprParser) parseUnary() (exprNode, error) {
	op := p.peek().kind
	if op == tokenPlus || op == tokenMinus {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == tokenPlus {
			return operand, nil
		}
		return &unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	tok := p.peek()

	switch tok.kind {
	case tokenNumber:
		p.next()
		return &numberNode{value: tok.value}, nil

	case tokenIdent:
		p.next()
		if p.peek().kind != tokenLParen {
			return &identNode{name: tok.text}, nil
		}
		p.next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &callNode{name: tok.text, args: args}, nil

	case tokenLParen:
		p.next()
		inner, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, fmt.Errorf("unexpected %s at offset %d: %w", tok.kind, tok.pos, ErrSyntax)
}

// parseArgs parses a possibly empty comma-separated argument list. The
// opening paren has been consumed; parseArgs consumes the closing paren.
func (p *exprParser) parseArgs() ([]exprNode, error) {
	var args []exprNode
	if p.peek().kind == tokenRParen {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.peek().kind {
		case tokenComma:
			p.next()
		case tokenRParen:
			p.next()
			return args, nil
		default:
			tok := p.peek()
			return nil, fmt.Errorf("expected ',' or ')', found %s at offset %d: %w",
				tok.kind, tok.pos, ErrSyntax)
		}
	}
}
