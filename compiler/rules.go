package compiler

// Precedence orders binding strength from loosest to tightest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

var precedenceNames = [...]string{
	PrecNone:       "NONE",
	PrecAssignment: "ASSIGNMENT",
	PrecOr:         "OR",
	PrecAnd:        "AND",
	PrecEquality:   "EQUALITY",
	PrecComparison: "COMPARISON",
	PrecTerm:       "TERM",
	PrecFactor:     "FACTOR",
	PrecUnary:      "UNARY",
	PrecCall:       "CALL",
	PrecPrimary:    "PRIMARY",
}

func (p Precedence) String() string {
	if p >= 0 && int(p) < len(precedenceNames) {
		return precedenceNames[p]
	}
	return "UNKNOWN"
}

// parseFn is a prefix or infix handler. Handlers receive the compiler
// explicitly so the table can be a plain array of method expressions.
type parseFn func(*Compiler)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is indexed by TokenType. Tokens without an entry have no prefix,
// no infix and PrecNone, which ends any infix loop.
var rules [tokenTypeCount]parseRule

// The table is filled in init because the handlers themselves consult it.
func init() {
	rules = [tokenTypeCount]parseRule{
		TokenLeftParen:    {(*Compiler).grouping, nil, PrecNone},
		TokenMinus:        {(*Compiler).unary, (*Compiler).binary, PrecTerm},
		TokenPlus:         {nil, (*Compiler).binary, PrecTerm},
		TokenSlash:        {nil, (*Compiler).binary, PrecFactor},
		TokenStar:         {nil, (*Compiler).binary, PrecFactor},
		TokenBang:         {(*Compiler).unary, nil, PrecNone},
		TokenBangEqual:    {nil, (*Compiler).binary, PrecEquality},
		TokenEqualEqual:   {nil, (*Compiler).binary, PrecEquality},
		TokenGreater:      {nil, (*Compiler).binary, PrecComparison},
		TokenGreaterEqual: {nil, (*Compiler).binary, PrecComparison},
		TokenLess:         {nil, (*Compiler).binary, PrecComparison},
		TokenLessEqual:    {nil, (*Compiler).binary, PrecComparison},
		TokenNumber:       {(*Compiler).number, nil, PrecNone},
		TokenFalse:        {(*Compiler).literal, nil, PrecNone},
		TokenNil:          {(*Compiler).literal, nil, PrecNone},
		TokenTrue:         {(*Compiler).literal, nil, PrecNone},
	}
}

func getRule(t TokenType) *parseRule {
	return &rules[t]
}
