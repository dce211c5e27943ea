package formula

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[-+*/%(),]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// expr is a sum of terms.
type expr struct {
	Pos   lexer.Position
	Left  *term     `@@`
	Right []*opTerm `@@*`
}

type opTerm struct {
	Op   string `@("+" | "-")`
	Term *term  `@@`
}

// term is a product of factors.
type term struct {
	Left  *factor     `@@`
	Right []*opFactor `@@*`
}

type opFactor struct {
	Op     string  `@("*" | "/" | "%")`
	Factor *factor `@@`
}

type factor struct {
	Neg   bool   `@"-"?`
	Value *value `@@`
}

type value struct {
	Pos    lexer.Position
	Number *float64 `  @Number`
	Call   *call    `| @@`
	Var    *string  `| @Ident`
	Sub    *expr    `| "(" @@ ")"`
}

type call struct {
	Pos  lexer.Position
	Name string  `@Ident "("`
	Args []*expr `( @@ ( "," @@ )* )? ")"`
}

var parser = participle.MustBuild[expr](
	participle.Lexer(formulaLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)
