package syntax

// Kind is the closed set of node shapes the analyzers dispatch on.
// Grammar node types that no analyzer cares about map to KindOther.
type Kind int

const (
	KindOther Kind = iota
	KindModule
	KindBlock
	KindFunction
	KindDecorated
	KindDecorator
	KindClass
	KindIf
	KindElif
	KindElse
	KindFor
	KindWhile
	KindWith
	KindTry
	KindExcept
	KindFinally
	KindBoolOp
	KindComprehension
	KindFilterClause
	KindCall
	KindArguments
	KindKeywordArgument
	KindAttribute
	KindIdentifier
	KindAwait
	KindParenthesized
	KindExprStatement
	KindString
	KindConcatString
	KindAssignment
	KindComment
	KindImport
	KindImportFrom
	KindError
)

var kindByType = map[string]Kind{
	"module":                   KindModule,
	"block":                    KindBlock,
	"function_definition":      KindFunction,
	"decorated_definition":     KindDecorated,
	"decorator":                KindDecorator,
	"class_definition":         KindClass,
	"if_statement":             KindIf,
	"elif_clause":              KindElif,
	"else_clause":              KindElse,
	"for_statement":            KindFor,
	"while_statement":          KindWhile,
	"with_statement":           KindWith,
	"try_statement":            KindTry,
	"except_clause":            KindExcept,
	"except_group_clause":      KindExcept,
	"finally_clause":           KindFinally,
	"boolean_operator":         KindBoolOp,
	"list_comprehension":       KindComprehension,
	"set_comprehension":        KindComprehension,
	"dictionary_comprehension": KindComprehension,
	"generator_expression":     KindComprehension,
	"if_clause":                KindFilterClause,
	"call":                     KindCall,
	"argument_list":            KindArguments,
	"keyword_argument":         KindKeywordArgument,
	"attribute":                KindAttribute,
	"identifier":               KindIdentifier,
	"await":                    KindAwait,
	"parenthesized_expression": KindParenthesized,
	"expression_statement":     KindExprStatement,
	"string":                   KindString,
	"concatenated_string":      KindConcatString,
	"assignment":               KindAssignment,
	"comment":                  KindComment,
	"import_statement":         KindImport,
	"import_from_statement":    KindImportFrom,
	"ERROR":                    KindError,
}

var kindNames = map[Kind]string{
	KindOther:           "other",
	KindModule:          "module",
	KindBlock:           "block",
	KindFunction:        "function",
	KindDecorated:       "decorated",
	KindDecorator:       "decorator",
	KindClass:           "class",
	KindIf:              "if",
	KindElif:            "elif",
	KindElse:            "else",
	KindFor:             "for",
	KindWhile:           "while",
	KindWith:            "with",
	KindTry:             "try",
	KindExcept:          "except",
	KindFinally:         "finally",
	KindBoolOp:          "boolop",
	KindComprehension:   "comprehension",
	KindFilterClause:    "filter",
	KindCall:            "call",
	KindArguments:       "arguments",
	KindKeywordArgument: "keyword_argument",
	KindAttribute:       "attribute",
	KindIdentifier:      "identifier",
	KindAwait:           "await",
	KindParenthesized:   "parenthesized",
	KindExprStatement:   "expression_statement",
	KindString:          "string",
	KindConcatString:    "concatenated_string",
	KindAssignment:      "assignment",
	KindComment:         "comment",
	KindImport:          "import",
	KindImportFrom:      "import_from",
	KindError:           "error",
}

// KindOf maps a grammar node type to its Kind.
func KindOf(nodeType string) Kind {
	if k, ok := kindByType[nodeType]; ok {
		return k
	}
	return KindOther
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsLoop reports whether the kind is a for or while statement.
func (k Kind) IsLoop() bool {
	return k == KindFor || k == KindWhile
}

// IsDecision reports whether the kind adds one independent path to a function.
func (k Kind) IsDecision() bool {
	switch k {
	case KindIf, KindElif, KindFor, KindWhile, KindWith, KindExcept:
		return true
	}
	return false
}

// OpensBlock reports whether entering the kind increases nesting depth.
// Elif clauses are handled by their enclosing if statement.
func (k Kind) OpensBlock() bool {
	switch k {
	case KindIf, KindFor, KindWhile, KindWith, KindTry:
		return true
	}
	return false
}
