package scoring

import (
	"unsafe"

	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type kindSet map[string]struct{}

func set(kinds ...string) kindSet {
	s := make(kindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s kindSet) has(kind string) bool {
	_, ok := s[kind]
	return ok
}

// grammar lists the node kinds that count as structure for one language.
// Branches add to cyclomatic complexity; nesting kinds also deepen nesting.
type grammar struct {
	language  func() unsafe.Pointer
	branches  kindSet
	nesting   kindSet
	functions kindSet
	classes   kindSet
}

var grammars = map[string]grammar{
	"go": {
		language:  tree_sitter_go.Language,
		branches:  set("if_statement", "for_statement", "expression_case", "type_case", "communication_case"),
		nesting:   set("if_statement", "for_statement", "expression_switch_statement", "type_switch_statement", "select_statement", "func_literal"),
		functions: set("function_declaration", "method_declaration", "func_literal"),
		classes:   set("type_spec"),
	},
	"python": {
		language:  tree_sitter_python.Language,
		branches:  set("if_statement", "elif_clause", "for_statement", "while_statement", "except_clause", "conditional_expression", "boolean_operator", "for_in_clause", "case_clause"),
		nesting:   set("if_statement", "for_statement", "while_statement", "try_statement", "with_statement", "match_statement", "function_definition"),
		functions: set("function_definition", "lambda"),
		classes:   set("class_definition"),
	},
	"javascript": {
		language:  tree_sitter_javascript.Language,
		branches:  set("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_case", "catch_clause", "ternary_expression"),
		nesting:   set("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_statement", "try_statement", "arrow_function", "function_expression"),
		functions: set("function_declaration", "function_expression", "function", "arrow_function", "method_definition", "generator_function_declaration"),
		classes:   set("class_declaration", "class"),
	},
	"typescript": {
		language:  tree_sitter_typescript.LanguageTypescript,
		branches:  set("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_case", "catch_clause", "ternary_expression"),
		nesting:   set("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_statement", "try_statement", "arrow_function", "function_expression"),
		functions: set("function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"),
		classes:   set("class_declaration", "class", "interface_declaration", "abstract_class_declaration"),
	},
	"java": {
		language:  tree_sitter_java.Language,
		branches:  set("if_statement", "for_statement", "enhanced_for_statement", "while_statement", "do_statement", "switch_label", "catch_clause", "ternary_expression"),
		nesting:   set("if_statement", "for_statement", "enhanced_for_statement", "while_statement", "do_statement", "switch_expression", "try_statement", "lambda_expression"),
		functions: set("method_declaration", "constructor_declaration", "lambda_expression"),
		classes:   set("class_declaration", "interface_declaration", "enum_declaration", "record_declaration"),
	},
	"rust": {
		language:  tree_sitter_rust.Language,
		branches:  set("if_expression", "for_expression", "while_expression", "loop_expression", "match_arm", "try_expression"),
		nesting:   set("if_expression", "for_expression", "while_expression", "loop_expression", "match_expression", "closure_expression"),
		functions: set("function_item", "closure_expression"),
		classes:   set("struct_item", "enum_item", "trait_item", "impl_item"),
	},
}

// languageAliases maps common spellings onto grammar keys.
var languageAliases = map[string]string{
	"golang": "go",
	"py":     "python",
	"js":     "javascript",
	"jsx":    "javascript",
	"ts":     "typescript",
	"tsx":    "typescript",
	"rs":     "rust",
}

func grammarFor(language string) (grammar, bool) {
	if alias, ok := languageAliases[language]; ok {
		language = alias
	}
	g, ok := grammars[language]
	return g, ok
}
