package main

import (
	"fmt"
	"strconv"
	"strings"

	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

// fullTypeMask is the unnarrowed mask a freshly parsed column
// descriptor starts with; preprocess.TypeNarrow intersects it down
// once the filter's operator and operand are known (spec.md §4.3).
const fullTypeMask = value.LiteralTypeMask(0xff)

var comparisonOps = []struct {
	token string
	op    ast.Operator
}{
	{"==", ast.OpEQ},
	{"!=", ast.OpNEQ},
	{"<=", ast.OpLTE},
	{">=", ast.OpGTE},
	{"<", ast.OpLT},
	{">", ast.OpGT},
}

// parseFilterFlag turns one --filter value into a FilterExpr. Syntax:
//
//	[ns:]path.to.key OP value
//	[ns:]path.to.key EXISTS
//	[ns:]path.to.key NEXISTS
//
// ns is "auto" or "user" (default "user"); path segments are
// dot-separated and may contain the literal "*" wildcard token;
// OP is one of ==, !=, <, >, <=, >=; value is parsed as an int64,
// then a float64, then as a bool if it is exactly true or false, and
// otherwise falls back to a bare string (quote it to force string
// comparison against a value that looks numeric or boolean).
func parseFilterFlag(raw string) (*ast.FilterExpr, error) {
	nsPart, rest := splitNamespace(raw)
	ns, err := parseNamespace(nsPart)
	if err != nil {
		return nil, err
	}

	rest = strings.TrimSpace(rest)
	if path, ok := trimSuffixField(rest, "EXISTS"); ok {
		return existenceFilter(ns, path, ast.OpExists)
	}
	if path, ok := trimSuffixField(rest, "NEXISTS"); ok {
		return existenceFilter(ns, path, ast.OpNExists)
	}

	for _, c := range comparisonOps {
		idx := strings.Index(rest, c.token)
		if idx < 0 {
			continue
		}
		pathStr := strings.TrimSpace(rest[:idx])
		valStr := strings.TrimSpace(rest[idx+len(c.token):])
		col, err := columnFromPath(ns, pathStr)
		if err != nil {
			return nil, err
		}
		lit := literalFromString(valStr)
		return &ast.FilterExpr{Column: col, Op: c.op, Operand: &lit}, nil
	}
	return nil, fmt.Errorf("filterflag: no operator found in %q", raw)
}

func existenceFilter(ns ast.Namespace, pathStr string, op ast.Operator) (*ast.FilterExpr, error) {
	col, err := columnFromPath(ns, strings.TrimSpace(pathStr))
	if err != nil {
		return nil, err
	}
	return &ast.FilterExpr{Column: col, Op: op}, nil
}

func trimSuffixField(s, field string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 || fields[1] != field {
		return "", false
	}
	return fields[0], true
}

func splitNamespace(raw string) (nsPart, rest string) {
	if i := strings.IndexByte(raw, ':'); i >= 0 && !strings.ContainsAny(raw[:i], " =<>!") {
		return raw[:i], raw[i+1:]
	}
	return "", raw
}

func parseNamespace(s string) (ast.Namespace, error) {
	switch s {
	case "", "user":
		return ast.UserGen, nil
	case "auto":
		return ast.AutoGen, nil
	default:
		return 0, fmt.Errorf("filterflag: unknown namespace %q (want \"auto\" or \"user\")", s)
	}
}

func columnFromPath(ns ast.Namespace, pathStr string) (*ast.ColumnDescriptor, error) {
	if pathStr == "" {
		return nil, fmt.Errorf("filterflag: empty column path")
	}
	segs := strings.Split(pathStr, ".")
	tokens := make([]ast.Token, len(segs))
	for i, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("filterflag: empty path segment in %q", pathStr)
		}
		tokens[i] = ast.Token{Name: s}
	}
	return ast.NewColumnDescriptor(ns, tokens, fullTypeMask), nil
}

func literalFromString(s string) ast.Literal {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return ast.StringLiteral(s[1 : len(s)-1])
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ast.IntLiteral(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return ast.FloatLiteral(f)
	}
	if s == "true" || s == "false" {
		return ast.BoolLiteral(s == "true")
	}
	return ast.StringLiteral(s)
}

// andAll combines filters with AND, or returns nil (match-everything)
// if there are none.
func andAll(filters []*ast.FilterExpr) ast.Expr {
	if len(filters) == 0 {
		return nil
	}
	if len(filters) == 1 {
		return filters[0]
	}
	children := make([]ast.Expr, len(filters))
	for i, f := range filters {
		children[i] = f
	}
	return &ast.AndExpr{Children: children}
}
