package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"kvirsearch/internal/deserializer"
	"kvirsearch/internal/eval"
	"kvirsearch/internal/irproto"
	"kvirsearch/internal/kverrors"
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/search/preprocess"
	"kvirsearch/internal/search/projectspec"
	"kvirsearch/internal/source"
)

func newSearchCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <source-uri>",
		Short: "Evaluate a filter query against a decoded IR stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, _ := cmd.Flags().GetStringArray("filter")
			projects, _ := cmd.Flags().GetStringArray("project")
			caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")
			if !cmd.Flags().Changed("case-sensitive") {
				caseSensitive = configFromCmd(cmd).DefaultCaseSensitive
			}
			if len(projects) == 0 {
				projects = configFromCmd(cmd).DefaultProjections
			}

			query, projectionDescriptors, err := buildQuery(filters, projects)
			if err != nil {
				return err
			}

			scoped, _ := instanceLogger(logger, "search")
			return runSearch(cmd.Context(), scoped, args[0], query, projectionDescriptors, caseSensitive, newPrinter(outputFormat(cmd)))
		},
	}
	cmd.Flags().StringArray("filter", nil, `filter expression, e.g. "user:request.method==GET" (repeatable, ANDed together)`)
	cmd.Flags().StringArray("project", nil, `JSONPath-style projection path, e.g. "$.request.method" (repeatable)`)
	return cmd
}

func buildQuery(filters, projects []string) (ast.Expr, []*ast.ColumnDescriptor, error) {
	parsedFilters := make([]*ast.FilterExpr, 0, len(filters))
	for _, raw := range filters {
		f, err := parseFilterFlag(raw)
		if err != nil {
			return nil, nil, err
		}
		parsedFilters = append(parsedFilters, f)
	}
	query := preprocess.Preprocess(andAll(parsedFilters))

	projectionDescriptors := make([]*ast.ColumnDescriptor, 0, len(projects))
	for _, raw := range projects {
		nsPart, path := splitNamespace(raw)
		ns, err := parseNamespace(nsPart)
		if err != nil {
			return nil, nil, err
		}
		d, err := projectspec.Parse(ns, path)
		if err != nil {
			return nil, nil, fmt.Errorf("project %q: %w", raw, err)
		}
		projectionDescriptors = append(projectionDescriptors, d)
	}
	return query, projectionDescriptors, nil
}

func runSearch(ctx context.Context, logger *slog.Logger, uri string, query ast.Expr, projectionDescriptors []*ast.ColumnDescriptor, caseSensitive bool, p *printer) error {
	rc, err := source.Open(ctx, uri)
	if err != nil {
		return fmt.Errorf("open %s: %w", uri, err)
	}
	defer rc.Close()

	ir := irproto.NewReader(rc)
	enc, err := irproto.GetEncodingType(ir)
	if err != nil {
		return fmt.Errorf("decode encoding type: %w", err)
	}
	if _, err := irproto.DeserializePreamble(ir, nil); err != nil {
		return fmt.Errorf("decode preamble: %w", err)
	}

	res := resolver.New(collectColumns(query), projectionDescriptors)
	handler := &searchHandler{
		logger:  logger,
		query:   query,
		printer: p,
	}
	d := deserializer.New(ir, enc, res, handler)
	handler.evaluator = &eval.Evaluator{
		Resolver:      res,
		AutoGenTree:   d.AutoGenTree(),
		UserGenTree:   d.UserGenTree(),
		CaseSensitive: caseSensitive,
	}

	for !d.Finished() {
		if _, err := d.Step(); err != nil {
			var herr *kverrors.HandlerError
			if errors.As(err, &herr) {
				logger.Warn("unit handler failed, continuing", "error", err)
				continue
			}
			return fmt.Errorf("step: %w", err)
		}
	}
	return nil
}
