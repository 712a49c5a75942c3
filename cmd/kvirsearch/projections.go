package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"kvirsearch/internal/deserializer"
	"kvirsearch/internal/irproto"
	"kvirsearch/internal/kverrors"
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/schema"
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/search/projectspec"
	"kvirsearch/internal/source"
)

func newProjectionsCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projections <source-uri> <path> [path...]",
		Short: "Resolve one or more JSONPath-style projection paths against a stream",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := make([]*ast.ColumnDescriptor, 0, len(args)-1)
			for _, raw := range args[1:] {
				nsPart, path := splitNamespace(raw)
				ns, err := parseNamespace(nsPart)
				if err != nil {
					return err
				}
				d, err := projectspec.Parse(ns, path)
				if err != nil {
					return fmt.Errorf("project %q: %w", raw, err)
				}
				descriptors = append(descriptors, d)
			}

			scoped, _ := instanceLogger(logger, "projections")
			return runProjections(cmd.Context(), scoped, args[0], descriptors, newPrinter(outputFormat(cmd)))
		},
	}
	return cmd
}

type projectionResolution struct {
	Namespace string `json:"namespace"`
	NodeID    int32  `json:"node_id"`
	Path      string `json:"path"`
}

type projectionsHandler struct {
	logger      *slog.Logger
	printer     *printer
	resolutions []projectionResolution
}

func (h *projectionsHandler) HandleSchemaTreeNodeInsertion(bool, int32, schema.Locator) error {
	return nil
}
func (h *projectionsHandler) HandleUtcOffsetChange(int64) error { return nil }
func (h *projectionsHandler) HandleLogEvent(deserializer.Event, int64) error { return nil }
func (h *projectionsHandler) HandleEndOfStream() error { return nil }

func (h *projectionsHandler) HandleProjectionResolution(isAutoGen bool, nodeID int32, originalKeyPath string) error {
	r := projectionResolution{Namespace: namespaceLabel(isAutoGen), NodeID: nodeID, Path: originalKeyPath}
	h.resolutions = append(h.resolutions, r)
	h.logger.Info("projection resolved", "namespace", r.Namespace, "node_id", r.NodeID, "path", r.Path)
	return nil
}

func runProjections(ctx context.Context, logger *slog.Logger, uri string, descriptors []*ast.ColumnDescriptor, p *printer) error {
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

	res := resolver.New(nil, descriptors)
	handler := &projectionsHandler{logger: logger, printer: p}
	d := deserializer.New(ir, enc, res, handler)

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

	if p.format == "json" {
		return p.json(handler.resolutions)
	}
	rows := make([][]string, len(handler.resolutions))
	for i, r := range handler.resolutions {
		rows[i] = []string{r.Namespace, fmt.Sprintf("%d", r.NodeID), r.Path}
	}
	p.table([]string{"namespace", "node_id", "path"}, rows)
	return nil
}
