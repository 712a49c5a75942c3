package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kvirsearch/internal/deserializer"
	"kvirsearch/internal/irproto"
	"kvirsearch/internal/kverrors"
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/schema"
	"kvirsearch/internal/schemacache"
	"kvirsearch/internal/source"
)

func newSchemaCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <source-uri>",
		Short: "Decode a stream and print its schema trees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			if cacheDir == "" {
				cacheDir = configFromCmd(cmd).SchemaCacheDir
			}
			scoped, _ := instanceLogger(logger, "schema")
			return runSchema(cmd.Context(), scoped, args[0], cacheDir, newPrinter(outputFormat(cmd)))
		},
	}
	cmd.Flags().String("cache-dir", "", "directory to write schemacache snapshots to (empty disables caching)")
	return cmd
}

type schemaHandler struct {
	logger *slog.Logger
}

func (h *schemaHandler) HandleSchemaTreeNodeInsertion(isAutoGen bool, nodeID int32, loc schema.Locator) error {
	return nil
}
func (h *schemaHandler) HandleUtcOffsetChange(int64) error { return nil }
func (h *schemaHandler) HandleLogEvent(deserializer.Event, int64) error {
	return nil
}
func (h *schemaHandler) HandleEndOfStream() error { return nil }

func runSchema(ctx context.Context, logger *slog.Logger, uri, cacheDir string, p *printer) error {
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

	res := resolver.New(nil, nil)
	handler := &schemaHandler{logger: logger}
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

	printTree(p, "auto_gen", d.AutoGenTree())
	printTree(p, "user_gen", d.UserGenTree())

	if cacheDir != "" {
		if err := schemacache.Save(cachePath(cacheDir, "auto_gen"), d.AutoGenTree(), false); err != nil {
			logger.Warn("failed to save auto_gen schema cache", "error", err)
		}
		if err := schemacache.Save(cachePath(cacheDir, "user_gen"), d.UserGenTree(), true); err != nil {
			logger.Warn("failed to save user_gen schema cache", "error", err)
		}
	}
	return nil
}

func printTree(p *printer, label string, tree *schema.Tree) {
	rows := make([][]string, 0, tree.Len())
	for _, n := range tree.Nodes() {
		path, err := tree.Path(n.ID)
		if err != nil {
			continue
		}
		rows = append(rows, []string{strconv.Itoa(int(n.ID)), strings.Join(path, "."), n.Type.String()})
	}
	fmt.Printf("-- %s --\n", label)
	p.table([]string{"id", "path", "type"}, rows)
}

func cachePath(dir, namespace string) string {
	return filepath.Join(dir, namespace+".schemacache")
}
