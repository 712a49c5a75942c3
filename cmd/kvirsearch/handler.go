package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"kvirsearch/internal/deserializer"
	"kvirsearch/internal/eval"
	"kvirsearch/internal/schema"
	"kvirsearch/internal/search/ast"
	"kvirsearch/internal/value"
)

// searchHandler implements deserializer.UnitHandler, evaluating the
// preprocessed query against every decoded log event and printing
// matches. It also implements deserializer.ProjectionResolutionHandler
// so --project paths report their resolution as they happen, per
// spec.md §3.
type searchHandler struct {
	logger    *slog.Logger
	evaluator *eval.Evaluator
	query     ast.Expr
	printer   *printer

	matched int
	seen    int
}

// BindTrees implements tail.TreeBinder, letting the tail command
// construct the evaluator's Column resolver before tail.Run creates
// the Deserializer and fill in its tree pointers once it does.
func (h *searchHandler) BindTrees(autoTree, userTree *schema.Tree) {
	h.evaluator.AutoGenTree = autoTree
	h.evaluator.UserGenTree = userTree
}

func (h *searchHandler) HandleSchemaTreeNodeInsertion(isAutoGen bool, nodeID int32, loc schema.Locator) error {
	h.logger.Debug("schema node", "namespace", namespaceLabel(isAutoGen), "node_id", nodeID, "key", loc.KeyName, "type", loc.Type)
	return nil
}

func (h *searchHandler) HandleProjectionResolution(isAutoGen bool, nodeID int32, originalKeyPath string) error {
	h.logger.Info("projection resolved", "namespace", namespaceLabel(isAutoGen), "node_id", nodeID, "path", originalKeyPath)
	return nil
}

func (h *searchHandler) HandleUtcOffsetChange(newOffsetNs int64) error {
	h.logger.Debug("utc offset change", "offset_ns", newOffsetNs)
	return nil
}

func (h *searchHandler) HandleLogEvent(event deserializer.Event, utcOffsetNs int64) error {
	h.seen++
	evalEvent := eval.Event{AutoGen: event.AutoGen, UserGen: event.UserGen}

	result, err := h.evaluator.Evaluate(h.query, evalEvent)
	if err != nil {
		return fmt.Errorf("evaluate event #%d: %w", h.seen, err)
	}
	if result != eval.True {
		return nil
	}
	h.matched++

	fields := make(map[string]string)
	h.collectFields(h.evaluator.AutoGenTree, event.AutoGen, fields)
	h.collectFields(h.evaluator.UserGenTree, event.UserGen, fields)

	if h.printer.format == "json" {
		return h.printer.json(map[string]any{"utc_offset_ns": utcOffsetNs, "fields": fields})
	}
	printFieldsTable(h.printer, utcOffsetNs, fields)
	return nil
}

func (h *searchHandler) HandleEndOfStream() error {
	h.logger.Info("end of stream", "events_seen", h.seen, "events_matched", h.matched)
	return nil
}

func (h *searchHandler) collectFields(tree *schema.Tree, pairs map[int32]value.Value, out map[string]string) {
	for nodeID, v := range pairs {
		path, err := tree.Path(nodeID)
		if err != nil {
			continue
		}
		out[strings.Join(path, ".")] = displayValue(v)
	}
}

func displayValue(v value.Value) string {
	switch v.Kind {
	case value.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case value.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case value.KindBool:
		return strconv.FormatBool(v.Bool)
	case value.KindNull:
		return "null"
	case value.KindShortString:
		return v.ShortStr
	case value.KindClpEncodedString:
		decoded, err := v.ClpStr.Decode()
		if err != nil {
			return v.ClpStr.Logtype
		}
		return decoded
	case value.KindUnstructuredArray:
		return v.ArrayJSON
	default:
		return ""
	}
}

func namespaceLabel(isAutoGen bool) string {
	if isAutoGen {
		return "auto_gen"
	}
	return "user_gen"
}

func printFieldsTable(p *printer, utcOffsetNs int64, fields map[string]string) {
	rows := make([][]string, 0, len(fields))
	for k, v := range fields {
		rows = append(rows, []string{k, v})
	}
	p.table([]string{fmt.Sprintf("field (offset_ns=%d)", utcOffsetNs), "value"}, rows)
}
