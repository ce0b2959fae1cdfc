package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
	"github.com/xxxsen/vecdash/internal/pkg/vecmath"
)

// EmbeddingRow is one parsed bulk-load line: free text plus a vector.
type EmbeddingRow struct {
	Line    int
	Content string
	Vector  []float32
}

// ParseEmbeddingRows reads "content, v1, ..., vN" lines. Lines with fewer
// than 1+dim fields or with non-numeric components are logged and skipped;
// extra trailing columns are ignored.
func ParseEmbeddingRows(ctx context.Context, r io.Reader, dim int) ([]EmbeddingRow, []*appErr.SkippedRowWarning, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	logger := logutil.GetLogger(ctx)
	var rows []EmbeddingRow
	var skipped []*appErr.SkippedRowWarning
	skip := func(w *appErr.SkippedRowWarning) {
		logger.Warn("skipping bulk-load row", zap.Int("line", w.Line), zap.String("reason", w.Reason))
		skipped = append(skipped, w)
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skip(&appErr.SkippedRowWarning{Line: perr.StartLine, Reason: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) < dim+1 {
			skip(&appErr.SkippedRowWarning{
				Line:   line,
				Reason: fmt.Sprintf("expected at least %d fields, got %d", dim+1, len(record)),
			})
			continue
		}
		vec := make([]float32, 0, dim)
		var bad error
		for _, field := range record[1 : dim+1] {
			v, err := vecmath.ParseComponent(field)
			if err != nil {
				bad = err
				break
			}
			vec = append(vec, v)
		}
		if bad != nil {
			skip(&appErr.SkippedRowWarning{Line: line, Reason: bad.Error()})
			continue
		}
		rows = append(rows, EmbeddingRow{Line: line, Content: record[0], Vector: vec})
	}
	return rows, skipped, nil
}
