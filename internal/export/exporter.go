package export

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vk/musicscripts/internal/blob"
	"github.com/vk/musicscripts/internal/ctxlog"
)

// Format is an output file format.
type Format string

const (
	CSV    Format = "csv"
	NetCDF Format = "nc"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case CSV, NetCDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or nc)", s)
}

// BatchKey is the metadata key holding the batch identifier.
const BatchKey = "batch"

// Exporter writes tables to a blob store.
type Exporter struct {
	store  blob.Store
	format Format
	batch  string
}

// New returns an exporter writing format files to store under a fresh batch
// identifier.
func New(store blob.Store, format Format) *Exporter {
	return &Exporter{store: store, format: format, batch: uuid.NewString()}
}

// Batch is the identifier attached to every file of this exporter.
func (e *Exporter) Batch() string { return e.batch }

// Format is the default format of the exporter.
func (e *Exporter) Format() Format { return e.format }

// Export writes t in the default format.
func (e *Exporter) Export(ctx context.Context, t Table) (blob.Info, error) {
	return e.ExportAs(ctx, t, e.format)
}

// ExportAs writes t as <t.Name>.<format>.
func (e *Exporter) ExportAs(ctx context.Context, t Table, format Format) (blob.Info, error) {
	var buf bytes.Buffer
	var contentType string
	switch format {
	case CSV:
		contentType = "text/csv"
		if err := WriteCSV(&buf, t); err != nil {
			return blob.Info{}, err
		}
	case NetCDF:
		contentType = "application/x-netcdf"
		if err := encodeNetCDF(&buf, t); err != nil {
			return blob.Info{}, err
		}
	default:
		return blob.Info{}, fmt.Errorf("unknown export format %q", format)
	}
	meta := maps.Clone(t.Attrs)
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta[BatchKey] = e.batch
	key := t.Name + "." + string(format)
	info, err := e.store.Put(ctx, key, &buf, blob.PutOptions{ContentType: contentType, Metadata: meta})
	if err != nil {
		return blob.Info{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	ctxlog.FromContext(ctx).Info("Exported table.", "key", key, "size", info.Size, "driver", e.store.Driver(), "batch", e.batch)
	return info, nil
}

// encodeNetCDF goes through a temporary file, the writer needs a path.
func encodeNetCDF(buf *bytes.Buffer, t Table) error {
	dir, err := os.MkdirTemp("", "musicscripts-export-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "table.nc")
	if err := WriteNetCDF(path, t); err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
