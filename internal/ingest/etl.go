package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/angelcm/marketing-intel/internal/models"
	"github.com/angelcm/marketing-intel/internal/store"
)

var ErrNoSources = errors.New("no marketing sources configured")

// SourceSet is one session's extracts: any number of channel exports plus the
// business table.
type SourceSet struct {
	Marketing []Source `validate:"dive"`
	Business  Source
}

// LoadDataset loads every source in set. The first failing source aborts the load.
func (l *Loader) LoadDataset(ctx context.Context, set SourceSet) (models.Dataset, error) {
	var ds models.Dataset
	if len(set.Marketing) == 0 {
		return ds, ErrNoSources
	}
	for _, src := range set.Marketing {
		t, err := l.LoadMarketing(ctx, src)
		if err != nil {
			return ds, err
		}
		if t.Channel == "" {
			t.Channel = strings.ToLower(strings.TrimSpace(src.Channel))
		}
		ds.Marketing = append(ds.Marketing, t)
	}
	if set.Business.Location == "" {
		return ds, &LoadError{Source: "business", Err: ErrEmptySource}
	}
	biz, err := l.LoadBusiness(ctx, set.Business)
	if err != nil {
		return ds, err
	}
	ds.Business = biz
	return ds, nil
}

// Upload is one uploaded extract. Business marks the business table; otherwise
// Channel names the marketing channel.
type Upload struct {
	Name     string
	Channel  string
	Business bool
	Body     io.Reader
}

type ETL struct {
	loader *Loader
	st     *store.MemoryStore
	log    *slog.Logger
	set    SourceSet
}

func NewETL(loader *Loader, st *store.MemoryStore, log *slog.Logger, set SourceSet) *ETL {
	return &ETL{loader: loader, st: st, log: log, set: set}
}

// Run loads the configured sources and makes them the current dataset.
func (e *ETL) Run(ctx context.Context) (models.Dataset, error) {
	ds, err := e.loader.LoadDataset(ctx, e.set)
	if err != nil {
		return ds, err
	}
	ds = e.st.Put(ds)
	e.log.Info("dataset loaded",
		slog.String("dataset_id", ds.ID),
		slog.Int("marketing_tables", len(ds.Marketing)),
		slog.Int("business_rows", len(ds.Business.Records)))
	return ds, nil
}

const sourceSep = ", "

// appendTable adds t to tables, concatenating records when a table for the
// same channel is already present in the batch.
func appendTable(tables []models.MarketingTable, t models.MarketingTable) []models.MarketingTable {
	for i := range tables {
		if tables[i].Channel == t.Channel {
			tables[i].Source += sourceSep + t.Source
			tables[i].Records = append(tables[i].Records, t.Records...)
			return tables
		}
	}
	return append(tables, t)
}

// Ingest parses uploaded extracts and swaps them into the current dataset.
// Several files for one channel, or several business files, are concatenated.
// Nothing is stored unless every upload parses.
func (e *ETL) Ingest(uploads []Upload) (models.Dataset, error) {
	if len(uploads) == 0 {
		return models.Dataset{}, ErrEmptySource
	}
	var mkt []models.MarketingTable
	var biz *models.BusinessTable
	for _, u := range uploads {
		if u.Business {
			t, err := e.loader.Read(u.Name, u.Body, "")
			if err != nil {
				return models.Dataset{}, err
			}
			b, err := e.loader.Business(t)
			if err != nil {
				return models.Dataset{}, err
			}
			if biz != nil {
				b.Source = biz.Source + sourceSep + b.Source
				b.Records = append(biz.Records, b.Records...)
			}
			biz = &b
			continue
		}
		if u.Channel == "" {
			return models.Dataset{}, &LoadError{Source: u.Name, Err: fmt.Errorf("upload has no channel")}
		}
		t, err := e.loader.Read(u.Name, u.Body, u.Channel)
		if err != nil {
			return models.Dataset{}, err
		}
		m, err := e.loader.Marketing(t)
		if err != nil {
			return models.Dataset{}, err
		}
		m.Channel = strings.ToLower(strings.TrimSpace(u.Channel))
		mkt = appendTable(mkt, m)
	}
	ds := e.st.Replace(mkt, biz)
	e.log.Info("dataset updated from upload",
		slog.String("dataset_id", ds.ID),
		slog.Int("uploads", len(uploads)))
	return ds, nil
}
