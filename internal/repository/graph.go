package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
)

type GraphRepository interface {
	// ReplaceDocument drops every row previously written for doc.ID and
	// writes the new set in one transaction. Nodes are upserted.
	ReplaceDocument(ctx context.Context, doc entity.GraphDocument, chunks []entity.Chunk, nodes []entity.Node, edges []entity.Edge) error
	CountDocuments(ctx context.Context) (int, error)
	ListDocuments(ctx context.Context) ([]entity.GraphDocument, error)
	ListChunks(ctx context.Context) ([]entity.Chunk, error)
	ListNodes(ctx context.Context) ([]entity.Node, error)
	ListEdges(ctx context.Context) ([]entity.Edge, error)
}

type graphRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewGraphRepository(db *DB, logger *slog.Logger) GraphRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &graphRepository{
		db:     db,
		logger: logger,
	}
}

func (r *graphRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *graphRepository) ReplaceDocument(ctx context.Context, doc entity.GraphDocument, chunks []entity.Chunk, nodes []entity.Node, edges []entity.Edge) (err error) {
	b := r.builder()
	stmts := []entsql.Querier{
		b.Delete(tableEdges).Where(entsql.EQ("document_id", doc.ID)),
		b.Delete(tableChunks).Where(entsql.EQ("document_id", doc.ID)),
		b.Delete(tableDocuments).Where(entsql.EQ("id", doc.ID)),
		b.Insert(tableDocuments).
			Columns("id", "source_file", "page_count", "used_primary", "math_blocks", "chunk_count", "indexed_at").
			Values(doc.ID, doc.SourceFile, doc.PageCount, doc.UsedPrimary, doc.MathBlocks, doc.ChunkCount,
				doc.IndexedAt.UTC().Format(time.RFC3339)),
	}

	for _, c := range chunks {
		var blob []byte
		if len(c.Embedding) > 0 {
			if blob, err = msgpack.Marshal(c.Embedding); err != nil {
				return fmt.Errorf("encode embedding: %w", err)
			}
		}
		stmts = append(stmts, b.Insert(tableChunks).
			Columns("id", "document_id", "seq", "source_file", "text", "embedding").
			Values(c.ID, c.DocumentID, c.Seq, c.SourceFile, c.Text, blob))
	}
	for _, n := range nodes {
		stmts = append(stmts, b.Insert(tableNodes).
			Columns("id", "name", "label").
			Values(n.ID, n.Name, n.Label).
			OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	}
	for _, e := range edges {
		stmts = append(stmts, b.Insert(tableEdges).
			Columns("id", "document_id", "chunk_id", "subject_id", "subject_name", "relation", "object_id", "object_name").
			Values(e.ID, e.DocumentID, e.ChunkID, e.SubjectID, e.SubjectName, e.Relation, e.ObjectID, e.ObjectName).
			OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	}

	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return common.Tag(common.ErrDatabase, fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	for _, st := range stmts {
		if err = execQuerier(ctx, tx, st); err != nil {
			r.logger.Error("failed to write document graph", "document_id", doc.ID, "error", err)
			return common.Tag(common.ErrDatabase, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return common.Tag(common.ErrDatabase, fmt.Errorf("commit: %w", err))
	}

	r.logger.Debug("document graph written",
		"document_id", doc.ID,
		"chunks", len(chunks),
		"nodes", len(nodes),
		"edges", len(edges),
	)
	return nil
}

func (r *graphRepository) CountDocuments(ctx context.Context) (int, error) {
	b := r.builder()
	var n int
	err := r.query(ctx, b.Select(entsql.Count("*")).From(b.Table(tableDocuments)), func(rows *entsql.Rows) error {
		return rows.Scan(&n)
	})
	return n, err
}

func (r *graphRepository) ListDocuments(ctx context.Context) ([]entity.GraphDocument, error) {
	b := r.builder()
	sel := b.Select("id", "source_file", "page_count", "used_primary", "math_blocks", "chunk_count", "indexed_at").
		From(b.Table(tableDocuments)).
		OrderBy("source_file", "id")

	var out []entity.GraphDocument
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			d       entity.GraphDocument
			indexed string
		)
		if err := rows.Scan(&d.ID, &d.SourceFile, &d.PageCount, &d.UsedPrimary, &d.MathBlocks, &d.ChunkCount, &indexed); err != nil {
			return err
		}
		d.IndexedAt, _ = time.Parse(time.RFC3339, indexed)
		out = append(out, d)
		return nil
	})
	return out, err
}

func (r *graphRepository) ListChunks(ctx context.Context) ([]entity.Chunk, error) {
	b := r.builder()
	sel := b.Select("id", "document_id", "seq", "source_file", "text", "embedding").
		From(b.Table(tableChunks)).
		OrderBy("document_id", "seq")

	var out []entity.Chunk
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			c    entity.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Seq, &c.SourceFile, &c.Text, &blob); err != nil {
			return err
		}
		if len(blob) > 0 {
			if err := msgpack.Unmarshal(blob, &c.Embedding); err != nil {
				return fmt.Errorf("decode embedding for chunk %s: %w", c.ID, err)
			}
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func (r *graphRepository) ListNodes(ctx context.Context) ([]entity.Node, error) {
	b := r.builder()
	sel := b.Select("id", "name", "label").From(b.Table(tableNodes)).OrderBy("label", "name")

	var out []entity.Node
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var n entity.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Label); err != nil {
			return err
		}
		out = append(out, n)
		return nil
	})
	return out, err
}

func (r *graphRepository) ListEdges(ctx context.Context) ([]entity.Edge, error) {
	b := r.builder()
	sel := b.Select("id", "document_id", "chunk_id", "subject_id", "subject_name", "relation", "object_id", "object_name").
		From(b.Table(tableEdges)).
		OrderBy("document_id", "chunk_id", "id")

	var out []entity.Edge
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var e entity.Edge
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.ChunkID, &e.SubjectID, &e.SubjectName, &e.Relation, &e.ObjectID, &e.ObjectName); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// query runs sel and calls scan once per row.
func (r *graphRepository) query(ctx context.Context, sel entsql.Querier, scan func(*entsql.Rows) error) error {
	q, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		r.logger.Error("query failed", "query", q, "error", err)
		return common.Tag(common.ErrDatabase, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("rows close error", "error", err)
		}
	}()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return common.Tag(common.ErrDatabase, err)
		}
	}
	if err := rows.Err(); err != nil {
		return common.Tag(common.ErrDatabase, err)
	}
	return nil
}

func execQuerier(ctx context.Context, ex dialect.ExecQuerier, st entsql.Querier) error {
	q, args := st.Query()
	if err := ex.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("exec %q: %w", q, err)
	}
	return nil
}
