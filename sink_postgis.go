package randsample

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	DefaultTable   = "random_sample"
	postgisBatchSz = 500
)

type postgisSink struct {
	ctx    context.Context
	conn   *pgx.Conn
	insert string
	epsg   int
	batch  *pgx.Batch
}

func createPostGIS(ctx context.Context, dsn, table string, epsg int) (Sink, error) {
	if table == "" {
		table = DefaultTable
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgis connect: %w", err)
	}

	// replaced on every export, like the file outputs
	ident := pgx.Identifier{table}.Sanitize()
	if _, err := conn.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, ident)); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("postgis drop table: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE %s (
		%s integer PRIMARY KEY,
		%s double precision NOT NULL,
		geom geometry(Point, %d) NOT NULL
	)`, ident, fieldID, fieldValue, epsg)
	if _, err := conn.Exec(ctx, ddl); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("postgis create table: %w", err)
	}

	return &postgisSink{
		ctx:  ctx,
		conn: conn,
		insert: fmt.Sprintf(`INSERT INTO %s (%s, %s, geom) VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), $5))`,
			ident, fieldID, fieldValue),
		epsg:  epsg,
		batch: &pgx.Batch{},
	}, nil
}

func (s *postgisSink) Write(ctx context.Context, rec Record) error {
	s.batch.Queue(s.insert, rec.ID, rec.Value, rec.Point[0], rec.Point[1], s.epsg)
	if s.batch.Len() >= postgisBatchSz {
		return s.flush(ctx)
	}
	return nil
}

func (s *postgisSink) flush(ctx context.Context) error {
	if s.batch.Len() == 0 {
		return nil
	}
	err := s.conn.SendBatch(ctx, s.batch).Close()
	s.batch = &pgx.Batch{}
	if err != nil {
		return fmt.Errorf("postgis insert: %w", err)
	}
	return nil
}

func (s *postgisSink) Close() error {
	if s.conn == nil {
		return nil
	}
	ferr := s.flush(s.ctx)
	cerr := s.conn.Close(s.ctx)
	s.conn = nil
	return errors.Join(ferr, cerr)
}
