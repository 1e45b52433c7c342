package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/corvidlabs/marsha/internal/rerrors"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
	"modernc.org/sqlite"
)

type sqliteStore struct {
	db       *sql.DB
	grammars *grammarsDB
	recs     *recognitionsDB
}

// NewDatastore opens (creating if necessary) the sqlite database under
// storageDir and returns a Store backed by it.
func NewDatastore(storageDir string) (Store, error) {
	fileName := filepath.Join(storageDir, "marsha.db")

	db, err := sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	s := &sqliteStore{db: db}
	s.grammars = &grammarsDB{db: db}
	if err := s.grammars.init(); err != nil {
		return nil, err
	}
	s.recs = &recognitionsDB{db: db}
	if err := s.recs.init(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *sqliteStore) Grammars() GrammarRepository         { return s.grammars }
func (s *sqliteStore) Recognitions() RecognitionRepository { return s.recs }
func (s *sqliteStore) Close() error                        { return s.db.Close() }

type grammarsDB struct {
	db *sql.DB
}

func (repo *grammarsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *grammarsDB) Close() error { return nil }

func (repo *grammarsDB) Create(ctx context.Context, name string, source []byte) (Grammar, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Grammar{}, rerrors.New("could not generate grammar ID", err)
	}

	now := time.Now()
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO grammars (id, name, source, created) VALUES (?, ?, ?, ?)`,
		id.String(), name, convertToDB_ByteSlice(source), now.Unix())
	if err != nil {
		return Grammar{}, wrapDBError(err)
	}

	return Grammar{ID: id, Name: name, Source: source, Created: now}, nil
}

func (repo *grammarsDB) GetByName(ctx context.Context, name string) (Grammar, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, name, source, created FROM grammars WHERE name = ?`, name)

	var idStr, encSource string
	var g Grammar
	var created int64
	if err := row.Scan(&idStr, &g.Name, &encSource, &created); err != nil {
		return Grammar{}, wrapDBError(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return Grammar{}, rerrors.New(fmt.Sprintf("stored grammar ID %q is invalid", idStr), err)
	}
	g.ID = id
	g.Created = time.Unix(created, 0)

	source, err := convertFromDB_ByteSlice(encSource)
	if err != nil {
		return Grammar{}, err
	}
	g.Source = source

	return g, nil
}

func (repo *grammarsDB) Delete(ctx context.Context, name string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE name = ?`, name)
	if err != nil {
		return wrapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if n == 0 {
		return rerrors.New(fmt.Sprintf("grammar %q", name), rerrors.ErrNotFound)
	}
	return nil
}

type recognitionsDB struct {
	db *sql.DB
}

func (repo *recognitionsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS recognitions (
		id TEXT NOT NULL PRIMARY KEY,
		grammar_name TEXT NOT NULL,
		input TEXT NOT NULL,
		accepted INTEGER NOT NULL,
		earlemes INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *recognitionsDB) Close() error { return nil }

func (repo *recognitionsDB) Create(ctx context.Context, rec Recognition) (Recognition, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Recognition{}, rerrors.New("could not generate recognition ID", err)
	}
	rec.ID = id
	rec.Created = time.Now()

	snapEnc := reziEncodeSnapshot(rec.Snapshot)

	accepted := 0
	if rec.Accepted {
		accepted = 1
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO recognitions (id, grammar_name, input, accepted, earlemes, snapshot, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.GrammarName, strings.Join(rec.Input, "\x1f"), accepted, rec.Earlemes,
		convertToDB_ByteSlice(snapEnc), rec.Created.Unix())
	if err != nil {
		return Recognition{}, wrapDBError(err)
	}

	return rec, nil
}

func (repo *recognitionsDB) GetByID(ctx context.Context, id uuid.UUID) (Recognition, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT grammar_name, input, accepted, earlemes, snapshot, created FROM recognitions WHERE id = ?`,
		id.String())

	var rec Recognition
	var input, snapJSON string
	var accepted int
	var created int64
	if err := row.Scan(&rec.GrammarName, &input, &accepted, &rec.Earlemes, &snapJSON, &created); err != nil {
		return Recognition{}, wrapDBError(err)
	}

	rec.ID = id
	rec.Accepted = accepted != 0
	rec.Created = time.Unix(created, 0)
	if input != "" {
		rec.Input = strings.Split(input, "\x1f")
	}

	snapEnc, err := convertFromDB_ByteSlice(snapJSON)
	if err != nil {
		return Recognition{}, err
	}
	snap, err := reziDecodeSnapshot(snapEnc)
	if err != nil {
		return Recognition{}, err
	}
	rec.Snapshot = snap

	return rec, nil
}

// convertToDB_ByteSlice mirrors the teacher's base64-encode-for-TEXT-column
// convention for arbitrary binary payloads.
func convertToDB_ByteSlice(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func convertFromDB_ByteSlice(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, rerrors.New("stored bytes are not valid base64", err)
	}
	return decoded, nil
}

// reziEncodeSnapshot and reziDecodeSnapshot exist so internal/store keeps
// using dekarrin/rezi for binary payload encoding, matching the teacher's
// choice for its own GameState-in-sqlite payloads, in the one place marsha
// needs to serialize a same-process-only intermediate value rather than a
// portable document (ChartSnapshot is that value; the grammars/recognitions
// table schema itself otherwise stores plain text/integer columns).
func reziEncodeSnapshot(snap ChartSnapshot) []byte {
	return rezi.EncBinary(snap)
}

func reziDecodeSnapshot(data []byte) (ChartSnapshot, error) {
	var snap ChartSnapshot
	n, err := rezi.DecBinary(data, &snap)
	if err != nil {
		return ChartSnapshot{}, rerrors.New("REZI decode of chart snapshot", err)
	}
	if n != len(data) {
		return ChartSnapshot{}, rerrors.New(fmt.Sprintf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(data)))
	}
	return snap, nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return rerrors.New("", rerrors.ErrAlreadyExists)
		}
		return rerrors.New(sqlite.ErrorCodeString[sqliteErr.Code()], rerrors.ErrStore)
	} else if errors.Is(err, sql.ErrNoRows) {
		return rerrors.New("", rerrors.ErrNotFound)
	}
	return rerrors.WrapStore("", err)
}
