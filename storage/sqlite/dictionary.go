package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wricardo/roomgames/game/catalog"
)

// Pool filters per difficulty. They mirror catalog.Matches.
var difficultyWhere = map[string]string{
	catalog.Easy:   "collins >= 3 AND (tag LIKE '%gk%')",
	catalog.Normal: "collins >= 2 AND (tag LIKE '%cet4%' OR tag LIKE '%cet6%' OR tag LIKE '%ky%')",
	catalog.Hard:   "collins >= 1 AND (tag LIKE '%tem4%' OR tag LIKE '%ielts%' OR tag LIKE '%toefl%')",
	catalog.Hell:   "(tag LIKE '%tem8%' OR tag LIKE '%gre%' OR tag LIKE '%sat%')",
}

const promptColumns = `word, COALESCE(phonetic, ''), COALESCE(definition, ''), COALESCE(translation, ''),
	COALESCE(pos, ''), COALESCE(collins, 0), COALESCE(oxford, 0), COALESCE(tag, ''), COALESCE(exchange, '')`

// Dictionary is a catalog.Catalog over the dictionary table.
type Dictionary struct {
	sqlDB *sql.DB
}

// Dictionary returns the word catalog view of the store.
func (s *Store) Dictionary() *Dictionary { return &Dictionary{sqlDB: s.sqlDB} }

func (d *Dictionary) Random(ctx context.Context, mode string) (catalog.Prompt, bool, error) {
	where, ok := difficultyWhere[mode]
	if !ok {
		where = "collins >= 2"
	}
	return d.queryOne(ctx, `SELECT `+promptColumns+` FROM dictionary WHERE `+where+` ORDER BY RANDOM() LIMIT 1`)
}

func (d *Dictionary) ByWord(ctx context.Context, word string) (catalog.Prompt, bool, error) {
	return d.queryOne(ctx, `SELECT `+promptColumns+` FROM dictionary WHERE word = ? COLLATE NOCASE LIMIT 1`, word)
}

// ByFuzzy matches partial against the inflection column.
func (d *Dictionary) ByFuzzy(ctx context.Context, partial string) (catalog.Prompt, bool, error) {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return catalog.Prompt{}, false, nil
	}
	return d.queryOne(ctx, `SELECT `+promptColumns+` FROM dictionary WHERE exchange LIKE ? ORDER BY id LIMIT 1`, "%"+partial+"%")
}

// Import upserts words and returns how many rows were written.
func (d *Dictionary) Import(ctx context.Context, words []catalog.Prompt) (int, error) {
	tx, err := d.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dictionary
		(word, phonetic, definition, translation, pos, collins, oxford, tag, exchange)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET
		  phonetic = excluded.phonetic,
		  definition = excluded.definition,
		  translation = excluded.translation,
		  pos = excluded.pos,
		  collins = excluded.collins,
		  oxford = excluded.oxford,
		  tag = excluded.tag,
		  exchange = excluded.exchange`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, w := range words {
		if strings.TrimSpace(w.Word) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, w.Word, w.Phonetic, w.Definition, w.Translation,
			w.Pos, w.Collins, w.Oxford, w.Tag, w.Exchange); err != nil {
			return n, fmt.Errorf("import %q: %w", w.Word, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

func (d *Dictionary) queryOne(ctx context.Context, query string, args ...any) (catalog.Prompt, bool, error) {
	var p catalog.Prompt
	err := d.sqlDB.QueryRowContext(ctx, query, args...).Scan(
		&p.Word, &p.Phonetic, &p.Definition, &p.Translation,
		&p.Pos, &p.Collins, &p.Oxford, &p.Tag, &p.Exchange,
	)
	if err == sql.ErrNoRows {
		return catalog.Prompt{}, false, nil
	}
	if err != nil {
		return catalog.Prompt{}, false, fmt.Errorf("query dictionary: %w", err)
	}
	return p, true, nil
}
