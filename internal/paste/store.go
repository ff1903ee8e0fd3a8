package paste

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/pastemark/internal/auth"
	"github.com/ziadkadry99/pastemark/internal/db"
	"github.com/ziadkadry99/pastemark/internal/filetable"
)

// Store provides CRUD operations for pastes. Expired pastes are treated as
// absent by every read until Reap removes them.
type Store struct {
	db     *db.DB
	limits Limits
	now    func() time.Time
}

// NewStore creates a new paste store.
func NewStore(d *db.DB, limits Limits) *Store {
	return &Store{db: d, limits: limits, now: time.Now}
}

// Limits returns the limits the store validates against.
func (s *Store) Limits() Limits { return s.limits }

// Create validates and inserts a paste with its files, assigning ids and
// positions in slice order. It sets p.RemovalToken; only its hash is kept.
func (s *Store) Create(ctx context.Context, p *Paste) error {
	if err := p.Validate(s.limits); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Source == "" {
		p.Source = SourceWeb
	}
	p.CreatedAt = s.now().UTC()
	p.ExpiresAt = nil
	var expires sql.NullInt64
	if p.Expiry > 0 {
		at := p.CreatedAt.Add(p.Expiry).Truncate(time.Second)
		p.ExpiresAt = &at
		expires = sql.NullInt64{Int64: at.Unix(), Valid: true}
	}
	token := auth.NewToken()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pastes (id, source, removal_hash, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, string(p.Source), auth.Hash(token), p.CreatedAt, expires,
	); err != nil {
		return fmt.Errorf("creating paste: %w", err)
	}

	for i := range p.Files {
		f := &p.Files[i]
		f.ID = uuid.NewString()
		f.Position = i
		if f.Lexer == "" {
			f.Lexer = filetable.AutoDetect
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO paste_files (id, paste_id, position, filename, lexer, content) VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, p.ID, f.Position, f.Filename, f.Lexer, f.Content,
		); err != nil {
			return fmt.Errorf("creating file %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing paste: %w", err)
	}
	p.RemovalToken = token
	return nil
}

// notExpired is the condition matching pastes that have not expired.
const notExpired = `(p.expires_at IS NULL OR p.expires_at > ?)`

// Get retrieves a paste with its files in page order.
func (s *Store) Get(ctx context.Context, id string) (*Paste, error) {
	p := &Paste{}
	var (
		source  string
		expires sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT p.id, p.source, p.created_at, p.expires_at FROM pastes p WHERE p.id = ? AND `+notExpired,
		id, s.now().Unix(),
	).Scan(&p.ID, &source, &p.CreatedAt, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting paste: %w", err)
	}
	p.Source = Source(source)
	p.ExpiresAt = expiresAt(expires)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, position, filename, lexer, content FROM paste_files WHERE paste_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("getting files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Position, &f.Filename, &f.Lexer, &f.Content); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		p.Files = append(p.Files, f)
	}
	return p, rows.Err()
}

// GetFile retrieves a single file of a live paste by the file's own id.
func (s *Store) GetFile(ctx context.Context, id string) (*File, error) {
	f := &File{}
	err := s.db.QueryRowContext(ctx,
		`SELECT f.id, f.position, f.filename, f.lexer, f.content
		 FROM paste_files f JOIN pastes p ON p.id = f.paste_id
		 WHERE f.id = ? AND `+notExpired, id, s.now().Unix(),
	).Scan(&f.ID, &f.Position, &f.Filename, &f.Lexer, &f.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}
	return f, nil
}

// Summary is a paste without file contents.
type Summary struct {
	ID        string     `json:"id"`
	Source    Source     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	FileCount int        `json:"file_count"`
}

// List returns the most recent live pastes first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.source, p.created_at, p.expires_at, COUNT(f.id)
		 FROM pastes p LEFT JOIN paste_files f ON f.paste_id = p.id
		 WHERE `+notExpired+`
		 GROUP BY p.id ORDER BY p.created_at DESC, p.id LIMIT ?`, s.now().Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("listing pastes: %w", err)
	}
	defer rows.Close()

	var result []Summary
	for rows.Next() {
		var (
			sum     Summary
			source  string
			expires sql.NullInt64
		)
		if err := rows.Scan(&sum.ID, &source, &sum.CreatedAt, &expires, &sum.FileCount); err != nil {
			return nil, fmt.Errorf("scanning paste: %w", err)
		}
		sum.Source = Source(source)
		sum.ExpiresAt = expiresAt(expires)
		result = append(result, sum)
	}
	return result, rows.Err()
}

// Remove deletes the paste whose removal token is token and returns its id.
// An expired paste can still be removed.
func (s *Store) Remove(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}
	var id, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, removal_hash FROM pastes WHERE removal_hash = ?`, auth.Hash(token),
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up removal token: %w", err)
	}
	if !auth.Verify(token, hash) {
		return "", ErrNotFound
	}
	if err := s.deleteIDs(ctx, []string{id}); err != nil {
		return "", err
	}
	return id, nil
}

// Reap deletes every paste past its expiry and returns their ids.
func (s *Store) Reap(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM pastes WHERE expires_at IS NOT NULL AND expires_at <= ? ORDER BY id`, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("finding expired pastes: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning expired paste: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding expired pastes: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := s.deleteIDs(ctx, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// deleteIDs removes pastes and their files in one transaction.
func (s *Store) deleteIDs(ctx context.Context, ids []string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM paste_files WHERE paste_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("deleting files: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM pastes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("deleting pastes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func expiresAt(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

// RunReaper calls Reap every interval until ctx is done, passing each
// reaped id to onReap.
func (s *Store) RunReaper(ctx context.Context, interval time.Duration, onReap func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := s.Reap(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("paste: reaping expired pastes: %v", err)
				}
				continue
			}
			if len(ids) > 0 {
				log.Printf("paste: reaped %d expired pastes", len(ids))
			}
			if onReap != nil {
				for _, id := range ids {
					onReap(id)
				}
			}
		}
	}
}
