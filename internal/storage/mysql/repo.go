package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"soarfare/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valF64(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

// Repo keeps the last good copy of marketing content.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ReplaceFAQs(ctx context.Context, items []domain.FAQ) error {
	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*4)
	for i, f := range items {
		values = append(values, "(?,?,?,?)")
		args = append(args, i, valStr(f.ID), f.Question, f.Answer)
	}
	return r.replace(ctx, deleteFAQsSQL, insertFAQsPrefix, values, args)
}

func (r *Repo) ReplaceTestimonials(ctx context.Context, items []domain.Testimonial) error {
	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*7)
	for i, t := range items {
		values = append(values, "(?,?,?,?,?,?,?)")
		args = append(args, i, valStr(t.ID), t.Name, valStr(t.Role), t.Quote, valF64(t.Rating), valStr(t.AvatarURL))
	}
	return r.replace(ctx, deleteTestimonialsSQL, insertTestimonialsPrefix, values, args)
}

// replace swaps a snapshot table's contents atomically.
func (r *Repo) replace(ctx context.Context, deleteSQL, insertPrefix string, values []string, args []any) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteSQL); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if len(values) > 0 {
		if _, err = tx.ExecContext(ctx, insertPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	return tx.Commit()
}

func (r *Repo) LogMiss(ctx context.Context, kind string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, kind, status, reason)
	return err
}

func (r *Repo) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	rows, err := r.db.QueryContext(ctx, listFAQsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FAQ
	for rows.Next() {
		var (
			id  sql.NullString
			faq domain.FAQ
		)
		if err := rows.Scan(&id, &faq.Question, &faq.Answer); err != nil {
			return nil, err
		}
		faq.ID = id.String
		out = append(out, faq)
	}
	return out, rows.Err()
}

func (r *Repo) ListTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	rows, err := r.db.QueryContext(ctx, listTestimonialsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Testimonial
	for rows.Next() {
		var (
			id, role, avatar sql.NullString
			rating           sql.NullFloat64
			t                domain.Testimonial
		)
		if err := rows.Scan(&id, &t.Name, &role, &t.Quote, &rating, &avatar); err != nil {
			return nil, err
		}
		t.ID = id.String
		t.Role = role.String
		t.Rating = rating.Float64
		t.AvatarURL = avatar.String
		out = append(out, t)
	}
	return out, rows.Err()
}
