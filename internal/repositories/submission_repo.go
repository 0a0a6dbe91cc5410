package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/models"
)

var (
	// ErrPendingExists is returned when a guarded insert finds another pending
	// submission for the same subject and actor.
	ErrPendingExists = apperr.Conflict("pending submission exists for subject and actor")
	// ErrNotPending is returned when a review finds the row already transitioned.
	ErrNotPending = apperr.Conflict("submission is no longer pending")
)

const submissionColumns = `id, type, subject_type, subject_ref, actor_token, payload_old, payload_new,
	status, notes, consent_id, created_at, reviewed_at, reviewer_token, review_notes`

type SubmissionRepo struct {
	db DB
}

func NewSubmissionRepo(db DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var s models.Submission
	var oldRaw, newRaw []byte
	if err := row.Scan(&s.ID, &s.Type, &s.SubjectType, &s.SubjectRef, &s.ActorToken, &oldRaw, &newRaw,
		&s.Status, &s.Notes, &s.ConsentID, &s.CreatedAt, &s.ReviewedAt, &s.ReviewerToken, &s.ReviewNotes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(oldRaw, &s.PayloadOld); err != nil {
		return nil, fmt.Errorf("submission %s payload_old: %w", s.ID, err)
	}
	if err := json.Unmarshal(newRaw, &s.PayloadNew); err != nil {
		return nil, fmt.Errorf("submission %s payload_new: %w", s.ID, err)
	}
	return &s, nil
}

// Create inserts a pending submission in one guarded statement: the row is
// only written when no other pending submission exists for the same subject
// and actor. The partial unique index catches the remaining race.
func (r *SubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	oldJSON, err := json.Marshal(s.PayloadOld)
	if err != nil {
		return apperr.ValidationField("payload_old", err.Error())
	}
	newJSON, err := json.Marshal(s.PayloadNew)
	if err != nil {
		return apperr.ValidationField("payload_new", err.Error())
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO submissions (id, type, subject_type, subject_ref, actor_token, payload_old, payload_new, status, notes, consent_id)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE $4::uuid IS NULL OR NOT EXISTS (
			SELECT 1 FROM submissions WHERE subject_ref = $4 AND actor_token = $5 AND status = 'pending'
		)
		RETURNING created_at
	`, s.ID, s.Type, s.SubjectType, s.SubjectRef, s.ActorToken, oldJSON, newJSON, s.Status, s.Notes, s.ConsentID,
	).Scan(&s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return ErrPendingExists
	}
	return mapError(err, "insert submission", "submission")
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	row := r.db.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	s, err := scanSubmission(row)
	if err != nil {
		return nil, mapError(err, "get submission", "submission")
	}
	return s, nil
}

// FindPending returns pending submissions of actor for a subject, newest first.
func (r *SubmissionRepo) FindPending(ctx context.Context, subjectRef uuid.UUID, actorToken string) ([]models.Submission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE subject_ref = $1 AND actor_token = $2 AND status = 'pending'
		ORDER BY created_at DESC
	`, subjectRef, actorToken)
	if err != nil {
		return nil, mapError(err, "find pending submissions", "submission")
	}
	return collectSubmissions(rows)
}

func applySubmissionFilter(b sq.SelectBuilder, f models.SubmissionFilter) sq.SelectBuilder {
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": *f.Status})
	}
	if f.SubjectType != nil {
		b = b.Where(sq.Eq{"subject_type": *f.SubjectType})
	}
	if f.Type != nil {
		b = b.Where(sq.Eq{"type": string(*f.Type)})
	}
	if f.Start != nil {
		b = b.Where(sq.GtOrEq{"created_at": *f.Start})
	}
	if f.End != nil {
		b = b.Where(sq.Lt{"created_at": *f.End})
	}
	return b
}

// List returns one page of the moderation queue, newest first.
func (r *SubmissionRepo) List(ctx context.Context, f models.SubmissionFilter) ([]models.Submission, error) {
	b := applySubmissionFilter(psql.Select(submissionColumns).From("submissions"), f).
		OrderBy("created_at DESC", "id DESC")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, apperr.Dependency("build submission list query", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list submissions", "submission")
	}
	return collectSubmissions(rows)
}

func (r *SubmissionRepo) Count(ctx context.Context, f models.SubmissionFilter) (int, error) {
	query, args, err := applySubmissionFilter(psql.Select("count(*)").From("submissions"), f).ToSql()
	if err != nil {
		return 0, apperr.Dependency("build submission count query", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, mapError(err, "count submissions", "submission")
	}
	return total, nil
}

// Review applies a terminal transition only if the row is still pending.
// ErrNotPending means nothing was updated: the id is unknown or another
// reviewer got there first.
func (r *SubmissionRepo) Review(ctx context.Context, u models.ReviewUpdate) (*models.Submission, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE submissions
		SET status = $1, reviewed_at = $2, reviewer_token = $3, review_notes = $4
		WHERE id = $5 AND status = 'pending'
		RETURNING `+submissionColumns,
		u.Status, u.ReviewedAt, u.ReviewerToken, u.ReviewNotes, u.ID)
	s, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, mapError(err, "review submission", "submission")
	}
	return s, nil
}

// CountDecisions counts reviews made since the given time plus the current
// pending backlog.
func (r *SubmissionRepo) CountDecisions(ctx context.Context, since time.Time) (models.ModerationDecisions, error) {
	var d models.ModerationDecisions
	rows, err := r.db.Query(ctx, `
		SELECT status, count(*)
		FROM submissions
		WHERE status = 'pending' OR reviewed_at >= $1
		GROUP BY status
	`, since)
	if err != nil {
		return d, mapError(err, "count moderation decisions", "submission")
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return d, mapError(err, "scan moderation decisions", "submission")
		}
		switch status {
		case models.SubmissionStatusApproved:
			d.Approved = n
		case models.SubmissionStatusRejected:
			d.Rejected = n
		case models.SubmissionStatusArchived:
			d.Archived = n
		case models.SubmissionStatusPending:
			d.Pending = n
		}
	}
	if err := rows.Err(); err != nil {
		return d, mapError(err, "count moderation decisions", "submission")
	}
	d.Total = d.Approved + d.Rejected + d.Archived
	return d, nil
}

func collectSubmissions(rows pgx.Rows) ([]models.Submission, error) {
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, mapError(err, "scan submission", "submission")
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "read submissions", "submission")
	}
	return subs, nil
}
