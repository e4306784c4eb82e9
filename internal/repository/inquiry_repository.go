package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/theta-web/internal/model"
)

// InquiryFilter narrows List.  Zero values mean "any".
type InquiryFilter struct {
	Status model.Status
	Kind   model.Kind
}

// InquiryRepo persists quote and contact submissions together with their
// dashboard notifications.
type InquiryRepo struct {
	db *sql.DB
}

// NewInquiryRepo creates a new InquiryRepo with the given database connection.
func NewInquiryRepo(db *sql.DB) *InquiryRepo { return &InquiryRepo{db: db} }

const inquiryColumns = `id, schema_version, kind, name, email, phone, client_type,
	organization_name, company, project_location, project_type, message, documents,
	privacy_accepted, status, created_at, read_at, archived_at`

// CreateWithNotification inserts in as a new inquiry and its notification
// in one transaction.  On success in.ID, in.Status and in.CreatedAt are
// populated.
func (r *InquiryRepo) CreateWithNotification(ctx context.Context, in *model.Inquiry) error {
	docs := in.Documents
	if docs == nil {
		docs = []model.DocumentRef{}
	}
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO quotes
			(schema_version, kind, name, email, phone, client_type, organization_name,
			 project_location, project_type, message, documents, privacy_accepted, status, created_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			model.SchemaCurrent, string(in.Kind), in.Name, in.Email, nullStr(in.Phone),
			string(in.ClientType), nullStr(in.OrganizationName), nullStr(in.ProjectLocation),
			nullStr(string(in.ProjectType)), in.Message, docsJSON, in.PrivacyAccepted,
			string(model.StatusNew), now)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notifications (quote_id, kind, is_read, created_at) VALUES (?,?,FALSE,?)",
			id, string(in.Kind), now); err != nil {
			return err
		}
		in.ID = uint64(id)
		in.Status = model.StatusNew
		in.CreatedAt = now
		in.Documents = docs
		return nil
	})
}

// List returns inquiries matching f, newest first.
func (r *InquiryRepo) List(ctx context.Context, f InquiryFilter) ([]model.Inquiry, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(f.Status))
	}
	if f.Kind != "" {
		where = append(where, "kind=?")
		args = append(args, string(f.Kind))
	}
	q := "SELECT " + inquiryColumns + " FROM quotes"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Inquiry{}
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Get returns one inquiry or ErrInquiryNotFound.
func (r *InquiryRepo) Get(ctx context.Context, id uint64) (*model.Inquiry, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+inquiryColumns+" FROM quotes WHERE id=?", id)
	in, err := scanInquiry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInquiryNotFound
		}
		return nil, err
	}
	return &in, nil
}

// UpdateStatus moves inquiry id from status from to status to, stamping
// read_at or archived_at with at.  The update only applies while the row is
// still in from; otherwise ErrConflict (or ErrInquiryNotFound if the row is
// gone).  Entering read also marks the linked notification read, in the
// same transaction.
func (r *InquiryRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.Status, at time.Time) error {
	var set string
	switch to {
	case model.StatusRead:
		set = "status=?, read_at=?"
	case model.StatusArchived:
		set = "status=?, archived_at=?"
	default:
		set = "status=?"
	}
	args := []any{string(to)}
	if to == model.StatusRead || to == model.StatusArchived {
		args = append(args, at.UTC())
	}
	args = append(args, id, string(from))

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE quotes SET "+set+" WHERE id=? AND status=?", args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, "SELECT 1 FROM quotes WHERE id=?", id).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInquiryNotFound
			}
			if err != nil {
				return err
			}
			return ErrConflict
		}
		if to == model.StatusRead {
			if _, err := tx.ExecContext(ctx,
				"UPDATE notifications SET is_read=TRUE WHERE quote_id=?", id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the inquiry and its notifications.
func (r *InquiryRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE quote_id=?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM quotes WHERE id=?", id)
		if err != nil {
			return err
		}
		return requireOneRow(res, ErrInquiryNotFound)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInquiry(s rowScanner) (model.Inquiry, error) {
	var rec model.InquiryRecord
	err := s.Scan(&rec.ID, &rec.SchemaVersion, &rec.Kind, &rec.Name, &rec.Email, &rec.Phone,
		&rec.ClientType, &rec.OrganizationName, &rec.Company, &rec.ProjectLocation, &rec.ProjectType,
		&rec.Message, &rec.Documents, &rec.PrivacyAccepted, &rec.Status, &rec.CreatedAt,
		&rec.ReadAt, &rec.ArchivedAt)
	if err != nil {
		return model.Inquiry{}, err
	}
	return rec.Migrate()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
