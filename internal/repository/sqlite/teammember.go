package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/model"
	"github.com/harplab/site-api/internal/repository"
)

// compile-time check that *TeamMemberStore implements repository.TeamMemberRepository
var _ repository.TeamMemberRepository = (*TeamMemberStore)(nil)

const memberColumns = `id, name, role, github_url, linkedin_url, semester, member_type, founder, created_at`

// Create inserts a member row and its optional portrait in one
// transaction.
func (s *TeamMemberStore) Create(ctx context.Context, member *model.TeamMember, image *model.Image) error {
	if member.ID == "" {
		member.ID = xid.New().String()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}

	return inTx(ctx, s.conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO team_members (id, name, role, github_url, linkedin_url, semester, member_type, founder, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			member.ID,
			member.Name,
			member.Role,
			member.GitHubURL,
			member.LinkedInURL,
			member.Semester,
			member.MemberType,
			member.Founder,
			member.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting team member: %w", err)
		}

		if image != nil {
			return insertImage(ctx, tx, "team_member_images", "member_id", member.ID, image)
		}
		return nil
	})
}

// List returns roster entries matching the filter. Ordering is left
// to the service layer, which applies the founder/role-priority ranking in
// Go where it can be unit-tested.
func (s *TeamMemberStore) List(ctx context.Context, filter repository.TeamMemberFilter) ([]model.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members`
	args := []any{}
	switch {
	case filter.Semester != "":
		query += ` WHERE semester = ?`
		args = append(args, filter.Semester)
	case filter.MemberType != "":
		query += ` WHERE member_type = ?`
		args = append(args, filter.MemberType)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing team members: %w", err)
	}
	defer rows.Close()

	members := []model.TeamMember{}
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.GitHubURL, &m.LinkedInURL,
			&m.Semester, &m.MemberType, &m.Founder, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning team member row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetByID retrieves a single team member.
func (s *TeamMemberStore) GetByID(ctx context.Context, id string) (*model.TeamMember, error) {
	var m model.TeamMember
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Role, &m.GitHubURL, &m.LinkedInURL,
		&m.Semester, &m.MemberType, &m.Founder, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("team member", id)
		}
		return nil, fmt.Errorf("sqlite: getting team member %s: %w", id, err)
	}
	return &m, nil
}

// GetImage returns a member's portrait.
func (s *TeamMemberStore) GetImage(ctx context.Context, memberID string) (*model.Image, error) {
	var img model.Image
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, member_id, data, mime_type, uploaded_at
		 FROM team_member_images WHERE member_id = ?`,
		memberID,
	).Scan(&img.ID, &img.OwnerID, &img.Data, &img.MimeType, &img.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("team member image", memberID)
		}
		return nil, fmt.Errorf("sqlite: getting team member image %s: %w", memberID, err)
	}
	return &img, nil
}

// Update replaces every member field and, when image is non-nil,
// swaps the portrait, all in one transaction. Full-field replace matches the
// create validation: the service re-validates required fields before calling.
func (s *TeamMemberStore) Update(ctx context.Context, member *model.TeamMember, image *model.Image) error {
	return inTx(ctx, s.conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE team_members
			 SET name = ?, role = ?, github_url = ?, linkedin_url = ?, semester = ?, member_type = ?, founder = ?
			 WHERE id = ?`,
			member.Name,
			member.Role,
			member.GitHubURL,
			member.LinkedInURL,
			member.Semester,
			member.MemberType,
			member.Founder,
			member.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating team member %s: %w", member.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: updating team member %s: %w", member.ID, err)
		}
		if n == 0 {
			return apperror.NotFound("team member", member.ID)
		}

		if image != nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM team_member_images WHERE member_id = ?`, member.ID); err != nil {
				return fmt.Errorf("sqlite: replacing team member image %s: %w", member.ID, err)
			}
			return insertImage(ctx, tx, "team_member_images", "member_id", member.ID, image)
		}
		return nil
	})
}

// Delete removes the image row (if any) and then the member row as one
// atomic unit.
func (s *TeamMemberStore) Delete(ctx context.Context, id string) error {
	return inTx(ctx, s.conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM team_member_images WHERE member_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting team member image %s: %w", id, err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting team member %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: deleting team member %s: %w", id, err)
		}
		if n == 0 {
			return apperror.NotFound("team member", id)
		}
		return nil
	})
}
