// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mattermost/mattermost-issuetracker/model"
)

const selectIssueColumns = `SELECT Id, Title, Description, CreateAt FROM Issues`

type issueRow struct {
	ID          string         `db:"Id"`
	Title       sql.NullString `db:"Title"`
	Description sql.NullString `db:"Description"`
	CreateAt    int64          `db:"CreateAt"`
}

func newIssueRow(id string, issue *model.Issue) *issueRow {
	return &issueRow{
		ID:          id,
		Title:       toNullString(issue.Title),
		Description: toNullString(issue.Description),
	}
}

func (r *issueRow) toModel() *model.Issue {
	return &model.Issue{
		ID:          r.ID,
		Title:       fromNullString(r.Title),
		Description: fromNullString(r.Description),
	}
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type SQLIssueStore struct {
	*SQLStore
}

func NewSQLIssueStore(sqlStore *SQLStore) IssueStore {
	return &SQLIssueStore{sqlStore}
}

func (s SQLIssueStore) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	row := newIssueRow(newID(), issue)
	row.CreateAt = time.Now().UnixNano() / int64(time.Millisecond)

	if _, err := s.dbx.NamedExecContext(ctx,
		`INSERT INTO Issues
			(Id, Title, Description, CreateAt)
		VALUES
			(:Id, :Title, :Description, :CreateAt)`, row); err != nil {
		return nil, fmt.Errorf("could not insert issue: %w", err)
	}
	return row.toModel(), nil
}

func (s SQLIssueStore) Get(ctx context.Context, id string) (*model.Issue, error) {
	if !isValidID(id) {
		return nil, ErrNotFound
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	var row issueRow
	if err := s.dbx.GetContext(ctx, &row, selectIssueColumns+` WHERE Id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not get issue: id=%v, err=%w", id, err)
	}
	return row.toModel(), nil
}

func (s SQLIssueStore) List(ctx context.Context) ([]*model.Issue, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	var rows []issueRow
	if err := s.dbx.SelectContext(ctx, &rows, selectIssueColumns+` ORDER BY CreateAt, Id`); err != nil {
		return nil, fmt.Errorf("could not list issues: %w", err)
	}

	issues := make([]*model.Issue, 0, len(rows))
	for i := range rows {
		issues = append(issues, rows[i].toModel())
	}
	return issues, nil
}

func (s SQLIssueStore) Update(ctx context.Context, id string, issue *model.Issue) (*model.Issue, error) {
	if !isValidID(id) {
		return nil, ErrNotFound
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	tx, err := s.dbx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer s.finalizeTx(tx)

	var current issueRow
	if err = tx.GetContext(ctx, &current, selectIssueColumns+` WHERE Id = ? FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not get issue for update: id=%v, err=%w", id, err)
	}

	row := newIssueRow(id, issue)
	row.CreateAt = current.CreateAt
	if _, err = tx.NamedExecContext(ctx,
		`UPDATE Issues
		 SET Title = :Title, Description = :Description
		 WHERE Id = :Id`, row); err != nil {
		return nil, fmt.Errorf("could not update issue: id=%v, err=%w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit issue update: id=%v, err=%w", id, err)
	}
	return row.toModel(), nil
}

func (s SQLIssueStore) Delete(ctx context.Context, id string) (*model.Issue, error) {
	if !isValidID(id) {
		return nil, ErrNotFound
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	tx, err := s.dbx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer s.finalizeTx(tx)

	var row issueRow
	if err = tx.GetContext(ctx, &row, selectIssueColumns+` WHERE Id = ? FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not get issue for delete: id=%v, err=%w", id, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM Issues WHERE Id = ?`, id); err != nil {
		return nil, fmt.Errorf("could not delete issue: id=%v, err=%w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit issue delete: id=%v, err=%w", id, err)
	}
	return row.toModel(), nil
}
