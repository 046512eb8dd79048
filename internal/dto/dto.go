// Package dto holds the JSON shapes shared by the REST responses and the
// realtime event payloads.
package dto

import (
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
)

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Member struct {
	User UserSummary `json:"user"`
	Role string      `json:"role"`
}

type Column struct {
	Title string `json:"title"`
	Order int    `json:"order"`
}

type Board struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Background  string      `json:"background"`
	Owner       UserSummary `json:"owner"`
	Members     []Member    `json:"members"`
	Columns     []Column    `json:"columns"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Task struct {
	ID          uuid.UUID    `json:"id"`
	Board       uuid.UUID    `json:"board"`
	Column      string       `json:"column"`
	Order       int          `json:"order"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    string       `json:"priority"`
	AssignedTo  *UserSummary `json:"assignedTo"`
	CreatedBy   UserSummary  `json:"createdBy"`
	DueDate     *time.Time   `json:"dueDate"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type MemberAddedPayload struct {
	BoardID uuid.UUID `json:"boardId"`
	Member  Member    `json:"member"`
}

type MemberRemovedPayload struct {
	BoardID uuid.UUID `json:"boardId"`
	UserID  uuid.UUID `json:"userId"`
}

type BoardDeletedPayload struct {
	BoardID uuid.UUID `json:"boardId"`
}

func UserFromModel(u model.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func MemberFromModel(m model.BoardMember) Member {
	out := Member{User: UserFromModel(m.User), Role: m.Role}
	if out.User.ID == uuid.Nil {
		out.User.ID = m.UserID
	}
	return out
}

func BoardFromModel(b *model.Board) Board {
	out := Board{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Background:  b.Background,
		Owner:       UserFromModel(b.Owner),
		Members:     make([]Member, 0, len(b.Members)),
		Columns:     make([]Column, 0, len(b.Columns)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if out.Owner.ID == uuid.Nil {
		out.Owner.ID = b.OwnerID
	}
	for _, m := range b.Members {
		out.Members = append(out.Members, MemberFromModel(m))
	}
	for _, c := range b.Columns {
		out.Columns = append(out.Columns, Column{Title: c.Title, Order: c.Order})
	}
	return out
}

func BoardsFromModel(boards []model.Board) []Board {
	out := make([]Board, 0, len(boards))
	for i := range boards {
		out = append(out, BoardFromModel(&boards[i]))
	}
	return out
}

func TaskFromModel(t *model.Task) Task {
	out := Task{
		ID:          t.ID,
		Board:       t.BoardID,
		Column:      t.Column,
		Order:       t.Order,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		CreatedBy:   UserFromModel(t.Creator),
		DueDate:     t.DueDate,
		Tags:        []string(t.Tags),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if out.CreatedBy.ID == uuid.Nil {
		out.CreatedBy.ID = t.CreatedBy
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	switch {
	case t.Assignee != nil:
		a := UserFromModel(*t.Assignee)
		out.AssignedTo = &a
	case t.AssignedTo != nil:
		out.AssignedTo = &UserSummary{ID: *t.AssignedTo}
	}
	return out
}

func TasksFromModel(tasks []model.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		out = append(out, TaskFromModel(&tasks[i]))
	}
	return out
}
