package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"taskboard/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return model.ValidPriority(fl.Field().String())
		})
		_ = v.RegisterValidation("memberrole", func(fl validator.FieldLevel) bool {
			return model.ValidMemberRole(fl.Field().String())
		})
	})
}

var jsonNull = []byte("null")

// NullableUUID tells "field absent" apart from an explicit null.
type NullableUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, jsonNull) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		n.Value = nil
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	n.Value = &id
	return nil
}

// NullableTime accepts RFC 3339 timestamps and plain dates (2006-01-02).
type NullableTime struct {
	Set   bool
	Value *time.Time
}

var errBadDate = errors.New("date must be RFC 3339 or YYYY-MM-DD")

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, jsonNull) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		n.Value = nil
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			n.Value = &t
			return nil
		}
	}
	return errBadDate
}

type CreateBoardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Background  string `json:"background"`
}

type UpdateBoardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Background  *string `json:"background"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,memberrole"`
}

type CreateTaskRequest struct {
	Board       uuid.UUID    `json:"board" binding:"required"`
	Column      string       `json:"column" binding:"required"`
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Priority    string       `json:"priority" binding:"omitempty,priority"`
	AssignedTo  NullableUUID `json:"assignedTo"`
	DueDate     NullableTime `json:"dueDate"`
	Tags        []string     `json:"tags"`
}

// UpdateTaskRequest is partial: absent fields keep their value.
type UpdateTaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Priority    *string      `json:"priority" binding:"omitempty,priority"`
	Column      *string      `json:"column"`
	Tags        *[]string    `json:"tags"`
	AssignedTo  NullableUUID `json:"assignedTo"`
	DueDate     NullableTime `json:"dueDate"`
}

type ReorderEntry struct {
	ID     uuid.UUID `json:"id"`
	Column string    `json:"column"`
	Order  int       `json:"order"`
}

type ReorderRequest struct {
	Tasks []ReorderEntry `json:"tasks"`
}

// MoveTaskRequest puts the task into Column before the Before task,
// or at the column tail when Before is omitted.
type MoveTaskRequest struct {
	Column string     `json:"column" binding:"required"`
	Before *uuid.UUID `json:"before"`
}
