package task

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const StatusOpen Status = "open"
const StatusInProgress Status = "in_progress"
const StatusClosed Status = "closed"

// Task — центральный агрегат: подзадачи, комментарии и исполнители
// хранятся внутри задачи и перезаписываются целиком при изменении.
type Task struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Owner       uuid.UUID   `json:"owner" db:"owner"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	Status      Status      `json:"status" db:"status"`
	ClientID    *uuid.UUID  `json:"client_id,omitempty" db:"client_id"`
	PDFURL      *string     `json:"pdf_url,omitempty" db:"pdf_url"`
	Assignees   []uuid.UUID `json:"assignees" db:"assignees"`
	Subtasks    []Subtask   `json:"subtasks" db:"subtasks"`
	Comments    []Comment   `json:"comments" db:"comments"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Version     int         `json:"version" db:"version"`
}

type Subtask struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Done   bool      `json:"done"`
	PDFURL *string   `json:"pdf_url,omitempty"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp string    `json:"timestamp"`
}

// ValidStatus проверяет, что статус из запроса входит в допустимый набор.
func ValidStatus(s Status) bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusClosed
}

// VisibleTo — задача видна владельцу и каждому из исполнителей.
func (t *Task) VisibleTo(userID uuid.UUID) bool {
	if t.Owner == userID {
		return true
	}
	for _, a := range t.Assignees {
		if a == userID {
			return true
		}
	}
	return false
}

// Progress возвращает количество выполненных и общее количество подзадач.
func (t *Task) Progress() (done, total int) {
	total = len(t.Subtasks)
	for _, s := range t.Subtasks {
		if s.Done {
			done++
		}
	}
	return done, total
}

// формат отметки времени комментария, как в исходных данных
const CommentTimestampLayout = "2006-01-02 15:04"

func NewComment(author, text string, at time.Time) Comment {
	return Comment{
		ID:        uuid.New(),
		Author:    author,
		Text:      text,
		Timestamp: at.Format(CommentTimestampLayout),
	}
}
