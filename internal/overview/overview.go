package overview

import (
	"strings"

	"taskManager/internal/models/task"

	"github.com/google/uuid"
)

// Проекция "строка на пару задача×подзадача" для сводной таблицы.
// Чистая функция от выборки и фильтров, без обращений к хранилищу.

type Layout string

const LayoutTable Layout = "table"
const LayoutCards Layout = "cards"

// ниже этой ширины сводка отдаётся карточками, а не таблицей
const MobileBreakpoint = 800

type Filter struct {
	Status string // "", "All" — без фильтра
	Search string
	Width  int
}

type Counters struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Closed int `json:"closed"`
}

type Row struct {
	TaskID      uuid.UUID   `json:"task_id"`
	SubtaskID   *uuid.UUID  `json:"subtask_id,omitempty"`
	Task        string      `json:"task"`
	Status      task.Status `json:"status"`
	Assignees   []string    `json:"assignees"`
	Subtask     string      `json:"subtask"`
	Done        bool        `json:"done"`
	PDFURL      *string     `json:"pdf_url,omitempty"`
	DoneCount   int         `json:"done_count"`
	TotalCount  int         `json:"total_count"`
	Placeholder bool        `json:"placeholder"`
}

type Overview struct {
	Counters Counters `json:"counters"`
	Rows     []Row    `json:"rows"`
	Layout   Layout   `json:"layout"`
}

// Build собирает сводку. Счётчики считаются по всей выборке,
// фильтры влияют только на строки.
func Build(tasks []*task.Task, users map[uuid.UUID]string, f Filter) Overview {
	statusFilter := strings.ToLower(f.Status)
	if statusFilter == "all" {
		statusFilter = ""
	}
	searchFilter := strings.ToLower(f.Search)

	out := Overview{
		Rows:   []Row{},
		Layout: layoutFor(f.Width),
	}

	for _, t := range tasks {
		out.Counters.Total++
		switch t.Status {
		case task.StatusOpen:
			out.Counters.Open++
		case task.StatusClosed:
			out.Counters.Closed++
		}

		if statusFilter != "" && string(t.Status) != statusFilter {
			continue
		}

		names := assigneeNames(t.Assignees, users)
		done, total := t.Progress()

		// задача без подзадач всё равно даёт одну строку
		if len(t.Subtasks) == 0 {
			if matches(searchFilter, t.Title, "") {
				out.Rows = append(out.Rows, Row{
					TaskID:      t.ID,
					Task:        t.Title,
					Status:      t.Status,
					Assignees:   names,
					Subtask:     "—",
					PDFURL:      t.PDFURL,
					DoneCount:   done,
					TotalCount:  total,
					Placeholder: true,
				})
			}
			continue
		}

		for _, sub := range t.Subtasks {
			if !matches(searchFilter, t.Title, sub.Title) {
				continue
			}

			subID := sub.ID
			pdf := sub.PDFURL
			if pdf == nil {
				pdf = t.PDFURL
			}

			out.Rows = append(out.Rows, Row{
				TaskID:     t.ID,
				SubtaskID:  &subID,
				Task:       t.Title,
				Status:     t.Status,
				Assignees:  names,
				Subtask:    sub.Title,
				Done:       sub.Done,
				PDFURL:     pdf,
				DoneCount:  done,
				TotalCount: total,
			})
		}
	}

	return out
}

// Progress — доля выполненных подзадач строки; 0 при отсутствии подзадач.
func (r Row) Progress() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return float64(r.DoneCount) / float64(r.TotalCount)
}

// нулевая ширина означает "не передана", такой клиент получает таблицу
func layoutFor(width int) Layout {
	if width > 0 && width < MobileBreakpoint {
		return LayoutCards
	}
	return LayoutTable
}

// поиск по склейке "заголовок задачи + заголовок подзадачи", без учёта регистра
func matches(search, taskTitle, subTitle string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(taskTitle+" "+subTitle), search)
}

func assigneeNames(assignees []uuid.UUID, users map[uuid.UUID]string) []string {
	names := make([]string, 0, len(assignees))
	for _, id := range assignees {
		if name, ok := users[id]; ok {
			names = append(names, name)
			continue
		}
		// незнакомый id показывается усечённым
		names = append(names, id.String()[:6])
	}
	return names
}
