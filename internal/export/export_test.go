package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"taskManager/internal/export"
	"taskManager/internal/models/task"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func fixture() ([]*task.Task, map[uuid.UUID]string) {
	worker := uuid.New()
	users := map[uuid.UUID]string{worker: "Мастер"}

	tasks := []*task.Task{
		{
			ID:        uuid.New(),
			Title:     "Монтаж вывески",
			Status:    task.StatusOpen,
			Assignees: []uuid.UUID{worker},
			PDFURL:    strPtr("http://localhost:8080/files/t/main_a.pdf"),
			Subtasks: []task.Subtask{
				{ID: uuid.New(), Title: "Замер фасада", Done: true},
				{ID: uuid.New(), Title: "Сварка каркаса", PDFURL: strPtr("http://localhost:8080/files/t/sub_b.pdf")},
			},
		},
		// задача без подзадач строк не даёт
		{ID: uuid.New(), Title: "Согласовать договор", Status: task.StatusClosed},
	}
	return tasks, users
}

func TestCSV(t *testing.T) {
	tasks, users := fixture()

	out, err := export.CSV(tasks, users)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Task", "Status", "Assignees", "Subtask", "Done", "PDF"}, rows[0])
	assert.Equal(t, []string{"Монтаж вывески", "open", "Мастер", "Замер фасада", "true", "http://localhost:8080/files/t/main_a.pdf"}, rows[1])
	assert.Equal(t, "http://localhost:8080/files/t/sub_b.pdf", rows[2][5])
}

func TestCSV_Empty(t *testing.T) {
	out, err := export.CSV(nil, nil)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1) // только заголовок
}

func TestJSON_RoundTrip(t *testing.T) {
	tasks, _ := fixture()

	out, err := export.JSON(tasks)
	require.NoError(t, err)

	var restored []*task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &restored))

	require.Len(t, restored, 2)
	assert.Equal(t, tasks[0].ID, restored[0].ID)
	assert.Equal(t, tasks[0].Subtasks, restored[0].Subtasks)
	assert.Equal(t, tasks[1].Title, restored[1].Title)
}

func TestXLSX(t *testing.T) {
	tasks, users := fixture()

	data, err := export.XLSX(tasks, users)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	title, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Монтаж вывески", title)

	sub, err := f.GetCellValue(sheet, "D3")
	require.NoError(t, err)
	assert.Equal(t, "Сварка каркаса", sub)
}

func TestDataURI(t *testing.T) {
	uri := export.DataURI(export.MimeCSV, "a,b\nпервая,вторая")

	assert.True(t, strings.HasPrefix(uri, "data:text/csv;charset=utf-8,"))
	// полезная нагрузка экранирована для вставки в ссылку
	assert.NotContains(t, uri, "\n")
}
