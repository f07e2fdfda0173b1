package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"taskManager/internal/models/task"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Выгрузка выборки задач в табличные форматы.
// Ограничений на размер нет — как и в источнике.

const MimeCSV = "text/csv"
const MimeJSON = "application/json"
const MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []string{"Task", "Status", "Assignees", "Subtask", "Done", "PDF"}

type record struct {
	Task      string
	Status    string
	Assignees string
	Subtask   string
	Done      bool
	PDF       string
}

// плоские записи: по одной на каждую подзадачу каждой задачи
func flatten(tasks []*task.Task, users map[uuid.UUID]string) []record {
	records := []record{}
	for _, t := range tasks {
		names := make([]string, 0, len(t.Assignees))
		for _, id := range t.Assignees {
			if name, ok := users[id]; ok {
				names = append(names, name)
			} else {
				names = append(names, id.String()[:6])
			}
		}
		assignees := strings.Join(names, ", ")

		for _, sub := range t.Subtasks {
			pdf := ""
			if sub.PDFURL != nil {
				pdf = *sub.PDFURL
			} else if t.PDFURL != nil {
				pdf = *t.PDFURL
			}
			records = append(records, record{
				Task:      t.Title,
				Status:    string(t.Status),
				Assignees: assignees,
				Subtask:   sub.Title,
				Done:      sub.Done,
				PDF:       pdf,
			})
		}
	}
	return records
}

func CSV(tasks []*task.Task, users map[uuid.UUID]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("запись заголовка csv: %w", err)
	}
	for _, r := range flatten(tasks, users) {
		row := []string{r.Task, r.Status, r.Assignees, r.Subtask, strconv.FormatBool(r.Done), r.PDF}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("запись строки csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("завершение csv: %w", err)
	}
	return buf.String(), nil
}

// JSON отдаёт сам массив задач: разбор результата возвращает
// выборку поле в поле.
func JSON(tasks []*task.Task) (string, error) {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("сериализация задач: %w", err)
	}
	return string(data), nil
}

func XLSX(tasks []*task.Task, users map[uuid.UUID]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := f.SetSheetRow(sheet, cell, &[]interface{}{
		header[0], header[1], header[2], header[3], header[4], header[5],
	}); err != nil {
		return nil, fmt.Errorf("запись заголовка xlsx: %w", err)
	}

	for i, r := range flatten(tasks, users) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		err := f.SetSheetRow(sheet, cell, &[]interface{}{
			r.Task, r.Status, r.Assignees, r.Subtask, r.Done, r.PDF,
		})
		if err != nil {
			return nil, fmt.Errorf("запись строки xlsx: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("сохранение xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI упаковывает выгрузку в data-ссылку для открытия на стороне клиента.
func DataURI(mime, payload string) string {
	return "data:" + mime + ";charset=utf-8," + url.PathEscape(payload)
}
