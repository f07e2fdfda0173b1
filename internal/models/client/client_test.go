package client_test

import (
	"testing"

	"taskManager/internal/models/client"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClient_Label(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		client client.Client
		want   string
	}{
		{
			name:   "филиал в приоритете",
			client: client.Client{ID: id, BranchName: "Центральный", PersonEmail: "c@firm.ru", PersonPhone: "+7900"},
			want:   "Центральный",
		},
		{
			name:   "без филиала берётся email",
			client: client.Client{ID: id, PersonEmail: "c@firm.ru", PersonPhone: "+7900"},
			want:   "c@firm.ru",
		},
		{
			name:   "без email берётся телефон",
			client: client.Client{ID: id, PersonPhone: "+7900"},
			want:   "+7900",
		},
		{
			name:   "пустая запись — префикс id",
			client: client.Client{ID: id},
			want:   id.String()[:6],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.client.Label())
		})
	}
}
