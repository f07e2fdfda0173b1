package dto

import (
	"time"

	"taskManager/internal/models/client"
	"taskManager/internal/models/profile"
	"taskManager/internal/models/task"
	"taskManager/internal/token"

	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RestoreRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User   ProfileResponse `json:"user"`
	Tokens token.Pair      `json:"tokens"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func FromProfile(p *profile.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		CreatedAt: p.CreatedAt,
	}
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
}

type UpdateTaskRequest struct {
	Version     int          `json:"version"`
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Status      *task.Status `json:"status,omitempty"`
	ClientID    *uuid.UUID   `json:"client_id,omitempty"`
}

type SetSubtasksRequest struct {
	Version  int            `json:"version"`
	Subtasks []task.Subtask `json:"subtasks"`
}

type SetCommentsRequest struct {
	Version  int            `json:"version"`
	Comments []task.Comment `json:"comments"`
}

type SetAssigneesRequest struct {
	Version   int         `json:"version"`
	Assignees []uuid.UUID `json:"assignees"`
}

type AddSubtaskRequest struct {
	Title string `json:"title"`
}

type ToggleSubtaskRequest struct {
	Done bool `json:"done"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

type TaskResponse struct {
	ID          uuid.UUID      `json:"id"`
	Owner       uuid.UUID      `json:"owner"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	ClientID    *uuid.UUID     `json:"client_id,omitempty"`
	PDFURL      *string        `json:"pdf_url,omitempty"`
	Assignees   []uuid.UUID    `json:"assignees"`
	Subtasks    []task.Subtask `json:"subtasks"`
	Comments    []task.Comment `json:"comments"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Version     int            `json:"version"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Owner:       t.Owner,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		ClientID:    t.ClientID,
		PDFURL:      t.PDFURL,
		Assignees:   t.Assignees,
		Subtasks:    t.Subtasks,
		Comments:    t.Comments,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type ClientRequest struct {
	PersonPhone    string `json:"person_phone"`
	PersonEmail    string `json:"person_email"`
	GST            string `json:"gst"`
	NTN            string `json:"ntn"`
	NIC            string `json:"nic"`
	City           string `json:"city"`
	Area           string `json:"area"`
	BranchName     string `json:"branch_name"`
	BranchAddress  string `json:"branch_address"`
	BillingAddress string `json:"billing_address"`
}

func (r ClientRequest) ToClient() *client.Client {
	return &client.Client{
		PersonPhone:    r.PersonPhone,
		PersonEmail:    r.PersonEmail,
		GST:            r.GST,
		NTN:            r.NTN,
		NIC:            r.NIC,
		City:           r.City,
		Area:           r.Area,
		BranchName:     r.BranchName,
		BranchAddress:  r.BranchAddress,
		BillingAddress: r.BillingAddress,
	}
}

type ExportResponse struct {
	Filename string `json:"filename"`
	Mime     string `json:"mime"`
	DataURI  string `json:"data_uri"`
}
