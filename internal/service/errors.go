package service

import "fmt"

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{Key: key, Payload: payload}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}
	return busErr
}

func NewNotFound(resource string, id string) *BusinessError {
	return &BusinessError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewForbidden(resource string, id string) *BusinessError {
	return &BusinessError{
		Code:    "FORBIDDEN",
		Message: fmt.Sprintf("Нет доступа к %s %s", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewVersionConflict(id string, version int) *BusinessError {
	return &BusinessError{
		Code:    "VERSION_CONFLICT",
		Message: "Запись изменена другим пользователем, обновите данные",
		Details: map[string]any{
			"id":               id,
			"expected_version": version,
		},
	}
}

// Неверный email и неверный пароль намеренно не различаются.
func NewInvalidCredentials() *BusinessError {
	return &BusinessError{
		Code:    "INVALID_CREDENTIALS",
		Message: "Неверный email или пароль",
		Details: map[string]any{},
	}
}

func NewUnauthorized(reason string) *BusinessError {
	return &BusinessError{
		Code:    "UNAUTHORIZED",
		Message: "Сессия недействительна",
		Details: map[string]any{"reason": reason},
	}
}

func NewAlreadyExists(resource string) *BusinessError {
	return &BusinessError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s уже существует", resource),
		Details: map[string]any{"resource": resource},
	}
}
