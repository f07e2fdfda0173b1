package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")
var ErrAlreadyExists = errors.New("запись уже существует")
var ErrVersionConflict = errors.New("конфликт версий")

// ErrCorruptedPayload — встроенное jsonb-поле не разобралось.
// Повреждение данных отдаётся наверх отдельной ошибкой, а не пустым списком.
var ErrCorruptedPayload = errors.New("повреждённые встроенные данные")
