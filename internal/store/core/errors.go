package core

import "errors"

var (
	// ErrNotFound indica que el registro no existe.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate indica violación de unicidad (email o token hash).
	ErrDuplicate = errors.New("store: duplicate")

	// ErrPreconditionFailed indica fallo del update condicional: el token
	// ya no estaba activo cuando se intentó rotarlo. El caller lo trata
	// como señal de reuse.
	ErrPreconditionFailed = errors.New("store: precondition failed")
)
