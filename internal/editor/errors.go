package editor

import (
	"fmt"

	"club-site/internal/content"
)

const (
	InvalidImageMessage    = "Por favor, selecciona un archivo de imagen válido."
	NewsRequiredMessage    = "Todos los campos y la imagen son obligatorios."
	GalleryRequiredMessage = "Por favor, introduce un título y selecciona al menos una imagen."
	PlayerFieldsMessage    = "Nombre y posición son obligatorios."
	PlayerImageMessage     = "La imagen es obligatoria para un nuevo jugador."
	SponsorRequiredMessage = "Selecciona al menos un logo."
)

// ValidationError is a missing or malformed input, caught before any
// store is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "editor: validation: " + e.Message
}

func invalid(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// SaveError is any store failure during a create or update. The operation
// was abandoned and nothing is rolled back.
type SaveError struct {
	Collection string
	Err        error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("editor: save %s: %v", e.Collection, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Message is the user facing text for the failure.
func (e *SaveError) Message() string {
	switch e.Collection {
	case content.NewsCollection.Name:
		return "Hubo un error al crear la noticia. Inténtalo de nuevo."
	case content.GalleriesCollection.Name:
		return "Hubo un error al crear la galería. Inténtalo de nuevo."
	case content.PlayersCollection.Name:
		return "Hubo un error al guardar el jugador. Inténtalo de nuevo."
	case content.SponsorsCollection.Name:
		return "Hubo un error al subir los logos. Inténtalo de nuevo."
	}
	return "Hubo un error al guardar. Inténtalo de nuevo."
}

// DeleteError is a failed document delete. Blobs may already be gone.
type DeleteError struct {
	Collection string
	ID         string
	Err        error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("editor: delete %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

func (e *DeleteError) Message() string {
	switch e.Collection {
	case content.NewsCollection.Name:
		return "No se pudo eliminar la noticia."
	case content.GalleriesCollection.Name:
		return "No se pudo eliminar la galería."
	case content.PlayersCollection.Name:
		return "No se pudo eliminar el jugador."
	case content.SponsorsCollection.Name:
		return "No se pudo eliminar el patrocinador."
	}
	return "No se pudo eliminar."
}
