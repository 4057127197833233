package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
)

const (
	FieldPerson = "person"
	FieldDress  = "dress"

	// extra room for multipart boundaries and headers
	formOverhead = 1 << 20
)

var (
	requiredFields = []string{FieldPerson, FieldDress}

	conform  = modifiers.New()
	validate = validator.New()
)

// ValidationError is a client error answered with 400.
type ValidationError struct {
	Message  string
	Required []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingImagesError() *ValidationError {
	return &ValidationError{Message: MsgMissingImages, Required: requiredFields}
}

type uploadDescriptor struct {
	Field       string `validate:"oneof=person dress"`
	Count       int    `validate:"max=1"`
	ContentType string `mod:"trim,lcase" validate:"required,oneof=image/jpeg image/png image/webp"`
	Size        int64  `validate:"ltefield=MaxSize"`
	MaxSize     int64
}

type uploadedImages struct {
	Person []byte
	Dress  []byte
}

// readUploads parses the multipart body and returns both image buffers. Any
// returned *ValidationError means the compositor must not run.
func readUploads(w http.ResponseWriter, r *http.Request, maxFileSize int64) (*uploadedImages, error) {
	limit := int64(len(requiredFields))*maxFileSize + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	// uploads stay in memory, nothing is spilled to disk
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			return nil, missingImagesError()
		case errors.As(err, &maxErr), errors.Is(err, multipart.ErrMessageTooLarge):
			return nil, &ValidationError{Message: fmt.Sprintf(MsgFileTooLarge, maxFileSize>>20)}
		default:
			return nil, &ValidationError{Message: MsgInvalidForm}
		}
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File
	for field, headers := range files {
		if err := validateUpload(r.Context(), field, headers, maxFileSize); err != nil {
			return nil, err
		}
	}

	if len(files[FieldPerson]) == 0 || len(files[FieldDress]) == 0 {
		return nil, missingImagesError()
	}

	person, err := readPart(files[FieldPerson][0])
	if err != nil {
		return nil, err
	}
	dress, err := readPart(files[FieldDress][0])
	if err != nil {
		return nil, err
	}

	return &uploadedImages{Person: person, Dress: dress}, nil
}

// validateUpload checks the files sent under one form field. Field name,
// file count, size and type are reported in that order of precedence.
func validateUpload(ctx context.Context, field string, headers []*multipart.FileHeader, maxFileSize int64) error {
	if len(headers) == 0 {
		return nil
	}
	fh := headers[0]
	desc := uploadDescriptor{
		Field:       field,
		Count:       len(headers),
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		MaxSize:     maxFileSize,
	}
	if err := conform.Struct(ctx, &desc); err != nil {
		return fmt.Errorf("normalize upload %s: %w", field, err)
	}

	err := validate.Struct(&desc)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate upload %s: %w", field, err)
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = true
	}

	switch {
	case failed["Field"]:
		return &ValidationError{Message: fmt.Sprintf(MsgUnexpectedField, field)}
	case failed["Count"]:
		return &ValidationError{Message: MsgTooManyFiles}
	case failed["Size"]:
		return &ValidationError{Message: fmt.Sprintf(MsgFileTooLarge, maxFileSize>>20)}
	default:
		return &ValidationError{Message: MsgInvalidFileType}
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	return io.ReadAll(f)
}
