package cars

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/car-catalog/backend/internal/apperror"
	"github.com/ayush/car-catalog/backend/internal/auth"
	"github.com/ayush/car-catalog/backend/internal/models"
	"github.com/ayush/car-catalog/backend/internal/respond"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before file parts spill to temporary files, when no body cap is set.
const multipartMemory = 32 << 20

// Handler holds car HTTP handlers. It owns the transport encoding: multipart
// decoding on the way in, base64 images on the way out.
type Handler struct {
	svc     *Service
	maxBody int64
	log     *slog.Logger
}

// NewHandler creates a handler that rejects request bodies over maxBody bytes.
func NewHandler(svc *Service, maxBody int64, log *slog.Logger) *Handler {
	return &Handler{svc: svc, maxBody: maxBody, log: log}
}

// Create stores a car from a multipart form with title, description, tags
// and up to MaxImages "images" files.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	if err := h.parseForm(w, r); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	defer removeTemp(r)

	tags, err := formTags(r.PostForm)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	images, err := h.formImages(r)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	car, err := h.svc.Create(r.Context(), ownerID, CreateInput{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Tags:        tags,
		Images:      images,
	})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, models.NewCarResponse(car))
}

// List returns the caller's cars, filtered by the optional keyword query.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	cars, err := h.svc.List(r.Context(), ownerID, r.URL.Query().Get("keyword"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	out := make([]models.CarResponse, len(cars))
	for i := range cars {
		out[i] = models.NewCarResponse(&cars[i])
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get returns a single car with its images as base64 strings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	car, err := h.svc.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, models.NewCarResponse(car))
}

// Update replaces a car from a multipart form. "tags" is a JSON string,
// "existing_images" carries base64 images to keep and "images" new files.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	if err := h.parseForm(w, r); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	defer removeTemp(r)

	tags, err := formTags(r.PostForm)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	images, err := h.formImages(r)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	car, err := h.svc.Update(r.Context(), ownerID, chi.URLParam(r, "id"), UpdateInput{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Tags:        tags,
		KeptImages:  existingImages(r.PostForm),
		NewImages:   images,
	})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, models.NewCarResponse(car))
}

// Delete removes a car.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "Car deleted")
}

// parseForm reads a multipart or urlencoded body into r.PostForm and
// r.MultipartForm, capped at maxBody bytes.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) error {
	memory := int64(multipartMemory)
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
		// Kept images arrive as text values, which are never spilled to
		// disk, so the memory bound has to admit a full body.
		memory = h.maxBody
	}
	err := r.ParseMultipartForm(memory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.NewValidation(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), err)
	}
	return apperror.NewValidation("invalid form body", err)
}

// formImages reads the uploaded "images" files in upload order, enforcing
// the count and size limits before any file is read.
func (h *Handler) formImages(r *http.Request) ([][]byte, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var files []*multipart.FileHeader
	files = append(files, r.MultipartForm.File["images"]...)
	files = append(files, r.MultipartForm.File["images[]"]...)

	limits := h.svc.Limits()
	if limits.MaxImages > 0 && len(files) > limits.MaxImages {
		return nil, apperror.NewValidation(fmt.Sprintf("at most %d images are allowed", limits.MaxImages), nil)
	}

	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		if limits.MaxImageBytes > 0 && fh.Size > limits.MaxImageBytes {
			return nil, apperror.NewValidation(fmt.Sprintf("image %q exceeds %d bytes", fh.Filename, limits.MaxImageBytes), nil)
		}
		data, err := readFile(fh)
		if err != nil {
			return nil, apperror.NewInternal("read upload", err)
		}
		images = append(images, data)
	}
	return images, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formTags reads tags from a JSON "tags" field, or from the bracketed
// tags[car_type], tags[company] and tags[dealer] fields.
func formTags(form url.Values) (models.Tags, error) {
	if raw := form.Get("tags"); strings.TrimSpace(raw) != "" {
		tags, err := models.ParseTags(raw)
		if err != nil {
			return models.Tags{}, apperror.NewValidation("tags must be a JSON object", err)
		}
		return tags, nil
	}
	return models.Tags{
		CarType: strings.TrimSpace(form.Get("tags[car_type]")),
		Company: strings.TrimSpace(form.Get("tags[company]")),
		Dealer:  strings.TrimSpace(form.Get("tags[dealer]")),
	}, nil
}

// existingImages collects kept image refs: plain "existing_images" (or
// "existing_images[]") values in form order, then "existing_images[N]"
// values ordered by N.
func existingImages(form url.Values) []string {
	refs := append([]string{}, form["existing_images"]...)
	refs = append(refs, form["existing_images[]"]...)

	type indexed struct {
		n   int
		ref string
	}
	var numbered []indexed
	for key, values := range form {
		inner, ok := strings.CutPrefix(key, "existing_images[")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(inner, "]"))
		if err != nil || !strings.HasSuffix(inner, "]") {
			continue
		}
		for _, v := range values {
			numbered = append(numbered, indexed{n: n, ref: v})
		}
	}
	sort.SliceStable(numbered, func(i, j int) bool { return numbered[i].n < numbered[j].n })
	for _, item := range numbered {
		refs = append(refs, item.ref)
	}
	return refs
}

func removeTemp(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}
