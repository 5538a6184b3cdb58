// Package recipes exposes the almanac service over HTTP.
package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"recipealmanac/internal/blob"
	"recipealmanac/internal/core"
	"recipealmanac/pkg/domain"
	"recipealmanac/pkg/measure"
)

// Handler provides HTTP access to users, recipes, favorites, rendering,
// photos, and unit conversion.
type Handler struct {
	Service *core.Service
	Blobs   blob.Store
}

// NewHandler constructs a recipes HTTP handler.
func NewHandler(svc *core.Service, blobs blob.Store) *Handler {
	return &Handler{Service: svc, Blobs: blobs}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/convert":
		h.handleConvert(w, r)
	case path == "/api/v1/users" || strings.HasPrefix(path, "/api/v1/users/"):
		h.handleUsers(w, r, strings.TrimPrefix(path, "/api/v1/users"))
	case path == "/api/v1/recipes" || strings.HasPrefix(path, "/api/v1/recipes/"):
		h.handleRecipes(w, r, strings.TrimPrefix(path, "/api/v1/recipes"))
	default:
		http.NotFound(w, r)
	}
}

// --- users ---

type userRequest struct {
	Handle      string  `json:"handle"`
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio,omitempty"`
	AvatarKey   *string `json:"avatar_key,omitempty"`
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request, remainder string) {
	if remainder == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"users": h.Service.ListUsers()})
		case http.MethodPost:
			h.handleUserCreate(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	segments := strings.Split(strings.TrimPrefix(remainder, "/"), "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch len(segments) {
	case 1:
		h.handleUser(w, r, id)
	case 2:
		if segments[1] != "favorites" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		if _, ok := h.Service.GetUser(id); !ok {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"recipes": h.Service.ListUserFavorites(id)})
	case 3:
		if segments[1] != "favorites" {
			http.NotFound(w, r)
			return
		}
		h.handleFavorite(w, r, id, segments[2])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid user payload")
		return
	}
	user, _, err := h.Service.CreateUser(r.Context(), domain.User{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarKey:   req.AvatarKey,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		user, ok := h.Service.GetUser(id)
		if !ok {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	case http.MethodPut:
		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid user payload")
			return
		}
		user, _, err := h.Service.UpdateUser(r.Context(), id, func(u *domain.User) error {
			u.Handle = req.Handle
			u.DisplayName = req.DisplayName
			u.Bio = req.Bio
			u.AvatarKey = req.AvatarKey
			return nil
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	case http.MethodDelete:
		if _, err := h.Service.DeleteUser(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleFavorite(w http.ResponseWriter, r *http.Request, userID, recipeID string) {
	switch r.Method {
	case http.MethodPut:
		fav, _, err := h.Service.FavoriteRecipe(r.Context(), userID, recipeID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"favorite": fav})
	case http.MethodDelete:
		if _, err := h.Service.UnfavoriteRecipe(r.Context(), userID, recipeID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- recipes ---

type ingredientRequest struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type recipeRequest struct {
	AuthorID     string              `json:"author_id"`
	Title        string              `json:"title"`
	Summary      *string             `json:"summary,omitempty"`
	Instructions []string            `json:"instructions"`
	Servings     int                 `json:"servings"`
	Tags         []string            `json:"tags"`
	Ingredients  []ingredientRequest `json:"ingredients"`
}

func composeIngredients(reqs []ingredientRequest) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(reqs))
	for _, ing := range reqs {
		out = append(out, core.ComposeIngredient(ing.Name, ing.Amount, ing.Unit))
	}
	return out
}

func (h *Handler) handleRecipes(w http.ResponseWriter, r *http.Request, remainder string) {
	if remainder == "" {
		switch r.Method {
		case http.MethodGet:
			recipes := h.Service.ListRecipes(r.URL.Query().Get("author"), r.URL.Query().Get("tag"))
			writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
		case http.MethodPost:
			h.handleRecipeCreate(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	segments := strings.Split(strings.TrimPrefix(remainder, "/"), "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch len(segments) {
	case 1:
		h.handleRecipe(w, r, id)
	case 2:
		switch segments[1] {
		case "fork":
			h.handleFork(w, r, id)
		case "render":
			h.handleRender(w, r, id)
		case "photo":
			h.handlePhoto(w, r, id)
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleRecipeCreate(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe payload")
		return
	}
	recipe, _, err := h.Service.CreateRecipe(r.Context(), domain.Recipe{
		AuthorID:     req.AuthorID,
		Title:        req.Title,
		Summary:      req.Summary,
		Instructions: req.Instructions,
		Servings:     req.Servings,
		Tags:         req.Tags,
		Ingredients:  composeIngredients(req.Ingredients),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recipe": recipe})
}

func (h *Handler) handleRecipe(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		recipe, ok := h.Service.GetRecipe(id)
		if !ok {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"recipe": recipe})
	case http.MethodPut:
		var req recipeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid recipe payload")
			return
		}
		recipe, _, err := h.Service.UpdateRecipe(r.Context(), id, func(rec *domain.Recipe) error {
			rec.Title = req.Title
			rec.Summary = req.Summary
			rec.Instructions = req.Instructions
			rec.Servings = req.Servings
			rec.Tags = req.Tags
			rec.Ingredients = composeIngredients(req.Ingredients)
			return nil
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"recipe": recipe})
	case http.MethodDelete:
		if _, err := h.Service.DeleteRecipe(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type forkRequest struct {
	AuthorID string `json:"author_id"`
}

func (h *Handler) handleFork(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req forkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fork payload")
		return
	}
	recipe, _, err := h.Service.ForkRecipe(r.Context(), id, req.AuthorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recipe": recipe})
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var opts core.RenderOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid render payload")
		return
	}
	rendered, err := h.Service.RenderRecipe(r.Context(), id, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rendered)
}

// --- photos ---

func photoKey(recipeID string) string {
	return fmt.Sprintf("recipes/%s/photo", recipeID)
}

func (h *Handler) handlePhoto(w http.ResponseWriter, r *http.Request, id string) {
	if h.Blobs == nil {
		writeError(w, http.StatusInternalServerError, "blob store not configured")
		return
	}
	if _, ok := h.Service.GetRecipe(id); !ok {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}
	key := photoKey(id)

	switch r.Method {
	case http.MethodPut:
		// create-only store: drop any previous photo before writing
		if _, err := h.Blobs.Delete(r.Context(), key); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		info, err := h.Blobs.Put(r.Context(), key, r.Body, blob.PutOptions{
			ContentType: r.Header.Get("Content-Type"),
			Metadata:    map[string]string{"recipe_id": id},
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if _, _, err := h.Service.UpdateRecipe(r.Context(), id, func(rec *domain.Recipe) error {
			rec.PhotoKey = &info.Key
			return nil
		}); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"photo": info})
	case http.MethodGet:
		info, rc, err := h.Blobs.Get(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		defer func() { _ = rc.Close() }()
		if info.ContentType != "" {
			w.Header().Set("Content-Type", info.ContentType)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, rc)
	case http.MethodDelete:
		existed, err := h.Blobs.Delete(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !existed {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		if _, _, err := h.Service.UpdateRecipe(r.Context(), id, func(rec *domain.Recipe) error {
			rec.PhotoKey = nil
			return nil
		}); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- conversion ---

type convertRequest struct {
	Amount     float64 `json:"amount"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Ingredient string  `json:"ingredient,omitempty"`
}

type convertResponse struct {
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Display string  `json:"display"`
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid convert payload")
		return
	}
	ingredient := req.Ingredient
	if ingredient == "" {
		ingredient = measure.DefaultIngredient
	}
	amount := measure.Convert(req.Amount, req.From, req.To, ingredient)
	writeJSON(w, http.StatusOK, convertResponse{
		Amount:  amount,
		Unit:    req.To,
		Display: measure.Format(amount, req.To),
	})
}

// --- helpers ---

func writeServiceError(w http.ResponseWriter, err error) {
	var nf core.ErrNotFound
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	var rve domain.RuleViolationError
	if errors.As(err, &rve) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      rve.Error(),
			"violations": rve.Result.Violations,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
